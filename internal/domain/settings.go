package domain

// Setting keys consulted by the orchestration core. Settings are stored
// as key/value pairs in the local store and written by the desktop
// shell; the core treats them as read-only configuration.
const (
	// API mode selection: "official" or "custom".
	SettingAPIMode = "api_mode"

	// Official mode: one shared key, plus a sub-provider choosing the
	// wire format and its model identifier.
	SettingGuanfangAPIKey        = "guanfang_api_key"
	SettingGuanfangSora2Provider = "guanfang_sora2_provider"
	SettingGuanfangSora2Model    = "guanfang_sora2_model"

	// Custom mode: vendor selection plus per-vendor credentials and
	// model identifiers.
	SettingSora2Provider        = "sora2_model"
	SettingDayangyuAPIKey       = "dayangyu_api_key"
	SettingDayangyuSora2Model   = "dayangyu_sora2_model"
	SettingYunwuAPIKey          = "yunwu_api_key"
	SettingYunwuOrientation     = "yunwu_sora2_orientation"
	SettingYunwuDuration        = "yunwu_sora2_duration"
	SettingXiaobanshouAPIKey    = "xiaobanshou_api_key"
	SettingXiaobanshouModel     = "xiaobanshou_sora2_model"
	SettingBandianwaAPIKey      = "bandianwa_api_key"
	SettingBandianwaSora2Model  = "bandianwa_sora2_model"

	// Download behavior.
	SettingAutoDownload = "auto_download"
	SettingDownloadPath = "download_path"

	// Retry behavior.
	SettingAutoRetry     = "auto_retry"
	SettingVideoMaxRetry = "video_max_retry"

	// Worker pool sizing.
	SettingWorkerPoolSize = "thread_pool_size"
)

// APIMode values.
const (
	APIModeOfficial = "official"
	APIModeCustom   = "custom"
)
