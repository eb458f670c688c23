package provider

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wanmilin/glin/internal/domain"
)

// Selection is the outcome of resolving the current settings: the
// adapter to call and the request parameters the vendor variant needs.
type Selection struct {
	Adapter Adapter

	// Model is the vendor model identifier, empty for vendors that take
	// orientation/duration parameters instead.
	Model string

	// Orientation and Duration are populated for the yunwu wire, which
	// does not encode them in a model identifier.
	Orientation string
	Duration    int
}

// Selector resolves the configured vendor and credentials into an
// adapter instance. It fails fast with a descriptive error when no
// credential is present, instead of constructing an adapter that would
// fail on its first call.
type Selector struct {
	client *http.Client
	logger *slog.Logger
}

// NewSelector creates a Selector. The HTTP client is shared by every
// adapter it constructs; a nil client falls back to a default with a
// request timeout.
func NewSelector(client *http.Client, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{client: client, logger: logger}
}

// Select resolves an adapter and its model from the settings snapshot.
func (s *Selector) Select(settings map[string]string) (*Selection, error) {
	mode := valueOr(settings, domain.SettingAPIMode, domain.APIModeCustom)
	if mode == domain.APIModeOfficial {
		return s.selectOfficial(settings)
	}
	return s.selectCustom(settings)
}

// selectOfficial handles the official API mode: one shared credential,
// with a sub-provider choosing the wire format and model.
func (s *Selector) selectOfficial(settings map[string]string) (*Selection, error) {
	apiKey := settings[domain.SettingGuanfangAPIKey]
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key for official mode")
	}

	subProvider := valueOr(settings, domain.SettingGuanfangSora2Provider, VendorDayangyu)
	switch subProvider {
	case VendorXiaobanshou:
		model := valueOr(settings, domain.SettingXiaobanshouModel, defaultXiaobanshouModel)
		return &Selection{
			Adapter: NewGuanfangXBS(apiKey, s.client, s.logger),
			Model:   model,
		}, nil
	case VendorBandianwa:
		model := valueOr(settings, domain.SettingBandianwaSora2Model, defaultBandianwaModel)
		return &Selection{
			Adapter: NewGuanfang(apiKey, s.client, s.logger),
			Model:   model,
		}, nil
	default:
		model := valueOr(settings, domain.SettingGuanfangSora2Model, defaultDayangyuModel)
		return &Selection{
			Adapter: NewGuanfang(apiKey, s.client, s.logger),
			Model:   model,
		}, nil
	}
}

// selectCustom handles the custom API mode with per-vendor credentials.
func (s *Selector) selectCustom(settings map[string]string) (*Selection, error) {
	vendor := valueOr(settings, domain.SettingSora2Provider, VendorDayangyu)

	switch vendor {
	case VendorDayangyu:
		apiKey := settings[domain.SettingDayangyuAPIKey]
		if apiKey == "" {
			return nil, fmt.Errorf("missing API key for vendor %s", VendorDayangyu)
		}
		model := valueOr(settings, domain.SettingDayangyuSora2Model, defaultDayangyuModel)
		return &Selection{
			Adapter: NewDayangyu(apiKey, s.client, s.logger),
			Model:   model,
		}, nil

	case VendorYunwu:
		apiKey := settings[domain.SettingYunwuAPIKey]
		if apiKey == "" {
			return nil, fmt.Errorf("missing API key for vendor %s", VendorYunwu)
		}
		orientation := valueOr(settings, domain.SettingYunwuOrientation, defaultOrientation)
		duration := defaultDuration
		if raw := settings[domain.SettingYunwuDuration]; raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				duration = parsed
			}
		}
		return &Selection{
			Adapter:     NewYunwu(apiKey, s.client, s.logger),
			Orientation: orientation,
			Duration:    duration,
		}, nil

	case VendorXiaobanshou:
		apiKey := settings[domain.SettingXiaobanshouAPIKey]
		if apiKey == "" {
			return nil, fmt.Errorf("missing API key for vendor %s", VendorXiaobanshou)
		}
		model := valueOr(settings, domain.SettingXiaobanshouModel, defaultXiaobanshouModel)
		return &Selection{
			Adapter: NewXiaobanshou(apiKey, s.client, s.logger),
			Model:   model,
		}, nil

	case VendorBandianwa:
		apiKey := settings[domain.SettingBandianwaAPIKey]
		if apiKey == "" {
			return nil, fmt.Errorf("missing API key for vendor %s", VendorBandianwa)
		}
		model := valueOr(settings, domain.SettingBandianwaSora2Model, defaultBandianwaModel)
		return &Selection{
			Adapter: NewBandianwa(apiKey, s.client, s.logger),
			Model:   model,
		}, nil

	default:
		return nil, fmt.Errorf("unknown video vendor: %s", vendor)
	}
}

// valueOr returns settings[key], or fallback when the key is absent or
// empty.
func valueOr(settings map[string]string, key, fallback string) string {
	if v := settings[key]; v != "" {
		return v
	}
	return fallback
}
