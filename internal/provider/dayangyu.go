package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// Vendor API base URLs.
const (
	apiBaseDayangyu    = "https://api.dyuapi.com"
	apiBaseGuanfang    = "https://api.haoapi.top"
	apiBaseBandianwa   = "https://api.hellobabygo.com"
	apiBaseXiaobanshou = "https://api.xintianwengai.com"
)

// Default model identifiers per wire variant.
const (
	defaultDayangyuModel  = "sora2-portrait-15s"
	defaultBandianwaModel = "sora-2-portrait-15s-guanzhuan"
)

// videosAdapter implements the /v1/videos wire format: JSON body for
// text-only jobs, multipart form with an input_reference file for
// image-to-video jobs, and a /content endpoint for direct artifact
// retrieval. The dayangyu, guanfang (official), and bandianwa vendors
// all speak this format and differ only in base URL.
type videosAdapter struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewDayangyu returns the dayangyu vendor adapter. It supports direct
// artifact retrieval via ArtifactFetcher.
func NewDayangyu(apiKey string, client *http.Client, logger *slog.Logger) Adapter {
	return newVideosAdapter(VendorDayangyu, apiBaseDayangyu, apiKey, client, logger)
}

// NewGuanfang returns the official-API adapter using the dayangyu wire
// format. It supports direct artifact retrieval via ArtifactFetcher.
func NewGuanfang(apiKey string, client *http.Client, logger *slog.Logger) Adapter {
	return newVideosAdapter(VendorGuanfang, apiBaseGuanfang, apiKey, client, logger)
}

// NewBandianwa returns the bandianwa vendor adapter, which shares the
// dayangyu wire format on its own base URL.
func NewBandianwa(apiKey string, client *http.Client, logger *slog.Logger) Adapter {
	return newVideosAdapter(VendorBandianwa, apiBaseBandianwa, apiKey, client, logger)
}

func newVideosAdapter(name, baseURL, apiKey string, client *http.Client, logger *slog.Logger) *videosAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &videosAdapter{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  defaultHTTPClient(client),
		logger:  logger.With("vendor", name),
	}
}

// Name returns the vendor identifier.
func (a *videosAdapter) Name() string {
	return a.name
}

// videosJobPayload is the vendor response shape for both create and
// query calls. Only the fields needed for normalization are decoded.
type videosJobPayload struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	VideoURL string  `json:"video_url"`
	Error    string  `json:"error"`
}

// CreateJob submits a new remote job: JSON for text-only prompts,
// multipart form when a local input image is attached.
func (a *videosAdapter) CreateJob(ctx context.Context, req CreateRequest) JobSnapshot {
	url := a.baseURL + "/v1/videos"

	var (
		body        io.Reader
		contentType string
	)

	if req.ImagePath != "" && fileExists(req.ImagePath) {
		form, formType, err := multipartForm(
			map[string]string{"prompt": req.Prompt, "model": req.Model},
			"input_reference", req.ImagePath,
		)
		if err != nil {
			a.logger.Error("failed to build multipart request", "error", err)
			return failedSnapshot("", err.Error())
		}
		body = form
		contentType = formType
		a.logger.Info("creating image-to-video job", "url", url, "model", req.Model, "image", req.ImagePath)
	} else {
		payload, err := json.Marshal(map[string]string{"prompt": req.Prompt, "model": req.Model})
		if err != nil {
			return failedSnapshot("", err.Error())
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
		a.logger.Info("creating text-to-video job", "url", url, "model", req.Model)
	}

	data, err := a.do(ctx, http.MethodPost, url, body, contentType)
	if err != nil {
		a.logger.Error("create job failed", "error", err)
		return failedSnapshot("", err.Error())
	}

	return a.parseJob(data, "")
}

// QueryJob polls an existing remote job.
func (a *videosAdapter) QueryJob(ctx context.Context, remoteID string) JobSnapshot {
	remoteID = strings.TrimSpace(remoteID)
	if remoteID == "" {
		return failedSnapshot("", "remote job ID is empty")
	}

	url := a.baseURL + "/v1/videos/" + remoteID
	a.logger.Debug("querying job", "url", url, "remote_id", remoteID)

	data, err := a.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		a.logger.Error("query job failed", "remote_id", remoteID, "error", err)
		return failedSnapshot(remoteID, err.Error())
	}

	return a.parseJob(data, remoteID)
}

// FetchArtifact retrieves the finished artifact through the /content
// endpoint. This endpoint is slow; callers usually prefer the video URL
// returned by QueryJob and use this as the API-side alternative.
func (a *videosAdapter) FetchArtifact(ctx context.Context, remoteID string) ([]byte, string, error) {
	remoteID = strings.TrimSpace(remoteID)
	if remoteID == "" {
		return nil, "", fmt.Errorf("remote job ID is empty")
	}

	url := a.baseURL + "/v1/videos/" + remoteID + "/content"
	a.logger.Info("fetching artifact content", "url", url, "remote_id", remoteID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/json, */*")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("artifact request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read artifact body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("artifact fetch HTTP %d: %s", resp.StatusCode, readErrorMessage(resp.StatusCode, data))
	}

	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	a.logger.Info("artifact fetched", "remote_id", remoteID, "bytes", len(data), "content_type", contentType)
	return data, contentType, nil
}

// do executes a request and returns the response body, folding any
// transport failure or non-2xx status into an error.
func (a *videosAdapter) do(ctx context.Context, method, url string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	a.logger.Debug("vendor response", "status", resp.StatusCode, "body", truncate(string(data), maxLoggedBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, readErrorMessage(resp.StatusCode, data))
	}

	return data, nil
}

// parseJob normalizes a create/query response body into a snapshot.
func (a *videosAdapter) parseJob(data []byte, fallbackID string) JobSnapshot {
	var payload videosJobPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return failedSnapshot(fallbackID, fmt.Sprintf("malformed response body: %v", err))
	}

	remoteID := payload.ID
	if remoteID == "" {
		remoteID = fallbackID
	}

	status := payload.Status
	if status == "" {
		status = "pending"
	}

	snapshot := JobSnapshot{
		RemoteID: remoteID,
		Status:   mapWireStatus(status),
		Progress: int(payload.Progress),
	}
	if snapshot.Status == JobCompleted {
		snapshot.VideoURL = payload.VideoURL
	}
	if snapshot.Status == JobFailed {
		snapshot.ErrorMessage = payload.Error
		if snapshot.ErrorMessage == "" {
			snapshot.ErrorMessage = "provider reported job as failed"
		}
	}
	return snapshot
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
