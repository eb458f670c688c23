package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// defaultXiaobanshouModel is the default model for the xiaobanshou wire.
const defaultXiaobanshouModel = "sora-2-portrait-10s"

// formAdapter implements the xiaobanshou wire format. Unlike the
// /v1/videos JSON wire, this vendor takes multipart/form-data for both
// text-only and image-to-video jobs, and exposes no direct artifact
// retrieval endpoint.
type formAdapter struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewXiaobanshou returns the xiaobanshou vendor adapter.
func NewXiaobanshou(apiKey string, client *http.Client, logger *slog.Logger) Adapter {
	return newFormAdapter(VendorXiaobanshou, apiBaseXiaobanshou, apiKey, client, logger)
}

// NewGuanfangXBS returns the official-API adapter using the
// xiaobanshou wire format.
func NewGuanfangXBS(apiKey string, client *http.Client, logger *slog.Logger) Adapter {
	return newFormAdapter(VendorGuanfang, apiBaseGuanfang, apiKey, client, logger)
}

func newFormAdapter(name, baseURL, apiKey string, client *http.Client, logger *slog.Logger) *formAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &formAdapter{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  defaultHTTPClient(client),
		logger:  logger.With("vendor", name),
	}
}

// Name returns the vendor identifier.
func (a *formAdapter) Name() string {
	return a.name
}

// CreateJob submits a new remote job as a multipart form. The
// input_reference file part is added only when a local image exists.
func (a *formAdapter) CreateJob(ctx context.Context, req CreateRequest) JobSnapshot {
	url := a.baseURL + "/v1/videos"

	imagePath := ""
	if req.ImagePath != "" && fileExists(req.ImagePath) {
		imagePath = req.ImagePath
	}

	form, contentType, err := multipartForm(
		map[string]string{"prompt": req.Prompt, "model": req.Model},
		"input_reference", imagePath,
	)
	if err != nil {
		a.logger.Error("failed to build multipart request", "error", err)
		return failedSnapshot("", err.Error())
	}

	a.logger.Info("creating video job", "url", url, "model", req.Model, "has_image", imagePath != "")

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, form)
	if err != nil {
		return failedSnapshot("", fmt.Sprintf("failed to build request: %v", err))
	}
	request.Header.Set("Authorization", "Bearer "+a.apiKey)
	request.Header.Set("Content-Type", contentType)

	return a.send(request, "")
}

// QueryJob polls an existing remote job.
func (a *formAdapter) QueryJob(ctx context.Context, remoteID string) JobSnapshot {
	remoteID = strings.TrimSpace(remoteID)
	if remoteID == "" {
		return failedSnapshot("", "remote job ID is empty")
	}

	url := a.baseURL + "/v1/videos/" + remoteID
	a.logger.Debug("querying job", "url", url, "remote_id", remoteID)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return failedSnapshot(remoteID, fmt.Sprintf("failed to build request: %v", err))
	}
	request.Header.Set("Authorization", "Bearer "+a.apiKey)

	return a.send(request, remoteID)
}

// send executes the request and normalizes the response.
func (a *formAdapter) send(request *http.Request, fallbackID string) JobSnapshot {
	resp, err := a.client.Do(request)
	if err != nil {
		a.logger.Error("request failed", "error", err)
		return failedSnapshot(fallbackID, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := readAll(resp)
	if err != nil {
		return failedSnapshot(fallbackID, err.Error())
	}

	a.logger.Debug("vendor response", "status", resp.StatusCode, "body", truncate(string(data), maxLoggedBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrorMessage(resp.StatusCode, data)
		a.logger.Error("vendor returned error", "status", resp.StatusCode, "message", msg)
		return failedSnapshot(fallbackID, msg)
	}

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
