package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// The yunwu video API lives on a fixed host, separate from the image
// hosting endpoint used for the pre-upload step.
const (
	yunwuVideoBase     = "https://yunwu.ai"
	yunwuImageHostBase = "https://imageproxy.zhongzhuan.chat/api/upload"
)

// Yunwu model and parameter defaults.
const (
	yunwuModelText     = "sora-2"
	yunwuModelImage    = "sora-2-all"
	defaultOrientation = "portrait"
	defaultDuration    = 10
)

// yunwuAdapter implements the yunwu wire format. A local input image is
// first uploaded to an image-hosting endpoint; the returned URL is then
// referenced in a JSON create call. Orientation and duration are
// explicit request parameters instead of being baked into a model
// identifier. No direct artifact retrieval exists.
type yunwuAdapter struct {
	apiKey     string
	videoBase  string
	uploadBase string
	client     *http.Client
	logger     *slog.Logger
}

// NewYunwu returns the yunwu vendor adapter.
func NewYunwu(apiKey string, client *http.Client, logger *slog.Logger) Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &yunwuAdapter{
		apiKey:     apiKey,
		videoBase:  yunwuVideoBase,
		uploadBase: yunwuImageHostBase,
		client:     defaultHTTPClient(client),
		logger:     logger.With("vendor", VendorYunwu),
	}
}

// Name returns the vendor identifier.
func (a *yunwuAdapter) Name() string {
	return VendorYunwu
}

// CreateJob submits a new remote job. When the request carries a local
// image, the image is uploaded to the image host first and the job is
// created in image-to-video mode.
func (a *yunwuAdapter) CreateJob(ctx context.Context, req CreateRequest) JobSnapshot {
	var images []string
	if req.ImagePath != "" {
		if !fileExists(req.ImagePath) {
			return failedSnapshot("", fmt.Sprintf("input image does not exist: %s", req.ImagePath))
		}
		imageURL, err := a.uploadImage(ctx, req.ImagePath)
		if err != nil {
			a.logger.Error("image host upload failed", "error", err)
			return failedSnapshot("", fmt.Sprintf("image upload failed: %v", err))
		}
		images = append(images, imageURL)
	}

	model := yunwuModelText
	if len(images) > 0 {
		model = yunwuModelImage
	}
	orientation := req.Orientation
	if orientation == "" {
		orientation = defaultOrientation
	}
	duration := req.Duration
	if duration <= 0 {
		duration = defaultDuration
	}

	payload := map[string]any{
		"images":      images,
		"model":       model,
		"orientation": orientation,
		"prompt":      req.Prompt,
		"size":        "large",
		"duration":    duration,
		"watermark":   false,
		"private":     true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return failedSnapshot("", err.Error())
	}

	createURL := a.videoBase + "/v1/video/create"
	a.logger.Info("creating video job",
		"url", createURL,
		"model", model,
		"orientation", orientation,
		"duration", duration,
		"has_image", len(images) > 0)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, createURL, bytes.NewReader(body))
	if err != nil {
		return failedSnapshot("", fmt.Sprintf("failed to build request: %v", err))
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Authorization", "Bearer "+a.apiKey)

	return a.send(request, "")
}

// QueryJob polls an existing remote job.
func (a *yunwuAdapter) QueryJob(ctx context.Context, remoteID string) JobSnapshot {
	remoteID = strings.TrimSpace(remoteID)
	if remoteID == "" {
		return failedSnapshot("", "remote job ID is empty")
	}

	queryURL := a.videoBase + "/v1/video/query?id=" + url.QueryEscape(remoteID)
	a.logger.Debug("querying job", "url", queryURL, "remote_id", remoteID)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return failedSnapshot(remoteID, fmt.Sprintf("failed to build request: %v", err))
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Authorization", "Bearer "+a.apiKey)

	return a.send(request, remoteID)
}

// uploadImage pushes a local file to the image-hosting endpoint and
// returns the public URL the create call references.
func (a *yunwuAdapter) uploadImage(ctx context.Context, imagePath string) (string, error) {
	form, contentType, err := multipartForm(nil, "file", imagePath)
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, a.uploadBase, form)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+a.apiKey)
	request.Header.Set("Content-Type", contentType)

	a.logger.Info("uploading input image to image host", "image", imagePath)

	resp, err := a.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := readAll(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload HTTP %d: %s", resp.StatusCode, readErrorMessage(resp.StatusCode, data))
	}

	// The image host has returned the URL under several shapes over
	// time: {"data":{"url":...}}, {"url":...}, and {"data":"..."}.
	var payload struct {
		URL  string          `json:"url"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("malformed upload response: %w", err)
	}
	if len(payload.Data) > 0 {
		var nested struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(payload.Data, &nested); err == nil && nested.URL != "" {
			return nested.URL, nil
		}
		var plain string
		if err := json.Unmarshal(payload.Data, &plain); err == nil && plain != "" {
			return plain, nil
		}
	}
	if payload.URL != "" {
		return payload.URL, nil
	}

	return "", fmt.Errorf("upload response carried no URL: %s", truncate(string(data), maxLoggedBody))
}

// yunwuJobPayload is the vendor response shape for create and query.
type yunwuJobPayload struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	VideoURL string `json:"video_url"`
	Error    string `json:"error"`
}

// send executes the request and normalizes the response.
func (a *yunwuAdapter) send(request *http.Request, fallbackID string) JobSnapshot {
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

	var payload yunwuJobPayload
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
