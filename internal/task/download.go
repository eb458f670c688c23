package task

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/wanmilin/glin/internal/domain"
	"github.com/wanmilin/glin/internal/provider"
)

// Downloader saves finished video artifacts to local disk. It prefers
// an adapter's direct fetch capability and falls back to streaming the
// artifact URL, since some vendors serve URLs that expire or sit behind
// regional CDNs while their content endpoint stays reachable.
type Downloader struct {
	client *http.Client
	clock  Clock
	logger *slog.Logger
}

// NewDownloader creates a Downloader. A nil client falls back to a
// default with a generous timeout for large artifacts.
func NewDownloader(client *http.Client, clock Clock, logger *slog.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	if clock == nil {
		clock = NewClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{client: client, clock: clock, logger: logger}
}

// Download saves the task's artifact under dir and returns the local
// file path.
func (d *Downloader) Download(ctx context.Context, adapter provider.Adapter, task *domain.VideoTask, dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("no download path configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	logger := d.logger.With("task_id", task.ID, "vendor", adapter.Name())

	if fetcher, ok := adapter.(provider.ArtifactFetcher); ok {
		data, contentType, err := fetcher.FetchArtifact(ctx, task.RemoteJobID)
		if err == nil {
			dest := d.destPath(dir, task, extFromContentType(contentType, task.VideoURL))
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return "", fmt.Errorf("failed to write video file: %w", err)
			}
			logger.Info("downloaded video via content endpoint", "path", dest, "bytes", len(data))
			return dest, nil
		}
		logger.Warn("content endpoint fetch failed, falling back to artifact URL", "error", err)
	}

	if task.VideoURL == "" {
		return "", fmt.Errorf("no artifact URL to download")
	}
	return d.downloadURL(ctx, task, dir, logger)
}

// downloadURL streams the artifact URL to disk without buffering the
// whole body in memory.
func (d *Downloader) downloadURL(ctx context.Context, task *domain.VideoTask, dir string, logger *slog.Logger) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.VideoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download video: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("video download returned HTTP %d", resp.StatusCode)
	}

	dest := d.destPath(dir, task, extFromContentType(resp.Header.Get("Content-Type"), task.VideoURL))
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create video file: %w", err)
	}

	written, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("failed to stream video body: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("failed to finalize video file: %w", closeErr)
	}

	logger.Info("downloaded video via artifact URL", "path", dest, "bytes", written)
	return dest, nil
}

func (d *Downloader) destPath(dir string, task *domain.VideoTask, ext string) string {
	name := fmt.Sprintf("video_%s_%d%s", task.ID, d.clock.Now().Unix(), ext)
	return filepath.Join(dir, name)
}

// extFromContentType picks a file extension from the response content
// type, falling back to the artifact URL's path suffix and finally to
// .mp4.
func extFromContentType(contentType, videoURL string) string {
	ct := strings.ToLower(contentType)
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	switch ct {
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	}

	if u, err := url.Parse(videoURL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".mp4":
			return ".mp4"
		case ".webm":
			return ".webm"
		case ".mov":
			return ".mov"
		}
	}

	return ".mp4"
}
