package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/wanmilin/glin/internal/redact"
)

// maxLoggedBody caps response excerpts in logs and error messages.
const maxLoggedBody = 500

// readAll drains a response body, wrapping read failures.
func readAll(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// truncate shortens s for log lines and error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// readErrorMessage extracts a human-readable message from a vendor
// error response. Vendors disagree on the field name, so message,
// error, and msg are all tried before falling back to the raw body.
// The result is redacted; some vendors echo the Authorization header
// back in error bodies.
func readErrorMessage(statusCode int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "error", "msg"} {
			if v, ok := payload[key].(string); ok && v != "" {
				return redact.String(v)
			}
		}
	}
	if len(body) > 0 {
		return redact.String(truncate(string(body), maxLoggedBody))
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}

// multipartForm builds a multipart/form-data body with the given text
// fields and, when filePath is non-empty, the file streamed into
// fileField. Returns the encoded body and its content type.
func multipartForm(fields map[string]string, fileField, filePath string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %q: %w", key, err)
		}
	}

	if filePath != "" {
		file, err := os.Open(filePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open input file: %w", err)
		}
		defer func() { _ = file.Close() }()

		part, err := writer.CreateFormFile(fileField, filepath.Base(filePath))
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, "", fmt.Errorf("failed to copy input file: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
