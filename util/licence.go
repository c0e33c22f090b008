package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"licence-sync/config"
)

// FetchLicenceTemplate downloads the licence text from sourceURL. No
// credential is sent; the licence host is not GitHub.
func FetchLicenceTemplate(ctx context.Context, sourceURL string, timeout time.Duration) (string, error) {
	operation := fmt.Sprintf("fetch licence template from %s", sourceURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", &NetworkError{Operation: operation, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &APIError{Operation: operation, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Operation: operation, Cause: err}
	}
	return string(body), nil
}

func CopyrightLine(year int, owner string) string {
	return fmt.Sprintf("%d %s", year, owner)
}

// ApplyCopyright fills the Apache placeholder with year and owner. Content
// that already carries the copyright line is returned unchanged.
func ApplyCopyright(content string, year int, owner string) string {
	line := CopyrightLine(year, owner)
	if strings.Contains(content, line) {
		return content
	}
	return strings.ReplaceAll(content, config.CopyrightPlaceholder, line)
}
