package shell

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ActivityIndicator drives the shell's network-activity spinner. It must use
// an untracked http.Client or every toggle would toggle it again.
type ActivityIndicator struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewActivityIndicator(baseURL string, logger *slog.Logger) *ActivityIndicator {
	return &ActivityIndicator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Second},
		logger:     logger.With("component", "NativeShell"),
	}
}

func (a *ActivityIndicator) ActivityStart() { a.post("/activity/start") }
func (a *ActivityIndicator) ActivityStop()  { a.post("/activity/stop") }

func (a *ActivityIndicator) post(path string) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, a.baseURL+path, nil)
	if err != nil {
		a.logger.Debug("Activity indicator request failed", "path", path, "err", err)
		return
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Debug("Activity indicator request failed", "path", path, "err", err)
		return
	}
	_ = resp.Body.Close()
}
