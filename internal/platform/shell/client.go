// Package shell talks to the native shell's local bridge over HTTP. It
// provides the push plugin, the media player and the device description the
// hub depends on.
package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tinywideclouds/go-push-bridge/pkg/bridge"
)

const defaultRequestTimeout = 10 * time.Second

// Client implements bridge.PushProvider, bridge.SoundPlayer and bridge.Device.
//
// Push operations run on their own goroutine and report through the supplied
// callbacks, the same way the native plugin does.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	platform   string
}

// NewClient fetches the device description once and returns a ready client.
// httpClient may be nil.
func NewClient(ctx context.Context, baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With("component", "NativeShell"),
	}

	var device deviceResponse
	if err := c.do(ctx, http.MethodGet, "/device", nil, &device); err != nil {
		return nil, fmt.Errorf("failed to describe device: %w", err)
	}
	c.platform = device.Platform
	c.logger.Info("Native shell connected", "url", c.baseURL, "platform", c.platform)
	return c, nil
}

type deviceResponse struct {
	Platform string `json:"platform"`
}

type registerResponse struct {
	Token string `json:"token"`
}

type badgeRequest struct {
	Count int `json:"count"`
}

type playRequest struct {
	Src string `json:"src"`
}

func (c *Client) Platform() string {
	return c.platform
}

func (c *Client) Register(opts bridge.RegisterOptions, onSuccess func(token string), onError func(payload any)) {
	go func() {
		var resp registerResponse
		if err := c.do(context.Background(), http.MethodPost, "/push/register", opts, &resp); err != nil {
			onError(nativePayload(err))
			return
		}
		onSuccess(resp.Token)
	}()
}

func (c *Client) Unregister(onSuccess func(), onError func(payload any)) {
	go func() {
		if err := c.do(context.Background(), http.MethodPost, "/push/unregister", nil, nil); err != nil {
			onError(nativePayload(err))
			return
		}
		onSuccess()
	}()
}

func (c *Client) SetBadgeCount(count int, onSuccess func(), onError func(payload any)) {
	go func() {
		if err := c.do(context.Background(), http.MethodPost, "/push/badge", badgeRequest{Count: count}, nil); err != nil {
			onError(nativePayload(err))
			return
		}
		onSuccess()
	}()
}

// Play is fire and forget; failures are only logged.
func (c *Client) Play(filename string) {
	go func() {
		if err := c.do(context.Background(), http.MethodPost, "/media/play", playRequest{Src: filename}, nil); err != nil {
			c.logger.Warn("Failed to play sound", "file", filename, "err", err)
		}
	}()
}

// StatusError is returned when the shell answers with a non-2xx status.
// Body holds the decoded JSON error body, or the raw text if it was not JSON.
type StatusError struct {
	StatusCode int
	Body       any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("native shell returned status %d: %v", e.StatusCode, e.Body)
}

// nativePayload unwraps a shell rejection to the payload the shell sent, so
// callers see the native error verbatim. Transport failures pass through.
func nativePayload(err error) any {
	var se *StatusError
	if errors.As(err, &se) && se.Body != nil {
		return se.Body
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode}
		if len(raw) > 0 {
			var decoded any
			if json.Unmarshal(raw, &decoded) == nil {
				se.Body = decoded
			} else {
				se.Body = string(raw)
			}
		}
		return se
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
