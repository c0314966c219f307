// Package activity drives the native network-activity indicator from a count
// of in-flight requests.
package activity

import (
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/tinywideclouds/go-push-bridge/pkg/bridge"
)

const (
	PluginName   = "NetworkActivity"
	PluginSource = "com.wearecocoon.cordova.plugin.networkactivity"
)

// Indicator is the native activity indicator.
type Indicator interface {
	ActivityStart()
	ActivityStop()
}

// Tracker counts in-flight requests. Every change of the count shows the
// indicator while the count is positive and hides it at zero.
type Tracker struct {
	mu        sync.Mutex
	pending   int
	indicator Indicator
	report    bridge.MissingCapabilityReporter
	reported  bool
	logger    *slog.Logger
}

// NewTracker builds a tracker. indicator may be nil, in which case the
// missing plugin is reported on the first change and nothing is shown.
func NewTracker(indicator Indicator, report bridge.MissingCapabilityReporter, logger *slog.Logger) *Tracker {
	logger = logger.With("component", "NetworkActivity")
	if report == nil {
		report = bridge.LogMissingCapability(logger)
	}
	return &Tracker{indicator: indicator, report: report, logger: logger}
}

// Begin marks a request as started. The returned func marks it finished and
// is safe to call more than once.
func (t *Tracker) Begin() (done func()) {
	t.change(1)
	var once sync.Once
	return func() { once.Do(func() { t.change(-1) }) }
}

// Pending returns the number of in-flight requests.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

func (t *Tracker) change(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending += delta

	if t.indicator == nil {
		if !t.reported {
			t.reported = true
			t.report(PluginName, PluginSource)
		}
		return
	}
	if t.pending > 0 {
		t.indicator.ActivityStart()
	} else {
		t.indicator.ActivityStop()
	}
}

// Transport wraps base so every request is tracked until its response body is
// closed or the round trip fails. A nil base means http.DefaultTransport.
func (t *Tracker) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base, tracker: t}
}

type transport struct {
	base    http.RoundTripper
	tracker *Tracker
}

func (rt *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	done := rt.tracker.Begin()
	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		done()
		return nil, err
	}
	if resp.Body == nil {
		done()
		return resp, nil
	}
	resp.Body = &trackedBody{ReadCloser: resp.Body, done: done}
	return resp, nil
}

type trackedBody struct {
	io.ReadCloser
	done func()
}

func (b *trackedBody) Close() error {
	err := b.ReadCloser.Close()
	b.done()
	return err
}
