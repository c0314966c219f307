package pushhub

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/tinywideclouds/go-push-bridge/pkg/bridge"
)

// DefaultGCMTimeout bounds the wait for the GCM token after the native
// layer acknowledges a registration.
const DefaultGCMTimeout = 15 * time.Second

// Config is read once at construction.
type Config struct {
	// GCMSenderID is required to register on Android and Amazon FireOS.
	GCMSenderID string
	// GCMTimeout defaults to DefaultGCMTimeout when zero.
	GCMTimeout time.Duration
}

// Dependencies are the native capabilities the hub works through.
type Dependencies struct {
	Provider  bridge.PushProvider
	Device    bridge.Device
	Callbacks bridge.CallbackRegistry
	// Sound is optional. Without it sound events are logged and dropped.
	Sound bridge.SoundPlayer
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// Hub is the notification hub. It is safe for concurrent use; native
// callbacks may arrive on any goroutine.
type Hub struct {
	cfg      Config
	provider bridge.PushProvider
	device   bridge.Device
	sound    bridge.SoundPlayer
	clock    clock.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	pending *handshake

	alerts observers[AlertEvent]
	badges observers[BadgeEvent]
	sounds observers[SoundEvent]
	all    observers[Event]
}

// New builds a hub and installs its GCM and APNS entry points in
// deps.Callbacks, replacing whatever was installed under those names.
func New(cfg Config, deps Dependencies, logger *slog.Logger) (*Hub, error) {
	if deps.Provider == nil {
		return nil, errors.New("push provider is required")
	}
	if deps.Device == nil {
		return nil, errors.New("device is required")
	}
	if deps.Callbacks == nil {
		return nil, errors.New("callback registry is required")
	}
	if cfg.GCMTimeout <= 0 {
		cfg.GCMTimeout = DefaultGCMTimeout
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}

	h := &Hub{
		cfg:      cfg,
		provider: deps.Provider,
		device:   deps.Device,
		sound:    deps.Sound,
		clock:    clk,
		logger:   logger.With("component", "NotificationHub"),
	}

	h.badges.add(h.setBadgeCount)
	h.sounds.add(h.playSound)

	deps.Callbacks.Install(bridge.ECBGCM, h.onNotificationGCM)
	deps.Callbacks.Install(bridge.ECBAPNS, h.onNotificationAPNS)

	return h, nil
}

// --- Subscriptions ---

// OnAlert subscribes fn to alert events. The returned func unsubscribes.
func (h *Hub) OnAlert(fn func(AlertEvent)) func() { return h.alerts.add(fn) }

// OnBadge subscribes fn to badge events.
func (h *Hub) OnBadge(fn func(BadgeEvent)) func() { return h.badges.add(fn) }

// OnSound subscribes fn to sound events.
func (h *Hub) OnSound(fn func(SoundEvent)) func() { return h.sounds.add(fn) }

// Subscribe receives every event, after the kind-specific subscribers.
func (h *Hub) Subscribe(fn func(Event)) func() { return h.all.add(fn) }

// --- Native entry points ---

func (h *Hub) onNotificationGCM(raw json.RawMessage) {
	var p GCMPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Unable to decode GCM callback payload", "err", err)
		return
	}
	h.DeliverGCM(p)
}

func (h *Hub) onNotificationAPNS(raw json.RawMessage) {
	var p APNSPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Unable to decode APNS callback payload", "err", err)
		return
	}
	h.DeliverAPNS(p)
}

// DeliverGCM handles a decoded onNotificationGCM callback.
func (h *Hub) DeliverGCM(p GCMPayload) {
	if p.Event == "registered" {
		h.handleRegistered(p.RegID)
		return
	}
	if p.Event == "message" && !p.Foreground {
		// Cold start and background resume are not handled.
		h.logger.Debug("Ignoring GCM message received outside the foreground", "coldstart", p.Coldstart)
		return
	}

	events, err := NormalizeGCM(p)
	if errors.Is(err, ErrUnrecognizedEvent) {
		h.logger.Error("Unable to handle event type from GCM", "event", p.Event)
		return
	}
	if err != nil {
		h.logger.Warn("Dropped malformed GCM message fields", "err", err)
	}
	h.dispatch(events)
}

// DeliverAPNS handles a decoded onNotificationAPNS callback.
func (h *Hub) DeliverAPNS(p APNSPayload) {
	events, err := NormalizeAPNS(p)
	if err != nil {
		h.logger.Warn("Dropped malformed APNS notification fields", "err", err)
	}
	h.dispatch(events)
}

func (h *Hub) dispatch(events []Event) {
	for _, e := range events {
		switch ev := e.(type) {
		case AlertEvent:
			notify(h, &h.alerts, ev)
		case BadgeEvent:
			notify(h, &h.badges, ev)
		case SoundEvent:
			notify(h, &h.sounds, ev)
		}
		notify(h, &h.all, e)
	}
}

// notify calls every subscriber in order. A panicking subscriber is logged
// and does not stop delivery to the rest.
func notify[E any](h *Hub, o *observers[E], e E) {
	for _, obs := range o.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					h.logger.Error("Notification subscriber panicked", "event", fmt.Sprintf("%T", e), "panic", r)
				}
			}()
			obs.fn(e)
		}()
	}
}

// --- Reactions ---

func (h *Hub) setBadgeCount(e BadgeEvent) {
	h.provider.SetBadgeCount(e.Count,
		func() {
			h.logger.Debug("Badge updated", "count", e.Count)
		},
		func(payload any) {
			h.logger.Error("Failed to set badge", "count", e.Count, "err", payload)
		},
	)
}

func (h *Hub) playSound(e SoundEvent) {
	if h.sound == nil {
		h.logger.Warn("Unable to play sound. Media player not available.", "filename", e.Filename)
		return
	}
	h.sound.Play(e.Filename)
}
