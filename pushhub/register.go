package pushhub

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookgo/clock"
	"github.com/tinywideclouds/go-push-bridge/pkg/bridge"
	"github.com/tinywideclouds/go-push-bridge/pkg/future"
)

// handshake is one in-flight registration.
//
// GCM:  waiting for native ack -> (ack) waiting for token -> resolved | timed out
// APNS: waiting for native ack -> resolved
// Either path fails on the native error callback.
type handshake struct {
	network Network
	result  *future.Future[RegistrationResult]
	timer   *clock.Timer
}

// Register registers the device for push notifications and waits for the
// outcome. Cancelling ctx abandons the wait but not the registration.
func (h *Hub) Register(ctx context.Context) (RegistrationResult, error) {
	return h.RegisterAsync().Wait(ctx)
}

// RegisterAsync starts a registration. The returned future settles exactly
// once, with the token or with one of ErrConfiguration, ErrUnsupportedPlatform,
// ErrTimeout, ErrConcurrentRegistration or a *NativeError.
func (h *Hub) RegisterAsync() *future.Future[RegistrationResult] {
	raw := h.device.Platform()
	platform := ParsePlatform(raw)

	switch platform {
	case PlatformAndroid, PlatformAmazonFireOS:
		if h.cfg.GCMSenderID == "" {
			return future.Rejected[RegistrationResult](fmt.Errorf("%w: GCM Sender ID required", ErrConfiguration))
		}
		hs, err := h.begin(NetworkGCM)
		if err != nil {
			return future.Rejected[RegistrationResult](err)
		}
		h.logger.Info("Attempting registration with GCM", "platform", platform.String())
		h.provider.Register(
			bridge.GCMRegisterOptions{SenderID: h.cfg.GCMSenderID, ECB: bridge.ECBGCM},
			func(string) { h.armTimeout(hs) },
			func(payload any) { h.fail(hs, &NativeError{Op: "register", Payload: payload}) },
		)
		return hs.result

	case PlatformIOS:
		hs, err := h.begin(NetworkAPNS)
		if err != nil {
			return future.Rejected[RegistrationResult](err)
		}
		h.logger.Info("Attempting registration with APNS")
		h.provider.Register(
			bridge.APNSRegisterOptions{Badge: true, Sound: true, Alert: true, ECB: bridge.ECBAPNS},
			func(token string) { h.resolve(hs, RegistrationResult{Network: NetworkAPNS, Token: token}) },
			func(payload any) { h.fail(hs, &NativeError{Op: "register", Payload: payload}) },
		)
		return hs.result

	default:
		return future.Rejected[RegistrationResult](fmt.Errorf("%w: %q", ErrUnsupportedPlatform, raw))
	}
}

// Unregister asks the native layer to drop the registration and waits for
// its answer. There is no timeout.
func (h *Hub) Unregister(ctx context.Context) error {
	_, err := h.UnregisterAsync().Wait(ctx)
	return err
}

// UnregisterAsync delegates to the native layer. A failure carries the native
// payload in a *NativeError.
func (h *Hub) UnregisterAsync() *future.Future[struct{}] {
	f := future.New[struct{}]()
	h.provider.Unregister(
		func() { f.Resolve(struct{}{}) },
		func(payload any) { f.Reject(&NativeError{Op: "unregister", Payload: payload}) },
	)
	return f
}

// Pending reports whether a registration is in flight.
func (h *Hub) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending != nil
}

func (h *Hub) begin(network Network) (*handshake, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending != nil {
		return nil, fmt.Errorf("%w: %s handshake still pending", ErrConcurrentRegistration, h.pending.network)
	}
	hs := &handshake{network: network, result: future.New[RegistrationResult]()}
	h.pending = hs
	return hs, nil
}

// armTimeout runs on the GCM native ack. The token may already have arrived,
// in which case there is nothing to arm.
func (h *Hub) armTimeout(hs *handshake) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending != hs || hs.timer != nil {
		return
	}
	timeout := h.cfg.GCMTimeout
	hs.timer = h.clock.AfterFunc(timeout, func() { h.expire(hs, timeout) })
}

func (h *Hub) expire(hs *handshake, timeout time.Duration) {
	h.mu.Lock()
	if h.pending != hs {
		h.mu.Unlock()
		return
	}
	h.pending = nil
	hs.timer = nil
	h.mu.Unlock()

	if hs.result.Reject(fmt.Errorf("%w: no GCM registration event within %s", ErrTimeout, timeout)) {
		h.logger.Warn("Timed out while registering for GCM", "timeout", timeout)
	}
}

func (h *Hub) handleRegistered(regid string) {
	if regid == "" {
		h.logger.Debug("Ignoring GCM registered event without regid")
		return
	}
	h.mu.Lock()
	hs := h.pending
	h.mu.Unlock()
	if hs == nil || hs.network != NetworkGCM {
		h.logger.Info("Received regid from GCM with no registration pending", "regid", regid)
		return
	}
	h.logger.Info("Received regid from GCM", "regid", regid)
	h.resolve(hs, RegistrationResult{Network: NetworkGCM, Token: regid})
}

func (h *Hub) resolve(hs *handshake, res RegistrationResult) {
	h.finish(hs)
	if hs.result.Resolve(res) {
		h.logger.Info("Registered for push notifications", "network", res.Network)
	}
}

func (h *Hub) fail(hs *handshake, err error) {
	h.finish(hs)
	if hs.result.Reject(err) {
		h.logger.Error("Push registration failed", "network", hs.network, "err", err)
	}
}

// finish clears the pending slot and disarms the timer. Safe to call more
// than once.
func (h *Hub) finish(hs *handshake) {
	h.mu.Lock()
	if h.pending == hs {
		h.pending = nil
	}
	t := hs.timer
	hs.timer = nil
	h.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}
