// Package bridge contains the contracts between the hub and the native layer
// that hosts it.
//
// Native capabilities are callback based: every operation reports its outcome
// by invoking exactly one of the supplied callbacks, possibly synchronously
// from inside the call and possibly later from another goroutine.
package bridge

import "encoding/json"

// ECB names are the callback entry points the native layer is told to invoke.
const (
	ECBGCM  = "onNotificationGCM"
	ECBAPNS = "onNotificationAPNS"
)

// GCMRegisterOptions is sent to PushProvider.Register on Android and Amazon FireOS.
type GCMRegisterOptions struct {
	SenderID string `json:"senderId"`
	ECB      string `json:"ecb"`
}

// APNSRegisterOptions is sent to PushProvider.Register on iOS.
type APNSRegisterOptions struct {
	Badge bool   `json:"badge"`
	Sound bool   `json:"sound"`
	Alert bool   `json:"alert"`
	ECB   string `json:"ecb"`
}

// RegisterOptions is one of GCMRegisterOptions or APNSRegisterOptions.
type RegisterOptions interface {
	EventCallback() string
}

func (o GCMRegisterOptions) EventCallback() string  { return o.ECB }
func (o APNSRegisterOptions) EventCallback() string { return o.ECB }

// PushProvider is the native push plugin.
//
// Error payloads are whatever the native layer reports and are forwarded
// without interpretation.
type PushProvider interface {
	// Register starts a device registration. On the GCM path onSuccess carries
	// no token (it arrives later on the ecb channel); on APNS it carries the
	// device token.
	Register(opts RegisterOptions, onSuccess func(token string), onError func(payload any))
	Unregister(onSuccess func(), onError func(payload any))
	SetBadgeCount(count int, onSuccess func(), onError func(payload any))
}

// SoundPlayer plays a media file.
type SoundPlayer interface {
	Play(filename string)
}

// Device describes the host device.
type Device interface {
	// Platform is the platform string reported by the device, e.g. "Android" or "iOS".
	Platform() string
}

// CallbackFunc receives a raw native callback payload.
type CallbackFunc func(payload json.RawMessage)

// CallbackRegistry lets the hub expose named callback entry points to the
// native layer. Installing a name twice replaces the earlier handler.
type CallbackRegistry interface {
	Install(ecb string, fn CallbackFunc)
}

// MissingCapabilityReporter is invoked when an expected native capability is
// absent. name is the human readable plugin name and source tells the
// developer where to obtain it.
type MissingCapabilityReporter func(name, source string)
