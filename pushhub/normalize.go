package pushhub

import (
	"errors"
	"fmt"
)

// AndroidAssetPrefix is where GCM sound names are resolved on the device.
const AndroidAssetPrefix = "/android_asset/www/"

// NormalizeGCM turns a GCM message callback into events. Registration
// callbacks are not events and yield nothing here.
//
// Only foreground messages are handled. Messages that cold-started the app or
// resumed it from the background yield nothing.
//
// Events that can be built are returned even when err is non-nil.
func NormalizeGCM(p GCMPayload) ([]Event, error) {
	switch p.Event {
	case "registered":
		return nil, nil
	case "message":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedEvent, p.Event)
	}

	if !p.Foreground {
		return nil, nil
	}

	var events []Event
	var errs []error

	// Android sends soundname beside the payload, Amazon FireOS inside it.
	soundfile := p.SoundName
	if soundfile == "" {
		soundfile = p.Payload.Sound
	}
	if soundfile != "" {
		events = append(events, SoundEvent{Filename: AndroidAssetPrefix + soundfile})
	}
	if p.Payload.Message != "" {
		events = append(events, AlertEvent{Message: p.Payload.Message})
	}
	if p.Payload.MsgCnt != nil {
		n, err := p.Payload.MsgCnt.Int()
		if err != nil {
			errs = append(errs, fmt.Errorf("msgcnt: %w", err))
		} else {
			events = append(events, BadgeEvent{Count: n})
		}
	}
	return events, errors.Join(errs...)
}

// NormalizeAPNS turns an APNS callback into events. Sound names are used as
// sent.
func NormalizeAPNS(p APNSPayload) ([]Event, error) {
	var events []Event
	var errs []error

	if p.Alert != "" {
		events = append(events, AlertEvent{Message: p.Alert})
	}
	if p.Sound != "" {
		events = append(events, SoundEvent{Filename: p.Sound})
	}
	if p.Badge != nil {
		n, err := p.Badge.Int()
		if err != nil {
			errs = append(errs, fmt.Errorf("badge: %w", err))
		} else {
			events = append(events, BadgeEvent{Count: n})
		}
	}
	return events, errors.Join(errs...)
}
