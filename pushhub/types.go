// Package pushhub bridges the two native push back ends (GCM on Android and
// Amazon FireOS, APNS on iOS) into one registration call and one typed event
// stream.
package pushhub

import (
	"fmt"
	"strconv"
	"strings"
)

// Network identifies the push back end a token belongs to.
type Network string

const (
	NetworkGCM  Network = "gcm"
	NetworkAPNS Network = "apns"
)

// RegistrationResult is produced once per successful registration. The hub
// does not keep it; storing it is up to the caller.
type RegistrationResult struct {
	Network Network `json:"network" firestore:"network"`
	Token   string  `json:"token" firestore:"token"`
}

// Platform is the device platform as far as push registration is concerned.
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformAndroid
	PlatformAmazonFireOS
	PlatformIOS
)

// ParsePlatform maps the platform string reported by the device.
func ParsePlatform(s string) Platform {
	switch strings.ToLower(s) {
	case "android":
		return PlatformAndroid
	case "amazon-fireos":
		return PlatformAmazonFireOS
	case "ios":
		return PlatformIOS
	default:
		return PlatformUnknown
	}
}

func (p Platform) String() string {
	switch p {
	case PlatformAndroid:
		return "android"
	case PlatformAmazonFireOS:
		return "amazon-fireos"
	case PlatformIOS:
		return "ios"
	default:
		return "unknown"
	}
}

// Count is a badge counter as native plugins send it: a JSON number or a
// numeric string.
type Count struct {
	raw string
}

// NewCount returns a Count holding n.
func NewCount(n int) *Count {
	return &Count{raw: strconv.Itoa(n)}
}

func (c *Count) UnmarshalJSON(b []byte) error {
	c.raw = strings.Trim(strings.TrimSpace(string(b)), `"`)
	return nil
}

func (c Count) MarshalJSON() ([]byte, error) {
	if _, err := strconv.Atoi(c.raw); err == nil {
		return []byte(c.raw), nil
	}
	return []byte(strconv.Quote(c.raw)), nil
}

// Int returns the counter value. Negative and non-numeric values are errors.
func (c *Count) Int() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(c.raw))
	if err != nil {
		return 0, fmt.Errorf("invalid badge count %q", c.raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative badge count %d", n)
	}
	return n, nil
}

// GCMPayload is what the native layer passes to the onNotificationGCM entry point.
type GCMPayload struct {
	Event      string     `json:"event"`
	RegID      string     `json:"regid,omitempty"`
	Foreground bool       `json:"foreground,omitempty"`
	Coldstart  bool       `json:"coldstart,omitempty"`
	SoundName  string     `json:"soundname,omitempty"`
	Payload    GCMMessage `json:"payload"`
}

// GCMMessage is the inner payload of a GCM message event. On Amazon FireOS
// every custom attribute, sound included, lives here.
type GCMMessage struct {
	Message string `json:"message,omitempty"`
	Sound   string `json:"sound,omitempty"`
	MsgCnt  *Count `json:"msgcnt,omitempty"`
}

// APNSPayload is what the native layer passes to the onNotificationAPNS entry
// point. Every field is optional.
type APNSPayload struct {
	Alert string `json:"alert,omitempty"`
	Sound string `json:"sound,omitempty"`
	Badge *Count `json:"badge,omitempty"`
}
