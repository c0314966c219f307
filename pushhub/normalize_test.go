package pushhub_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-push-bridge/pushhub"
)

func decodeGCM(t *testing.T, raw string) pushhub.GCMPayload {
	t.Helper()
	var p pushhub.GCMPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestNormalizeGCM(t *testing.T) {
	testCases := []struct {
		name        string
		payload     string
		expected    []pushhub.Event
		expectError error
	}{
		{
			name:    "Foreground with every field",
			payload: `{"event":"message","foreground":true,"soundname":"somesound.aiff","payload":{"message":"This is a message","msgcnt":5}}`,
			expected: []pushhub.Event{
				pushhub.SoundEvent{Filename: "/android_asset/www/somesound.aiff"},
				pushhub.AlertEvent{Message: "This is a message"},
				pushhub.BadgeEvent{Count: 5},
			},
		},
		{
			name:    "Soundname outside payload wins",
			payload: `{"event":"message","foreground":true,"soundname":"outer.mp3","payload":{"sound":"inner.mp3"}}`,
			expected: []pushhub.Event{
				pushhub.SoundEvent{Filename: "/android_asset/www/outer.mp3"},
			},
		},
		{
			name:     "Numeric string count",
			payload:  `{"event":"message","foreground":true,"payload":{"msgcnt":"4"}}`,
			expected: []pushhub.Event{pushhub.BadgeEvent{Count: 4}},
		},
		{
			name:     "Zero count clears the badge",
			payload:  `{"event":"message","foreground":true,"payload":{"msgcnt":0}}`,
			expected: []pushhub.Event{pushhub.BadgeEvent{Count: 0}},
		},
		{
			name:     "Bad count keeps the other events",
			payload:  `{"event":"message","foreground":true,"payload":{"message":"hi","msgcnt":"lots"}}`,
			expected: []pushhub.Event{pushhub.AlertEvent{Message: "hi"}},
		},
		{
			name:    "Registered is not an event",
			payload: `{"event":"registered","regid":"abc"}`,
		},
		{
			name:    "Cold start is not handled",
			payload: `{"event":"message","coldstart":true,"payload":{"message":"hi"}}`,
		},
		{
			name:        "Unknown event",
			payload:     `{"event":"error","msg":"SERVICE_NOT_AVAILABLE"}`,
			expectError: pushhub.ErrUnrecognizedEvent,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			events, err := pushhub.NormalizeGCM(decodeGCM(t, tc.payload))
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
			}
			assert.Equal(t, tc.expected, events)
		})
	}

	t.Run("Bad count is reported", func(t *testing.T) {
		_, err := pushhub.NormalizeGCM(decodeGCM(t, `{"event":"message","foreground":true,"payload":{"msgcnt":-2}}`))
		assert.ErrorContains(t, err, "negative badge count")
	})
}

func TestNormalizeAPNS(t *testing.T) {
	t.Run("Sound is not prefixed", func(t *testing.T) {
		events, err := pushhub.NormalizeAPNS(pushhub.APNSPayload{
			Sound: "x.mp3",
			Alert: "hi",
			Badge: pushhub.NewCount(3),
		})
		require.NoError(t, err)
		assert.Equal(t, []pushhub.Event{
			pushhub.AlertEvent{Message: "hi"},
			pushhub.SoundEvent{Filename: "x.mp3"},
			pushhub.BadgeEvent{Count: 3},
		}, events)
	})

	t.Run("Empty payload yields nothing", func(t *testing.T) {
		events, err := pushhub.NormalizeAPNS(pushhub.APNSPayload{})
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestParsePlatform(t *testing.T) {
	assert.Equal(t, pushhub.PlatformAndroid, pushhub.ParsePlatform("Android"))
	assert.Equal(t, pushhub.PlatformAmazonFireOS, pushhub.ParsePlatform("Amazon-FireOS"))
	assert.Equal(t, pushhub.PlatformIOS, pushhub.ParsePlatform("iOS"))
	assert.Equal(t, pushhub.PlatformUnknown, pushhub.ParsePlatform("windows"))
	assert.Equal(t, "amazon-fireos", pushhub.PlatformAmazonFireOS.String())
}
