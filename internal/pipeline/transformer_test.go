package pipeline_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-push-bridge/internal/pipeline"
)

func TestCallbackEnvelopeTransformer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	testCases := []struct {
		name                  string
		payload               string
		expectError           bool
		expectedErrorContains string
	}{
		{
			name:    "Happy Path - GCM callback",
			payload: `{"ecb":"onNotificationGCM","payload":{"event":"registered","regid":"abc"}}`,
		},
		{
			name:                  "Failure - Malformed JSON",
			payload:               "not-json",
			expectError:           true,
			expectedErrorContains: "failed to unmarshal callback envelope",
		},
		{
			name:                  "Failure - Missing ecb",
			payload:               `{"payload":{"alert":"hi"}}`,
			expectError:           true,
			expectedErrorContains: "has no ecb",
		},
		{
			name:                  "Failure - Null payload",
			payload:               `{"ecb":"onNotificationAPNS","payload":null}`,
			expectError:           true,
			expectedErrorContains: "has no payload",
		},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := &messagepipeline.Message{
				MessageData: messagepipeline.MessageData{ID: fmt.Sprintf("msg-%d", i+1), Payload: []byte(tc.payload)},
			}
			env, skip, err := pipeline.CallbackEnvelopeTransformer(ctx, msg)

			if tc.expectError {
				require.Error(t, err)
				assert.True(t, skip)
				assert.Contains(t, err.Error(), tc.expectedErrorContains)
				return
			}
			require.NoError(t, err)
			assert.False(t, skip)
			assert.Equal(t, "onNotificationGCM", env.ECB)
			assert.JSONEq(t, `{"event":"registered","regid":"abc"}`, string(env.Payload))
		})
	}
}
