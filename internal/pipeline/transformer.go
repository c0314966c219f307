// Package pipeline relays native callbacks that arrive over Pub/Sub into the
// in-process callback registry.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
)

// CallbackEnvelope is one native callback as published by the shell.
type CallbackEnvelope struct {
	ECB     string          `json:"ecb"`
	Payload json.RawMessage `json:"payload"`
}

// CallbackEnvelopeTransformer decodes a message payload into a
// CallbackEnvelope. Malformed envelopes are skipped so the consumer can
// dead-letter them.
func CallbackEnvelopeTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*CallbackEnvelope, bool, error) {
	var env CallbackEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal callback envelope from message %s: %w", msg.ID, err)
	}
	if env.ECB == "" {
		return nil, true, fmt.Errorf("callback envelope in message %s has no ecb", msg.ID)
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil, true, fmt.Errorf("callback envelope in message %s has no payload", msg.ID)
	}
	return &env, false, nil
}
