package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-push-bridge/pkg/bridge"
)

// Invoker hands a raw native callback to whatever installed it.
type Invoker interface {
	Invoke(ecb string, payload json.RawMessage) error
}

// NewRelayProcessor invokes each envelope on the registry. Envelopes for names
// nothing has installed are logged and acknowledged; redelivery cannot fix them.
func NewRelayProcessor(callbacks Invoker, logger *slog.Logger) messagepipeline.StreamProcessor[CallbackEnvelope] {
	logger = logger.With("component", "CallbackRelay")

	return func(ctx context.Context, original messagepipeline.Message, env *CallbackEnvelope) error {
		msgID := original.ID
		if msgID == "" {
			msgID = uuid.NewString()
		}
		procLogger := logger.With("ecb", env.ECB, "pubsub_msg_id", msgID)

		if err := callbacks.Invoke(env.ECB, env.Payload); err != nil {
			if errors.Is(err, bridge.ErrUnknownCallback) {
				procLogger.Warn("Dropping callback for unknown ecb")
				return nil
			}
			procLogger.Error("Callback relay failed", "err", err)
			return err
		}

		procLogger.Debug("Callback relayed")
		return nil
	}
}
