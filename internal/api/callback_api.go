package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	"github.com/tinywideclouds/go-push-bridge/pkg/bridge"
)

const maxCallbackBody = 64 << 10

// Invoker hands a raw native callback to whatever installed it.
type Invoker interface {
	Invoke(ecb string, payload json.RawMessage) error
}

// CallbackAPI is the ingress the native shell posts ecb callbacks to.
type CallbackAPI struct {
	Callbacks Invoker
	Logger    *slog.Logger
}

func NewCallbackAPI(callbacks Invoker, logger *slog.Logger) *CallbackAPI {
	return &CallbackAPI{
		Callbacks: callbacks,
		Logger:    logger.With("component", "CallbackAPI"),
	}
}

// Invoke expects the route to carry the callback name as {ecb}.
func (api *CallbackAPI) Invoke(w http.ResponseWriter, r *http.Request) {
	ecb := r.PathValue("ecb")
	if ecb == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing callback name")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBody))
	if err != nil {
		response.WriteJSONError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	if !json.Valid(body) {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := api.Callbacks.Invoke(ecb, body); err != nil {
		if errors.Is(err, bridge.ErrUnknownCallback) {
			api.Logger.Warn("Callback for unknown ecb", "ecb", ecb)
			response.WriteJSONError(w, http.StatusNotFound, "unknown callback")
			return
		}
		api.Logger.Error("Callback failed", "ecb", ecb, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "callback failed")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
