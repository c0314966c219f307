package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
	"github.com/tinywideclouds/go-push-bridge/pkg/tokens"
	"github.com/tinywideclouds/go-push-bridge/pushhub"
)

// Registrar is the part of the hub the registration routes drive.
type Registrar interface {
	Register(ctx context.Context) (pushhub.RegistrationResult, error)
	Unregister(ctx context.Context) error
}

type RegistrationAPI struct {
	Hub    Registrar
	Store  tokens.Store
	Logger *slog.Logger
}

func NewRegistrationAPI(hub Registrar, store tokens.Store, logger *slog.Logger) *RegistrationAPI {
	return &RegistrationAPI{
		Hub:    hub,
		Store:  store,
		Logger: logger.With("component", "RegistrationAPI"),
	}
}

// Register runs the native handshake and stores the resulting token for the
// caller.
func (api *RegistrationAPI) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := api.owner(w, r)
	if !ok {
		return
	}

	result, err := api.Hub.Register(ctx)
	if err != nil {
		status, msg := registrationStatus(err)
		api.Logger.Warn("Register: handshake failed", "user", owner, "status", status, "err", err)
		response.WriteJSONError(w, status, msg)
		return
	}

	if err := api.Store.Save(ctx, owner, result); err != nil {
		api.Logger.Error("failed to save registration", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	api.Logger.Info("Register: device registered", "user", owner, "network", result.Network)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// Unregister asks the native layer to drop its registration and forgets every
// stored token for the caller.
func (api *RegistrationAPI) Unregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := api.owner(w, r)
	if !ok {
		return
	}

	if err := api.Hub.Unregister(ctx); err != nil {
		status, msg := registrationStatus(err)
		api.Logger.Warn("Unregister: native unregister failed", "user", owner, "err", err)
		response.WriteJSONError(w, status, msg)
		return
	}

	if err := api.Store.DeleteAll(ctx, owner); err != nil {
		// The device is already unregistered; stale rows only cost a failed send.
		api.Logger.Warn("failed to delete registrations", "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *RegistrationAPI) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := api.owner(w, r)
	if !ok {
		return
	}

	regs, err := api.Store.List(ctx, owner)
	if err != nil {
		api.Logger.Error("failed to list registrations", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(regs)
}

func (api *RegistrationAPI) owner(w http.ResponseWriter, r *http.Request) (urn.URN, bool) {
	var none urn.URN
	userID, ok := middleware.GetUserHandleFromContext(r.Context())
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return none, false
	}
	owner, err := urn.Parse(userID)
	if err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid user identity")
		return none, false
	}
	return owner, true
}

// registrationStatus maps hub failures onto HTTP statuses.
func registrationStatus(err error) (int, string) {
	var nativeErr *pushhub.NativeError
	switch {
	case errors.Is(err, pushhub.ErrConfiguration):
		return http.StatusInternalServerError, "push is not configured"
	case errors.Is(err, pushhub.ErrUnsupportedPlatform):
		return http.StatusBadRequest, "platform not supported"
	case errors.Is(err, pushhub.ErrConcurrentRegistration):
		return http.StatusConflict, "registration already in progress"
	case errors.Is(err, pushhub.ErrTimeout):
		return http.StatusGatewayTimeout, "registration timed out"
	case errors.As(err, &nativeErr):
		return http.StatusBadGateway, "native push error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request abandoned"
	default:
		return http.StatusInternalServerError, "registration failed"
	}
}
