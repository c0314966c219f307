// Package pushbridge assembles the bridge daemon: the HTTP surface around a
// pushhub.Hub and the optional Pub/Sub relay of native callbacks.
package pushbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-push-bridge/internal/api"
	"github.com/tinywideclouds/go-push-bridge/internal/pipeline"
	"github.com/tinywideclouds/go-push-bridge/pkg/bridge"
	"github.com/tinywideclouds/go-push-bridge/pkg/tokens"
	"github.com/tinywideclouds/go-push-bridge/pushbridge/config"
)

type Wrapper struct {
	*microservice.BaseServer
	pipelineService *messagepipeline.StreamingService[pipeline.CallbackEnvelope]
	logger          *slog.Logger
}

// Dependencies are the collaborators the daemon routes to.
type Dependencies struct {
	Hub       api.Registrar
	Callbacks *bridge.Registry
	Store     tokens.Store

	// Consumer feeds the callback relay. Nil disables the relay.
	Consumer messagepipeline.MessageConsumer
}

// New assembles the service.
func New(
	cfg *config.Config,
	deps Dependencies,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) (*Wrapper, error) {
	if deps.Hub == nil || deps.Callbacks == nil || deps.Store == nil {
		return nil, errors.New("pushbridge: hub, callbacks and store are required")
	}

	// 1. Base Server
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	// 2. Relay Pipeline
	var streamingService *messagepipeline.StreamingService[pipeline.CallbackEnvelope]
	if deps.Consumer != nil {
		processor := pipeline.NewRelayProcessor(deps.Callbacks, logger)
		var err error
		streamingService, err = messagepipeline.NewStreamingService(
			messagepipeline.StreamingServiceConfig{NumWorkers: cfg.NumPipelineWorkers},
			deps.Consumer,
			pipeline.CallbackEnvelopeTransformer,
			processor,
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create streaming service: %w", err)
		}
	}

	// 3. API
	registrationAPI := api.NewRegistrationAPI(deps.Hub, deps.Store, logger)
	callbackAPI := api.NewCallbackAPI(deps.Callbacks, logger)

	mux := baseServer.Mux()
	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)

	handle := func(pattern string, handlerFunc http.HandlerFunc) {
		mux.Handle(pattern, corsMiddleware(authMiddleware(handlerFunc)))
	}

	handle("POST /api/v1/register", registrationAPI.Register)
	handle("POST /api/v1/unregister", registrationAPI.Unregister)
	handle("GET /api/v1/registrations", registrationAPI.List)

	// The native shell posts callbacks from the device itself, without a user token.
	mux.Handle("POST /api/v1/callbacks/{ecb}", corsMiddleware(http.HandlerFunc(callbackAPI.Invoke)))

	mux.Handle("OPTIONS /api/v1/", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS headers are written by the middleware.
	})))

	return &Wrapper{
		BaseServer:      baseServer,
		pipelineService: streamingService,
		logger:          logger,
	}, nil
}

func (w *Wrapper) Start(ctx context.Context) error {
	if w.pipelineService != nil {
		w.logger.Info("Callback relay pipeline starting...")
		if err := w.pipelineService.Start(ctx); err != nil {
			return fmt.Errorf("failed to start relay pipeline: %w", err)
		}
	} else {
		w.logger.Info("Callback relay disabled; accepting callbacks over HTTP only.")
	}
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	var finalErr error
	if w.pipelineService != nil {
		if err := w.pipelineService.Stop(ctx); err != nil {
			w.logger.Error("Relay pipeline shutdown failed.", "err", err)
			finalErr = err
		}
	}
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		finalErr = err
	}
	w.logger.Info("Service shutdown complete.")
	return finalErr
}
