package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btmxh/gym-tsfr/internal/application/usecases/room"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/auth"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/configs"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/metrics"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/ratelimiter"
	eventsHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/events"
	healthHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/health"
	messagesHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/messages"
	realtimeHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/realtime"
	roomHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/rooms"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const requestTimeout = 60 * time.Second

type Application struct {
	config          *configs.Config
	rooms           room.RoomUseCase
	sessions        auth.SessionResolver
	roomHandler     *roomHandler.Handler
	messagesHandler *messagesHandler.Handler
	realtimeHandler *realtimeHandler.Handler
	eventsHandler   *eventsHandler.Handler
	healthHandler   *healthHandler.Handler
	logger          logging.Logger
	ratelimiter     ratelimiter.Limiter
	metrics         *metrics.Metrics
}

func NewApplication(
	config *configs.Config,
	rooms room.RoomUseCase,
	sessions auth.SessionResolver,
	roomHandler *roomHandler.Handler,
	messagesHandler *messagesHandler.Handler,
	realtimeHandler *realtimeHandler.Handler,
	eventsHandler *eventsHandler.Handler,
	healthHandler *healthHandler.Handler,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
	metrics *metrics.Metrics,
) *Application {
	return &Application{
		config:          config,
		rooms:           rooms,
		sessions:        sessions,
		roomHandler:     roomHandler,
		messagesHandler: messagesHandler,
		realtimeHandler: realtimeHandler,
		eventsHandler:   eventsHandler,
		healthHandler:   healthHandler,
		logger:          logger,
		ratelimiter:     ratelimiter,
		metrics:         metrics,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StripSlashes)
	r.Use(app.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(app.prometheusMiddleware)
	r.Use(app.enableCors)
	r.Use(app.rateLimiterMiddleware)

	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	// Admission proxy in front of the room page. Anything under /room that
	// is not exactly one id segment goes back home.
	r.With(app.admissionMiddleware).Get("/room/{roomId}", app.roomHandler.RoomPageHandler)
	r.Handle("/room", http.HandlerFunc(redirectHome))
	r.Handle("/room/*", http.HandlerFunc(redirectHome))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetLive)

		// websocket connections outlive any request timeout
		r.With(app.roomMemberMiddleware).Get("/realtime", app.realtimeHandler.SubscribeHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Post("/rooms/create", app.roomHandler.CreateRoomHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.roomMemberMiddleware)

				r.Get("/rooms/ttl", app.roomHandler.GetTTLHandler)
				r.Delete("/rooms", app.roomHandler.DestroyRoomHandler)
				r.Post("/messages", app.messagesHandler.CreateMessageHandler)
				r.Get("/messages", app.messagesHandler.ListMessagesHandler)
			})

			r.Route("/events", func(r chi.Router) {
				r.Use(app.sessionMiddleware)

				r.Get("/qrcode", app.eventsHandler.QRCodeHandler)
				r.Get("/qrcode.png", app.eventsHandler.QRCodePNGHandler)
				r.With(app.requirePermission(auth.PermEventsCreate)).Post("/new", app.eventsHandler.NewEventHandler)
				r.With(app.requirePermission(auth.PermEventsReadOwn)).Get("/mine", app.eventsHandler.MyEventsHandler)
			})
		})
	})

	return otelhttp.NewHandler(r, app.config.Tracing.ServiceName)
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.Addr(),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}
