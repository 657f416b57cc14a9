package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/madr-project/apiserver/config"
	"github.com/madr-project/apiserver/internal/auth"
	"github.com/madr-project/apiserver/internal/db"
	"github.com/madr-project/apiserver/internal/handlers"
	"github.com/madr-project/apiserver/internal/mq"
	"github.com/madr-project/apiserver/internal/services"
	"github.com/madr-project/apiserver/internal/storage"
	"github.com/madr-project/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.Bus
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	events, err := openEventBus(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	coverStorage, err := openCoverStorage(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		_ = events.Close()
		return nil, err
	}

	accountRepo := store.NewAccountRepository(dbConn)
	novelistRepo := store.NewNovelistRepository(dbConn)
	bookRepo := store.NewBookRepository(dbConn)

	hasher := auth.NewHasher(cfg.Auth.Salt)
	tokens := auth.NewTokenService(
		cfg.Auth.SecretKey,
		cfg.Auth.Algorithm,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
	)

	accountService := services.NewAccountService(accountRepo, hasher, tokens)
	novelistService := services.NewNovelistService(novelistRepo, events)
	bookService := services.NewBookService(bookRepo, novelistRepo, events)
	coverService := services.NewCoverService(coverStorage)

	resolver := auth.NewIdentityResolver(tokens, accountService.LookupByEmail)
	authMiddleware := handlers.RequireAuth(resolver)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/accounts", func(r chi.Router) {
		handlers.AccountRouter(r, accountService, authMiddleware)
	})
	router.Route("/novelists", func(r chi.Router) {
		handlers.NovelistRouter(r, novelistService, authMiddleware)
	})
	router.Route("/books", func(r chi.Router) {
		handlers.BookRouter(r, bookService, coverService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	_ = s.events.Close()
	return s.httpServer.Close()
}

func openEventBus(ctx context.Context, cfg config.MQConfig) (*mq.Bus, error) {
	switch cfg.Backend {
	case "", config.MQBackendNone:
		return nil, nil
	case config.MQBackendRabbitMQ:
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	case config.MQBackendPubSub:
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

func openCoverStorage(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	var backend storage.ObjectStorage

	switch cfg.Backend {
	case "", config.StorageBackendNone:
		return nil, nil
	case config.StorageBackendMinio:
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case config.StorageBackendGCS:
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	wrapped := storage.NewStorage(backend)
	if err := wrapped.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return wrapped, nil
}
