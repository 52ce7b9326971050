package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/medlabel/apiserver/config"
	"github.com/medlabel/apiserver/internal/db"
	"github.com/medlabel/apiserver/internal/handlers"
	"github.com/medlabel/apiserver/internal/mq"
	"github.com/medlabel/apiserver/internal/pii"
	"github.com/medlabel/apiserver/internal/services"
	"github.com/medlabel/apiserver/internal/storage"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.ImageRoot, 0o755); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("create image root: %w", err)
	}

	screener := pii.NewScreener(pii.NewTesseract(cfg.Tesseract))

	userService := services.NewUserService(dbConn)
	imageService := services.NewImageService(dbConn, screener, cfg.ImageRoot)
	labelService := services.NewLabelService(dbConn)
	classService := services.NewClassService(dbConn)
	auditService := services.NewAuditService(dbConn)

	mirror, err := newMirror(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if mirror != nil {
		imageService.SetMirror(mirror)
	}

	broker, err := newBroker(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if broker != nil {
		imageService.SetNotifier(broker, cfg.MQ.Topic)
	}

	authMiddleware := handlers.RequireBasicAuth(userService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.ImageRouter(r, imageService)
		handlers.LabelRouter(r, labelService)
		handlers.ClassRouter(r, classService)
		handlers.AuditRouter(r, auditService)
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
		broker:     broker,
	}, nil
}

func newMirror(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	switch cfg.Backend {
	case "", "local":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		mirror := storage.NewStorage(client)
		if err := mirror.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return mirror, nil
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		mirror := storage.NewStorage(client)
		if err := mirror.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return mirror, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func newBroker(ctx context.Context, cfg config.MQConfig) (*mq.MQ, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
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
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
