package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/creatorhub/apiserver/config"
	"github.com/creatorhub/apiserver/internal/auth"
	"github.com/creatorhub/apiserver/internal/chain"
	"github.com/creatorhub/apiserver/internal/db"
	"github.com/creatorhub/apiserver/internal/handlers"
	"github.com/creatorhub/apiserver/internal/mq"
	"github.com/creatorhub/apiserver/internal/services"
	"github.com/creatorhub/apiserver/internal/storage"
	"github.com/creatorhub/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// mintGrace covers the metadata upload that precedes the ledger submission.
const mintGrace = 15 * time.Second

// Server wraps the HTTP server and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	objects    *storage.Storage
	broker     *mq.MQ
	log        *zap.Logger
}

// Services groups the use cases exposed over HTTP.
type Services struct {
	Users     *services.UserService
	Auth      *services.AuthService
	UserTypes *services.UserTypeService
	Reports   *services.ReportService
	NFT       *services.NFTService
}

// New connects the backing services selected by cfg and builds the router.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		if objects != nil {
			_ = objects.Close()
		}
		_ = dbConn.Close()
		return nil, fmt.Errorf("open mq: %w", err)
	}

	// Interfaces only receive non-nil backends so disabled ones stay nil.
	var events services.EventPublisher
	if broker != nil {
		events = broker
	}
	var metadata services.MetadataStore
	if objects != nil {
		metadata = objects
	}

	userRepo := store.NewUserRepository(dbConn)
	userTypeRepo := store.NewUserTypeRepository(dbConn)
	contentRepo := store.NewContentRepository(dbConn)

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	ledger := chain.NewXRPLClient(cfg.Ledger, log.Named("xrpl"))

	svc := Services{
		Users:     services.NewUserService(userRepo, hasher, events, log.Named("users")),
		Auth:      services.NewAuthService(userRepo, hasher, tokens, log.Named("auth")),
		UserTypes: services.NewUserTypeService(userTypeRepo),
		Reports:   services.NewReportService(userRepo, contentRepo),
		NFT:       services.NewNFTService(ledger, metadata, events, log.Named("nft")),
	}
	router := NewRouter(cfg, svc, log)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: max(cfg.RequestTimeout, cfg.Ledger.SubmitTimeout+mintGrace) + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server configured",
		zap.String("env", cfg.Env),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("mq_backend", cfg.MQ.Backend),
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		objects:    objects,
		broker:     broker,
		log:        log,
	}, nil
}

// NewRouter mounts every route on a chi router. The mint route gets the
// ledger submit timeout instead of the general request timeout.
func NewRouter(cfg config.Config, svc Services, log *zap.Logger) *chi.Mux {
	requireUser := handlers.RequireUser(svc.Auth, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(log.Named("http")),
		middleware.Recoverer,
	)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		r.Get("/healthz", handlers.Healthz)
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, svc.Users, svc.Auth, log)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, svc.Users, requireUser, log)
		})
		r.Route("/user-types", func(r chi.Router) {
			handlers.UserTypeRouter(r, svc.UserTypes, requireUser, log)
		})
		r.Route("/reports", func(r chi.Router) {
			handlers.ReportRouter(r, svc.Reports, requireUser, log)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Ledger.SubmitTimeout + mintGrace))

		r.Route("/nft", func(r chi.Router) {
			handlers.NFTRouter(r, svc.NFT, requireUser, log)
		})
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains HTTP, then closes the broker, object storage and the
// database.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if s.broker != nil {
		if err := s.broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close mq: %w", err))
		}
	}
	if s.objects != nil {
		if err := s.objects.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}
