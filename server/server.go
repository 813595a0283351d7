package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gatherhq/gather-server/server/auth"
	"github.com/gatherhq/gather-server/server/cascade"
	"github.com/gatherhq/gather-server/server/club"
	"github.com/gatherhq/gather-server/server/database"
	"github.com/gatherhq/gather-server/server/event"
	"github.com/gatherhq/gather-server/server/review"
)

func New(cfg Config) (*Server, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	coordinator := cascade.New()

	return &Server{
		Cfg:      cfg,
		DB:       db,
		Verifier: auth.NewVerifier(cfg.Auth),
		Clubs:    club.New(db, coordinator),
		Events:   event.New(db),
		Reviews:  review.New(db),
	}, nil
}

type Server struct {
	Cfg      Config
	DB       *database.Database
	Verifier *auth.Verifier
	Clubs    *club.Engine
	Events   *event.Engine
	Reviews  *review.Engine

	server *http.Server
}

// Start serves the given handler until Stop is called.
func (s *Server) Start(handler http.Handler) error {
	s.server = &http.Server{
		Addr:    s.Cfg.Server.Addr,
		Handler: handler,
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.Cfg.Server.ShutdownTimeout))
	defer cancel()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to shutdown server", slog.Any("error", err))
		}
	}
	if err := s.DB.Close(); err != nil {
		slog.ErrorContext(ctx, "failed to close database", slog.Any("error", err))
	}
}
