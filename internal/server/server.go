// Package server exposes the HTTP and websocket surface over the store and
// the broadcast hub.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kemkem23/raceboard/internal/broadcast"
	"github.com/kemkem23/raceboard/internal/config"
	"github.com/kemkem23/raceboard/internal/domain"
	apperrors "github.com/kemkem23/raceboard/internal/errors"
	"github.com/kemkem23/raceboard/internal/snapshot"
	"github.com/kemkem23/raceboard/internal/store"
)

// account is an admin login. role "full" may edit everything, role "time"
// only race times.
type account struct {
	Username string
	Role     string
}

var accounts = []account{
	{Username: "adminMay", Role: "full"},
	{Username: "adminKem", Role: "full"},
	{Username: "adminAu", Role: "time"},
}

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	store      *store.Store
	hub        *broadcast.Hub
	snapshots  *snapshot.Writer
	limits     *ConnectionLimits
	upgrader   websocket.Upgrader
	uploadsDir string
}

func NewServer(cfg *config.Config, st *store.Store, hub *broadcast.Hub, snapshots *snapshot.Writer) (*Server, error) {
	uploadsDir := filepath.Join(cfg.DataDir, "uploads")
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.Gzip())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		store:     st,
		hub:       hub,
		snapshots: snapshots,
		limits: NewConnectionLimits(
			cfg.MaxConnections,
			cfg.MaxConnectionsPerIP,
			cfg.ConnectionRate,
			cfg.ConnectionBurst,
		),
		upgrader: websocket.Upgrader{
			// Viewers are served from a separate origin; the push channel
			// carries no credentials.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		uploadsDir: uploadsDir,
	}

	srv.registerRoutes()
	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// publish forwards a mutation's events to the hub and pokes the snapshot
// debouncer. Fire-and-forget relative to the HTTP response.
func (s *Server) publish(events []domain.Event) {
	if len(events) == 0 {
		return
	}
	s.hub.Publish(events)
	s.snapshots.Notify()
}
