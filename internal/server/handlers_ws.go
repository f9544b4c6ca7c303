package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	apperrors "github.com/kemkem23/raceboard/internal/errors"
	"github.com/kemkem23/raceboard/internal/metrics"
)

// handleWebSocket upgrades a viewer connection and parks it in the hub.
// Subscription is implicit: every connection receives every event type.
func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	ok, reason := s.limits.Acquire(ip)
	if !ok {
		metrics.RejectedConnections.WithLabelValues(string(reason)).Inc()
		slog.Warn("Rejecting websocket connection", "ip", ip, "reason", reason)
		return apperrors.UnavailableError("too many connections")
	}
	defer s.limits.Release(ip)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("Failed to upgrade websocket", "error", err)
		return nil
	}

	if err := s.hub.Register(conn); err != nil {
		slog.Error("Failed to register with hub", "error", err)
		conn.Close()
		return nil
	}

	// Read pump: viewers send nothing, but reading drives pong handling and
	// surfaces the close/error signal.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(conn)
	return nil
}
