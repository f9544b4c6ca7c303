package server

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kemkem23/raceboard/internal/domain"
	apperrors "github.com/kemkem23/raceboard/internal/errors"
)

func (s *Server) handleGetLeaderboard(c echo.Context) error {
	return respondCached(c, domain.LeaderboardPayload{
		Classes:    s.store.Leaderboard(),
		AllResults: s.store.AllResults(),
	})
}

func (s *Server) handleUpdateResults(c echo.Context) error {
	// The body must be a JSON array; anything else is rejected before the
	// store is touched.
	var updates []domain.ResultUpdate
	if err := json.NewDecoder(c.Request().Body).Decode(&updates); err != nil {
		return apperrors.ValidationError("Expected an array of updates")
	}

	updated, events := s.store.UpdateResults(updates)
	s.publish(events)

	return c.JSON(http.StatusOK, map[string]any{
		"success":      true,
		"updatedCount": len(updated),
	})
}
