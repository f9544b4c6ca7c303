package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kemkem23/raceboard/internal/domain"
	apperrors "github.com/kemkem23/raceboard/internal/errors"
)

type raceResponse struct {
	CurrentRace *domain.CurrentRace `json:"currentRace"`
}

func (s *Server) handleGetCurrentRace(c echo.Context) error {
	return respondCached(c, raceResponse{CurrentRace: s.store.CurrentRace()})
}

func (s *Server) handleSetCurrentRace(c echo.Context) error {
	// Decoded by hand: the body may be a JSON null to clear the race.
	var race *domain.CurrentRace
	if err := json.NewDecoder(c.Request().Body).Decode(&race); err != nil {
		return apperrors.ValidationError("invalid race payload")
	}
	if race != nil && race.ID == "" {
		race.ID = uuid.NewString()
	}

	updated, events := s.store.SetCurrentRace(race)
	s.publish(events)

	return c.JSON(http.StatusOK, raceResponse{CurrentRace: updated})
}

func (s *Server) handleUpdateRaceTimes(c echo.Context) error {
	var patch domain.RaceTimesPatch
	if err := c.Bind(&patch); err != nil {
		return apperrors.ValidationError("invalid times payload")
	}

	updated, events := s.store.UpdateCurrentRaceTimes(patch)
	if updated == nil {
		return apperrors.NotFoundError("No current race")
	}
	s.publish(events)

	return c.JSON(http.StatusOK, raceResponse{CurrentRace: updated})
}
