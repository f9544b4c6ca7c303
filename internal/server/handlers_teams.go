package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/kemkem23/raceboard/internal/domain"
	apperrors "github.com/kemkem23/raceboard/internal/errors"
)

type teamResponse struct {
	Team *domain.Team `json:"team"`
}

func (s *Server) handleGetTeams(c echo.Context) error {
	teams := s.store.Teams()
	if teams == nil {
		teams = []*domain.Team{}
	}
	return respondCached(c, map[string]any{"teams": teams})
}

func (s *Server) handleGetTeam(c echo.Context) error {
	team := s.store.TeamByID(c.Param("id"))
	if team == nil {
		return apperrors.NotFoundError("Team not found")
	}
	return respondCached(c, teamResponse{Team: team})
}

func (s *Server) handleUpdateTeam(c echo.Context) error {
	var fields domain.TeamUpdate
	if err := c.Bind(&fields); err != nil {
		return apperrors.ValidationError("invalid team payload")
	}

	team, events := s.store.UpdateTeam(c.Param("id"), fields)
	if team == nil {
		return apperrors.NotFoundError("Team not found")
	}
	s.publish(events)

	return c.JSON(http.StatusOK, teamResponse{Team: team})
}

func (s *Server) handleUploadTeamPhoto(c echo.Context) error {
	id := c.Param("id")

	file, err := c.FormFile("photo")
	if err != nil {
		return apperrors.ValidationError("No file uploaded")
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	filename := id + ext

	src, err := file.Open()
	if err != nil {
		return apperrors.InternalError("failed to read upload", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.uploadsDir, filename))
	if err != nil {
		return apperrors.InternalError("failed to store upload", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return apperrors.InternalError("failed to store upload", err)
	}

	photoURL := fmt.Sprintf("/api/uploads/%s", filename)
	team, events := s.store.UpdateTeam(id, domain.TeamUpdate{Photo: &photoURL})
	if team == nil {
		return apperrors.NotFoundError("Team not found")
	}
	s.publish(events)

	return c.JSON(http.StatusOK, map[string]any{
		"photo": photoURL,
		"team":  team,
	})
}
