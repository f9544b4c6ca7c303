package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/kemkem23/raceboard/internal/errors"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid login payload")
	}

	passwordOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.config.AdminPassword)) == 1
	for _, a := range accounts {
		if a.Username != req.Username || !passwordOK {
			continue
		}
		return c.JSON(http.StatusOK, map[string]any{
			"success":  true,
			"token":    "token-" + uuid.NewString(),
			"role":     a.Role,
			"username": a.Username,
		})
	}

	return c.JSON(http.StatusUnauthorized, map[string]any{
		"success": false,
		"error":   "Invalid username or password",
	})
}
