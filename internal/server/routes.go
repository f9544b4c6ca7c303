package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability
	s.echo.GET("/api/health", s.handleHealth)
	s.echo.GET("/api/server-ip", s.handleServerIP)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Races
	s.echo.GET("/api/races/current", s.handleGetCurrentRace)
	s.echo.POST("/api/races/current", s.handleSetCurrentRace)
	s.echo.PUT("/api/races/current/times", s.handleUpdateRaceTimes)

	// Leaderboard
	s.echo.GET("/api/leaderboard", s.handleGetLeaderboard)
	s.echo.PUT("/api/leaderboard", s.handleUpdateResults)

	// Teams
	s.echo.GET("/api/teams", s.handleGetTeams)
	s.echo.GET("/api/teams/:id", s.handleGetTeam)
	s.echo.PUT("/api/teams/:id", s.handleUpdateTeam)
	s.echo.POST("/api/teams/:id/photo", s.handleUploadTeamPhoto)
	s.echo.Static("/api/uploads", s.uploadsDir)

	// Auth
	s.echo.POST("/api/auth/login", s.handleLogin)

	// Push channel
	s.echo.GET("/api/ws", s.handleWebSocket)
}
