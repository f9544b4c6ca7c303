package server

import (
	"net"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kemkem23/raceboard/internal/version"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Get(),
	})
}

// handleServerIP reports the first non-loopback IPv4 address, so viewer
// devices on the venue LAN can be pointed at this instance.
func (s *Server) handleServerIP(c echo.Context) error {
	ip := "127.0.0.1"
	if addrs, err := net.InterfaceAddrs(); err == nil {
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() {
				continue
			}
			if v4 := ipNet.IP.To4(); v4 != nil {
				ip = v4.String()
				break
			}
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"ip": ip})
}
