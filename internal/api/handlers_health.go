package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"diagram2terraform/internal/terraform"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type providersResponse struct {
	Providers []terraform.ProviderInfo `json:"providers"`
	Default   terraform.ProviderInfo   `json:"default"`
}

func (s *Server) handleProviders(c echo.Context) error {
	return c.JSON(http.StatusOK, providersResponse{
		Providers: terraform.Providers(),
		Default:   terraform.DefaultAccent,
	})
}
