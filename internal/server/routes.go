package server

import (
	"bistro/internal/config"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Auth.RegisterRoutes(e)
	h.Menu.RegisterRoutes(e)
	h.Order.RegisterRoutes(e, cfg)
	h.Payment.RegisterRoutes(e)
}
