package server

import (
	"bistro/internal/config"
	"bistro/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Menu    *handler.MenuHandler
	Order   *handler.OrderHandler
	Payment *handler.PaymentHandler
}

// New はミドルウェアとルートを組み立てたechoを返す
func New(cfg config.Config, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	RegisterRoutes(e, cfg, h)

	return e
}

func Start(e *echo.Echo, port string) error {
	return e.Start(":" + port)
}
