package http

import (
	"net/http"
	"strings"

	"fulfillment/internal/pkg/logger"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type RouterConfig struct {
	Server   *Server
	Hub      *Hub
	Doc      *openapi3.T
	Log      *logger.Logger
	Gatherer prometheus.Gatherer
	// EchoLogLevel is debug, info, warn, error or off.
	EchoLogLevel string
}

// NewRouter assembles the echo instance with every route and middleware.
func NewRouter(cfg RouterConfig) (*echo.Echo, error) {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(echoLevel(cfg.EchoLogLevel))
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = ErrorHandler(cfg.Log)

	validate, err := OpenAPIValidator(cfg.Doc)
	if err != nil {
		return nil, err
	}
	e.Use(middleware.Recover(), RequestLogger(cfg.Log), validate)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if cfg.Hub != nil {
		e.GET("/api/v1/feed", cfg.Hub.Subscribe)
	}

	cfg.Server.Register(e, ActorAuth(cfg.Log))
	return e, nil
}

func echoLevel(level string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
