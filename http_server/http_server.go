package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/danthegoodman1/contractors/contractors"
	"github.com/danthegoodman1/contractors/geocode"
	"github.com/danthegoodman1/contractors/gologger"
	"github.com/danthegoodman1/contractors/utils"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

var logger = gologger.NewLogger()

type (
	HTTPServer struct {
		Echo *echo.Echo

		contractors *contractors.Service
		geocoder    geocode.Geocoder
		presigner   Presigner
	}

	// Presigner turns an object key into a URL the browser can load.
	Presigner interface {
		PresignGet(key string) (string, error)
	}

	Options struct {
		Contractors *contractors.Service
		// Optional, search answers 500 without one
		Geocoder geocode.Geocoder
		// Optional, picture keys are returned as-is without one
		Presigner Presigner
	}

	CustomValidator struct {
		validator *validator.Validate
	}
)

// NewHTTPServer builds the router without listening.
func NewHTTPServer(opts Options) *HTTPServer {
	s := &HTTPServer{
		Echo:        echo.New(),
		contractors: opts.Contractors,
		geocoder:    opts.Geocoder,
		presigner:   opts.Presigner,
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.JSONSerializer = &utils.NoEscapeJSONSerializer{}

	s.Echo.Use(CreateReqContext)
	s.Echo.Use(LoggerMiddleware)
	s.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodOptions, http.MethodGet, http.MethodPut, http.MethodDelete},
	}))
	s.Echo.Validator = &CustomValidator{validator: validator.New()}

	// technical - no auth
	s.Echo.GET("/hc", s.HealthCheck)
	s.Echo.GET("/hello", ccHandler(s.Hello))

	contractorsGroup := s.Echo.Group("/contractors")
	contractorsGroup.GET("", ccHandler(s.SearchContractors))
	contractorsGroup.GET("/:id", ccHandler(s.GetContractor))
	contractorsGroup.PUT("/:id", ccHandler(s.UpdateContractor))
	contractorsGroup.DELETE("/:id", ccHandler(s.DeleteContractor))

	return s
}

func StartHTTPServer(opts Options) *HTTPServer {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", utils.HTTP_PORT))
	if err != nil {
		logger.Error().Err(err).Msg("error creating tcp listener, exiting")
		os.Exit(1)
	}
	s := NewHTTPServer(opts)

	s.Echo.Listener = listener
	go func() {
		logger.Info().Msg("starting h2c server on " + listener.Addr().String())
		err := s.Echo.StartH2CServer("", &http2.Server{})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to start h2c server, exiting")
			os.Exit(1)
		}
	}()

	return s
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func ValidateRequest(c echo.Context, s interface{}) error {
	if err := c.Bind(s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(s); err != nil {
		return err
	}
	return nil
}

func (*HTTPServer) HealthCheck(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	return err
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			// default handler
			c.Error(err)
		}
		stop := time.Since(start)
		// Log otherwise
		logger := zerolog.Ctx(c.Request().Context())
		req := c.Request()
		res := c.Response()

		p := req.URL.Path
		if p == "" {
			p = "/"
		}

		cl := req.Header.Get(echo.HeaderContentLength)
		if cl == "" {
			cl = "0"
		}
		logger.Debug().Str("method", req.Method).Str("remote_ip", c.RealIP()).Str("req_uri", req.RequestURI).Str("handler_path", c.Path()).Str("path", p).Int("status", res.Status).Int64("latency_ns", int64(stop)).Str("protocol", req.Proto).Str("bytes_in", cl).Int64("bytes_out", res.Size).Msg("req recived")
		return nil
	}
}
