package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"
	"gopkg.in/go-playground/validator.v9"
	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/config"
)

type CustomValidator struct {
	Validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.Validator.Struct(i); err != nil {
		return candydelivery.ErrorWithCode(err, candydelivery.EINVALID)
	}
	return nil
}

// ErrorResponse is the body of every error reply except item validation.
type ErrorResponse struct {
	Message string `json:"message"`
}

func NewHttpServer(conf config.AppConfig, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if conf.Env == config.EnvProd {
		e.Logger.SetLevel(log.WARN)
	} else {
		e.Logger.SetLevel(log.INFO)
	}

	e.Validator = &CustomValidator{Validator: validator.New()}
	e.HTTPErrorHandler = HttpErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(RequestLogger(logger))

	if conf.Env != config.EnvTest {
		e.Use(middleware.RateLimiterWithConfig(RatelimiterConfig(conf.RateLimit)))
	}

	return e
}

// RequestLogger writes one structured line per handled request.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	logger = logger.With("component", "http")

	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"request_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}

			if v.Error != nil {
				logger.WarnContext(c.Request().Context(), "request failed", append(attrs, "error", v.Error.Error())...)
				return nil
			}

			logger.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	})
}

func RatelimiterConfig(perSecond float64) middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(perSecond), Burst: 0, ExpiresIn: time.Minute},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			id := ctx.RealIP()
			return id, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, nil)
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, nil)
		},
	}
}

// HttpErrorHandler renders application errors as {"message": ...}.
// Messages of 5xx replies are replaced with a generic text.
func HttpErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "http")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var echoError *echo.HTTPError
		if errors.As(err, &echoError) {
			msg, ok := echoError.Message.(string)
			if !ok {
				msg = http.StatusText(echoError.Code)
			}
			_ = c.JSON(echoError.Code, ErrorResponse{Message: msg})
			return
		}

		httpCode := candydelivery.ErrCodeToHTTPStatus(err)
		message := candydelivery.DefaultErrorMessage

		if httpCode < http.StatusInternalServerError {
			message = candydelivery.ErrorMessage(err)
		} else {
			logger.ErrorContext(c.Request().Context(), "unhandled error",
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"error", err,
			)
		}

		_ = c.JSON(httpCode, ErrorResponse{Message: message})
	}
}
