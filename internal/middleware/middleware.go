package middleware

import (
	"context"
	"flashgen/internal/contract"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"log/slog"
	"net/http"
)

func Setup(e *echo.Echo, logger *slog.Logger) {
	e.HideBanner = true

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.RequestID != "" {
				attrs = append(attrs, slog.String("request_id", v.RequestID))
			}

			if v.Error == nil {
				logger.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST", attrs...)
				return nil
			}

			level := slog.LevelWarn
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs = append(attrs, slog.String("err", v.Error.Error()))
			if he, ok := v.Error.(*echo.HTTPError); ok && he.Internal != nil {
				attrs = append(attrs, slog.String("internal", he.Internal.Error()))
			}
			logger.LogAttrs(context.Background(), level, "REQUEST_ERROR", attrs...)

			return nil
		},
	}))

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
}

func GetUserAuthConfig(secret string) echojwt.Config {
	return echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(contract.JWTClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token").WithInternal(err)
		},
		SigningKey: []byte(secret),
	}
}

// UserAuth returns JWT middleware for /v1 routes. With an empty secret the
// API is open and the middleware passes requests through.
func UserAuth(secret string) echo.MiddlewareFunc {
	if secret == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return echojwt.WithConfig(GetUserAuthConfig(secret))
}
