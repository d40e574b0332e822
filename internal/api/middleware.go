package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/openjordan/healthatlas/internal/pkg/utils"
	"github.com/spf13/viper"
)

// RequestIDMiddleware tags every request with an id that the ctx logger
// picks up.
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		reqID := ctx.Request().Header.Get(constants.HeaderRequestID)
		if reqID == "" {
			reqID = random.String(16)
		}
		ctx.Response().Header().Set(constants.HeaderRequestID, reqID)

		req := ctx.Request()
		ctx.SetRequest(req.WithContext(context.WithValue(req.Context(), constants.CtxKeyRequestID, reqID)))

		return next(ctx)
	}
}

// AdminMiddleware guards the mutating endpoints with the shared-secret admin
// token.
func (svc *APIService) AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(constants.CookieKeySecretToken)
		if err != nil {
			return constants.ErrMissingAuthCookie
		}

		token, err := utils.ParseAuthToken(cookie.Value)
		if err != nil {
			return err
		}

		if token.Secret != viper.GetString(constants.ViperSecretKey) {
			return constants.ErrUnauthorized
		}

		return next(ctx)
	}
}
