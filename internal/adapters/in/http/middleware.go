package http

import (
	"context"
	"fmt"
	"net/http"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/logger"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"

	callerKey = "caller"
)

// RequestValidator adapts validator/v10 to echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *RequestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return badRequest(err)
	}
	return nil
}

// RequestLogger scopes the request id onto the context logger.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = kernel.NewUUID().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			ctx := log.WithRequestID(req.Context(), id)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			log.Debug(ctx, fmt.Sprintf("%s %s", req.Method, c.Path()))
			return err
		}
	}
}

// ActorAuth resolves the caller from the actor headers. Identity is asserted
// by the upstream gateway.
func ActorAuth(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id, err := kernel.UUIDFromString(req.Header.Get(HeaderActorID))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed "+HeaderActorID)
			}
			caller, err := kernel.NewCaller(id, kernel.Role(req.Header.Get(HeaderActorRole)))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or unknown "+HeaderActorRole)
			}

			c.Set(callerKey, caller)
			ctx := log.WithActor(req.Context(), caller.ID.String(), string(caller.Role))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func callerFrom(c echo.Context) (kernel.Caller, error) {
	caller, ok := c.Get(callerKey).(kernel.Caller)
	if !ok {
		return kernel.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "caller is not resolved")
	}
	return caller, nil
}

// OpenAPIValidator rejects requests that do not match doc. Routes the
// document does not describe pass through.
func OpenAPIValidator(doc *openapi3.T) (echo.MiddlewareFunc, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	options := &openapi3filter.Options{
		MultiError:         true,
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route, pathParams, err := router.FindRoute(req)
			if err != nil {
				return next(c)
			}
			if err := validateRequest(req.Context(), req, route, pathParams, options); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			return next(c)
		}
	}, nil
}

func validateRequest(
	ctx context.Context,
	req *http.Request,
	route *routers.Route,
	pathParams map[string]string,
	options *openapi3filter.Options,
) error {
	return openapi3filter.ValidateRequest(ctx, &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
		Options:    options,
	})
}
