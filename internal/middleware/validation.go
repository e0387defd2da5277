package middleware

import (
    "fmt"
    "net/http"
    "strings"

    "github.com/getkin/kin-openapi/openapi3"
    "github.com/getkin/kin-openapi/openapi3filter"
    "github.com/getkin/kin-openapi/routers"
    "github.com/getkin/kin-openapi/routers/gorillamux"
    "github.com/labstack/echo/v4"
    log "github.com/sirupsen/logrus"
)

// NewOpenAPIValidator validates incoming requests against the OpenAPI
// document.  Requests for paths the document does not describe are passed
// through so echo can answer them (404/405).  Multipart bodies are not
// validated; the import handler checks the uploaded file itself.
func NewOpenAPIValidator(spec *openapi3.T) (echo.MiddlewareFunc, error) {
    // Match paths without a server URL prefix.
    spec.Servers = nil

    router, err := gorillamux.NewRouter(spec)
    if err != nil {
        return nil, fmt.Errorf("creating openapi router: %w", err)
    }
    return validatorMiddleware(router), nil
}

func validatorMiddleware(router routers.Router) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            route, pathParams, err := router.FindRoute(req)
            if err != nil {
                return next(c)
            }

            opts := &openapi3filter.Options{
                // Auth is enforced by JWTAuth.
                AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
            }
            if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
                opts.ExcludeRequestBody = true
            }
            input := &openapi3filter.RequestValidationInput{
                Request:    req,
                PathParams: pathParams,
                Route:      route,
                Options:    opts,
            }
            if err := openapi3filter.ValidateRequest(req.Context(), input); err != nil {
                log.WithError(err).WithField("path", req.URL.Path).Warn("request validation failed")
                return c.JSON(http.StatusBadRequest, echo.Map{
                    "error": "Pedido inválido: " + sanitizeValidationError(err),
                    "code":  "validation_failed",
                })
            }
            return next(c)
        }
    }
}

func sanitizeValidationError(err error) string {
    msg := err.Error()
    // kin-openapi errors embed the whole schema; keep the first line.
    if i := strings.Index(msg, "\n"); i >= 0 {
        msg = msg[:i]
    }
    if i := strings.Index(msg, "Schema:"); i >= 0 {
        msg = strings.TrimSpace(msg[:i])
    }
    return strings.TrimSpace(msg)
}
