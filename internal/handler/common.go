package handler // handler defines http handlers

import (
    "net/http" // status code constants

    "github.com/labstack/echo/v4"
    log "github.com/sirupsen/logrus"

    "github.com/larslemos/ninho-do-amor-sub000/internal/service"
)

var codeStatus = map[string]int{
    service.CodeValidation:        http.StatusBadRequest,
    service.CodeInvalidPhone:      http.StatusBadRequest,
    service.CodeGuestNotFound:     http.StatusNotFound,
    service.CodeTableNotFound:     http.StatusNotFound,
    service.CodeGuestNotConfirmed: http.StatusUnprocessableEntity,
    service.CodeMissingContact:    http.StatusUnprocessableEntity,
    service.CodeCapacityExceeded:  http.StatusConflict,
    service.CodeDuplicateGuest:    http.StatusConflict,
    service.CodeStaleWrite:        http.StatusConflict,
    service.CodeDeliveryFailed:    http.StatusBadGateway,
    service.CodeInternal:          http.StatusInternalServerError,
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
    if s, ok := codeStatus[code]; ok {
        return s
    }
    return http.StatusInternalServerError
}

// respondError writes {"error": message, "code": code}.  Internal errors
// are logged with their cause and answered with a generic message.
func respondError(c echo.Context, err error) error {
    se := service.AsError(err)
    status := StatusFor(se.Code)
    if status >= http.StatusInternalServerError {
        log.WithError(err).WithFields(log.Fields{
            "method": c.Request().Method,
            "path":   c.Request().URL.Path,
            "code":   se.Code,
        }).Error("request failed")
    }
    return c.JSON(status, echo.Map{"error": se.Message, "code": se.Code})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": service.CodeValidation})
}

func unauthorized(c echo.Context, msg string) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg, "code": "unauthorized"})
}
