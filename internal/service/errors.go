package service

import (
    "errors"
    "fmt"

    "github.com/larslemos/ninho-do-amor-sub000/internal/repository"
)

// Error codes carried in API error payloads.
const (
    CodeValidation        = "validation_failed"
    CodeGuestNotFound     = "guest_not_found"
    CodeTableNotFound     = "table_not_found"
    CodeGuestNotConfirmed = "guest_not_confirmed"
    CodeCapacityExceeded  = "capacity_exceeded"
    CodeDuplicateGuest    = "duplicate_guest"
    CodeStaleWrite        = "stale_write"
    CodeInvalidPhone      = "invalid_phone"
    CodeMissingContact    = "missing_contact"
    CodeDeliveryFailed    = "delivery_failed"
    CodeInternal          = "internal_error"
)

// Error is a business failure with a stable code and a user-facing
// (Portuguese) message.
type Error struct {
    Code    string
    Message string
    Err     error
}

func (e *Error) Error() string {
    if e.Err != nil {
        return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
    }
    return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code, msg string) *Error { return &Error{Code: code, Message: msg} }

// Validation builds a validation_failed error.
func Validation(msg string) *Error { return newError(CodeValidation, msg) }

// MsgSelectTableAndGuest is returned when an assignment names no guest or table.
const MsgSelectTableAndGuest = "Selecione uma mesa e um convidado"

// AsError converts err into an *Error, mapping repository sentinels to
// their codes.  Unknown errors become internal_error.
func AsError(err error) *Error {
    var se *Error
    if errors.As(err, &se) {
        return se
    }
    switch {
    case errors.Is(err, repository.ErrGuestNotFound):
        return &Error{Code: CodeGuestNotFound, Message: "Convidado não encontrado", Err: err}
    case errors.Is(err, repository.ErrTableNotFound):
        return &Error{Code: CodeTableNotFound, Message: "Mesa não encontrada", Err: err}
    case errors.Is(err, repository.ErrDuplicateGuest):
        return &Error{Code: CodeDuplicateGuest, Message: "Já existe um convidado com este telefone, email ou URL", Err: err}
    case errors.Is(err, repository.ErrStaleWrite):
        return &Error{Code: CodeStaleWrite, Message: "Este convidado foi alterado por outra pessoa. Atualize e tente novamente", Err: err}
    }
    return &Error{Code: CodeInternal, Message: "Erro interno. Tente novamente", Err: err}
}
