package directory

import (
    "errors"
    "strings"

    "github.com/larslemos/ninho-do-amor-sub000/internal/notify"
)

// MaxCompanions bounds the companions a single guest may bring.
const MaxCompanions = 20

// Reasons a guest record is rejected.  The messages double as import skip
// reasons.
var (
    ErrNameRequired      = errors.New("nome obrigatório")
    ErrPhoneRequired     = errors.New("telefone obrigatório")
    ErrInvalidEmail      = errors.New("email inválido")
    ErrInvalidCompanions = errors.New("acompanhantes inválido")
)

// CheckGuest applies the rules every new guest must meet, whether typed in
// the admin form or read from an uploaded file: a name, a phone that is
// not empty once formatted, an e-mail (when given) with an "@", and
// 0..MaxCompanions companions.
func CheckGuest(name, phone, email string, companions int) error {
    switch {
    case strings.TrimSpace(name) == "":
        return ErrNameRequired
    case notify.FormatPhone(phone) == "":
        return ErrPhoneRequired
    case !ValidEmail(email):
        return ErrInvalidEmail
    case companions < 0 || companions > MaxCompanions:
        return ErrInvalidCompanions
    }
    return nil
}

// ValidEmail accepts an empty address or one with a local part and a
// domain around a single "@".
func ValidEmail(email string) bool {
    email = strings.TrimSpace(email)
    if email == "" {
        return true
    }
    local, domain, ok := strings.Cut(email, "@")
    return ok && local != "" && domain != "" && !strings.ContainsAny(domain, "@ ")
}
