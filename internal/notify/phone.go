package notify

import (
    "errors"
    "net/url"
    "regexp"
    "strings"
)

// ErrInvalidPhone is returned when a number does not look like an
// international phone number after formatting.
var ErrInvalidPhone = errors.New("invalid phone number")

var (
    phoneStripper = strings.NewReplacer(" ", "", "(", "", ")", "", "-", "")
    phonePattern  = regexp.MustCompile(`^\+\d{9,15}$`)
)

// FormatPhone removes spaces, parentheses and dashes from a phone number.
func FormatPhone(raw string) string {
    return phoneStripper.Replace(strings.TrimSpace(raw))
}

// ValidPhone reports whether an already formatted number is "+" followed by
// 9 to 15 digits.
func ValidPhone(formatted string) bool {
    return phonePattern.MatchString(formatted)
}

// WhatsAppLink builds a wa.me deep link that opens a chat with phone and the
// message pre-filled.
func WhatsAppLink(phone, message string) (string, error) {
    p := FormatPhone(phone)
    if !ValidPhone(p) {
        return "", ErrInvalidPhone
    }
    text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
    return "https://wa.me/" + strings.TrimPrefix(p, "+") + "?text=" + text, nil
}
