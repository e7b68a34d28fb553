package pets

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// PublicID es el ID visible para el dueño: "NNN-NNN-NNNNNNN".
// Los dos primeros segmentos son constantes (000-000); el tercero es el contador.
type PublicID string

// MaxCounter es el último valor representable con 7 dígitos.
const MaxCounter int64 = 9_999_999

var (
	ErrInvalidPublicID   = errors.New("invalid public id")
	ErrSequenceExhausted = errors.New("public id sequence exhausted")
)

var publicIDPattern = regexp.MustCompile(`^[0-9]{3}-[0-9]{3}-[0-9]{7}$`)

// FormatPublicID arma el ID para un valor del contador (1..MaxCounter).
func FormatPublicID(n int64) (PublicID, error) {
	if n < 1 {
		return "", ErrInvalidPublicID
	}
	if n > MaxCounter {
		return "", ErrSequenceExhausted
	}
	return PublicID(fmt.Sprintf("%03d-%03d-%07d", 0, 0, n)), nil
}

func ParsePublicID(s string) (PublicID, error) {
	if !publicIDPattern.MatchString(s) {
		return "", ErrInvalidPublicID
	}
	return PublicID(s), nil
}

// Counter devuelve el segmento numérico final (0 si el ID es inválido).
func (p PublicID) Counter() int64 {
	if !publicIDPattern.MatchString(string(p)) {
		return 0
	}
	n, _ := strconv.ParseInt(string(p)[8:], 10, 64)
	return n
}

func (p PublicID) String() string { return string(p) }
