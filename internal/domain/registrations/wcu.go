package registrations

import (
	"fmt"
	"strconv"
	"strings"
)

const wcuPrefix = "WCU-"

// FormatWCU arma el número legible: 1 -> WCU-00001. Más de 5 dígitos no se trunca.
func FormatWCU(seq int64) string {
	return fmt.Sprintf("%s%05d", wcuPrefix, seq)
}

// ParseWCU normaliza variantes que escriben los usuarios ("wcu-1", "WCU 00001", "00001").
func ParseWCU(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "WCU")
	s = strings.TrimLeft(s, "-_ ")
	if s == "" {
		return "", false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return "", false
	}
	return FormatWCU(n), true
}
