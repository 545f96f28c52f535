package domain

import (
	"regexp"
	"strings"
)

var symbolRe = regexp.MustCompile(`^[0-9]{6}$`)

// NormalizeSymbol trims whitespace and strips an exchange prefix
// ("sh600000" -> "600000", "bj430047" -> "430047").
func NormalizeSymbol(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, prefix := range []string{"sh", "sz", "bj"} {
		if strings.HasPrefix(s, prefix) {
			return s[len(prefix):]
		}
	}
	return s
}

func ValidateSymbol(s string) error {
	if !symbolRe.MatchString(s) {
		return ErrInvalidSymbol
	}
	return nil
}

// Market returns the exchange prefix used by sina and tencent.
// Shenzhen main board and ChiNext start with 0 or 3, Beijing with 4, 8 or 92.
// Everything else is Shanghai.
func Market(code string) string {
	if code == "" {
		return "sh"
	}
	switch {
	case code[0] == '0' || code[0] == '3':
		return "sz"
	case code[0] == '4' || code[0] == '8' || strings.HasPrefix(code, "92"):
		return "bj"
	default:
		return "sh"
	}
}

func SinaSymbol(code string) string { return Market(code) + code }

// NeteaseSymbol uses a numeric exchange prefix: 0 for Shanghai, 1 for Shenzhen.
// Netease has no Beijing feed; ok is false for those codes.
func NeteaseSymbol(code string) (string, bool) {
	switch Market(code) {
	case "sz":
		return "1" + code, true
	case "bj":
		return "", false
	default:
		return "0" + code, true
	}
}

// EastmoneySecID builds the "market.code" id used by push2.eastmoney.com.
func EastmoneySecID(code string) string {
	if strings.HasPrefix(code, "6") {
		return "1." + code
	}
	return "0." + code
}
