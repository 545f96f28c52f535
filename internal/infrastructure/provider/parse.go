package provider

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errNoPayload = errors.New("no quoted payload")

// quotedPayload returns the text between `="` and the closing quote of a
// `var x="...";` style response.
func quotedPayload(text, marker string) (string, error) {
	if !strings.Contains(text, marker) {
		return "", fmt.Errorf("marker %q not found", marker)
	}
	start := strings.Index(text, `="`)
	if start < 0 {
		return "", errNoPayload
	}
	rest := text[start+2:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "", errNoPayload
	}
	return rest[:end], nil
}

// fields parses positional values and remembers the first failure.
type fields struct {
	vals []string
	err  error
}

func (f *fields) float(i int) float64 {
	if f.err != nil {
		return 0
	}
	if i >= len(f.vals) {
		f.err = fmt.Errorf("field %d missing", i)
		return 0
	}
	s := strings.TrimSpace(f.vals[i])
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.err = fmt.Errorf("field %d: %w", i, err)
		return 0
	}
	return v
}

func (f *fields) int(i int) int64 {
	return int64(f.float(i))
}

func (f *fields) str(i int) string {
	if i >= len(f.vals) {
		return ""
	}
	return strings.TrimSpace(f.vals[i])
}
