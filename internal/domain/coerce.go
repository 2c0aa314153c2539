package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errRequired    = errors.New("field required")
	errNotPositive = errors.New("must be greater than 0")
)

// Coerce maps nil and blank strings to absent and parses everything else
// into T. A nil result with a nil error means the value was absent.
func Coerce[T any](raw any, parse func(any) (T, error)) (*T, error) {
	if isBlank(raw) {
		return nil, nil
	}

	v, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func isBlank(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *string:
		return v == nil || strings.TrimSpace(*v) == ""
	}
	return false
}

func parseString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case *string:
		return *v, nil
	}
	return "", fmt.Errorf("input should be a valid string, got %T", raw)
}

func parseInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("input should be a valid integer, got a number with a fractional part")
		}
		// float64(math.MaxInt64) rounds up to 2^63, which no int64 can hold
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("input should be a valid integer, %g is out of range", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("input should be a valid integer, unable to parse %q", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("input should be a valid integer, got %T", raw)
}

// payloadReader pulls typed fields out of a loosely typed payload and
// collects every failure into one ValidationError.
type payloadReader struct {
	payload map[string]any
	verr    *ValidationError
}

func newPayloadReader(entity string, payload map[string]any) *payloadReader {
	return &payloadReader{
		payload: payload,
		verr:    &ValidationError{Entity: entity},
	}
}

func (r *payloadReader) str(key string) *string {
	v, err := Coerce(r.payload[key], parseString)
	if err != nil {
		r.verr.add(key, err)
	}
	return v
}

func (r *payloadReader) requiredStr(key string, minLen, maxLen int) string {
	v, err := Coerce(r.payload[key], parseString)
	if err != nil {
		r.verr.add(key, err)
		return ""
	}
	if v == nil {
		r.verr.add(key, errRequired)
		return ""
	}
	if err := checkLength(*v, minLen, maxLen); err != nil {
		r.verr.add(key, err)
	}
	return *v
}

func (r *payloadReader) int(key string) *int64 {
	v, err := Coerce(r.payload[key], parseInt)
	if err != nil {
		r.verr.add(key, err)
	}
	return v
}

func (r *payloadReader) positiveInt(key string) *int64 {
	v := r.int(key)
	if v != nil && *v <= 0 {
		r.verr.add(key, errNotPositive)
		return nil
	}
	return v
}

// checkLength enforces minLen <= len(s) <= maxLen; maxLen 0 means unbounded.
func checkLength(s string, minLen, maxLen int) error {
	n := len([]rune(s))
	if n < minLen {
		return fmt.Errorf("string should have at least %d characters", minLen)
	}
	if maxLen > 0 && n > maxLen {
		return fmt.Errorf("string should have at most %d characters", maxLen)
	}
	return nil
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
