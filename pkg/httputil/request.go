package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/platinummonkey/mockapi/pkg/apierrors"
)

// DefaultMaxBodyBytes is the request body cap applied by MaxBytesMiddleware
const DefaultMaxBodyBytes = 1 << 20

// Unbounded disables the upper bound of ParseQueryRange
const Unbounded = -1

// ReadBody reads the whole request body. The size cap comes from
// MaxBytesMiddleware; exceeding it is reported as an error.
func ReadBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

// ParseQueryInt extracts and parses an integer query parameter
func ParseQueryInt(r *http.Request, key string, defaultVal int) (int, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil {
		return 0, fmt.Errorf("invalid integer for query param %s: %s", key, str)
	}
	return val, nil
}

// ParseQueryRange parses an integer query parameter bounded by [lo, hi].
// A hi of Unbounded disables the upper bound. Failures are reported as a
// field error located at ["query", key].
func ParseQueryRange(r *http.Request, key string, defaultVal, lo, hi int) (int, *apierrors.FieldError) {
	loc := []string{"query", key}

	val, err := ParseQueryInt(r, key, defaultVal)
	if err != nil {
		return 0, &apierrors.FieldError{
			Loc:  loc,
			Msg:  "Input should be a valid integer, unable to parse string as an integer",
			Type: "int_parsing",
		}
	}
	if val < lo {
		return 0, &apierrors.FieldError{
			Loc:  loc,
			Msg:  fmt.Sprintf("Input should be greater than or equal to %d", lo),
			Type: "greater_than_equal",
		}
	}
	if hi != Unbounded && val > hi {
		return 0, &apierrors.FieldError{
			Loc:  loc,
			Msg:  fmt.Sprintf("Input should be less than or equal to %d", hi),
			Type: "less_than_equal",
		}
	}
	return val, nil
}
