package util

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

// ClassifyStorageError maps a persistence failure to a short label for
// metrics and logs. Failures are never retried; the label only says why.
func ClassifyStorageError(err error) string {
	if err == nil {
		return ""
	}

	// JSON decode errors（数据格式错误）
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return "json_decode_error"
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, redis.Nil) || errors.Is(err, fs.ErrNotExist) {
		return "not_found"
	}
	if errors.Is(err, fs.ErrPermission) {
		return "permission_denied"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "context_canceled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "network_timeout"
		}
		return "network_error"
	}

	errStr := err.Error()
	if strings.Contains(errStr, "circuit breaker is open") {
		return "circuit_open"
	}
	if strings.Contains(errStr, "connection") {
		return "connection_error"
	}

	return "unknown_error"
}
