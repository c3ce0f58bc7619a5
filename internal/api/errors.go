package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Ошибки клиента.
var (
	// ErrNotFound — ответ 404.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized — ответ 401 или 403.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRequest — запрос не дошёл до сервера или ответ не прочитан.
	ErrRequest = errors.New("request failed")

	// ErrDecode — тело ответа не является ожидаемым JSON.
	ErrDecode = errors.New("invalid response")
)

// maxDetail — сколько символов сырого тела ответа попадает в сообщение.
const maxDetail = 200

// StatusError — ответ с кодом >= 400.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Detail     string
}

// Error реализует интерфейс error.
func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Detail)
}

// Is позволяет проверять errors.Is(err, ErrNotFound) и errors.Is(err, ErrUnauthorized).
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	default:
		return false
	}
}

// IsStatus сообщает, является ли err ответом с указанным кодом.
func IsStatus(err error, code int) bool {
	var sErr *StatusError
	return errors.As(err, &sErr) && sErr.StatusCode == code
}

// parseDetail извлекает человекочитаемое описание ошибки из тела ответа.
//
// Форматы AAP:
//
//	{"detail": "Not found."}
//	{"name": ["This field is required."], "organization": ["..."]}
//	{"__all__": ["..."]}
func parseDetail(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		if len(trimmed) > maxDetail {
			return trimmed[:maxDetail] + "..."
		}
		return trimmed
	}

	if d, ok := obj["detail"].(string); ok {
		return d
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msg := fieldMessage(obj[k])
		if k == "__all__" || k == "non_field_errors" {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, k+": "+msg)
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(v any) string {
	switch m := v.(type) {
	case string:
		return m
	case []any:
		msgs := make([]string, 0, len(m))
		for _, item := range m {
			msgs = append(msgs, fmt.Sprint(item))
		}
		return strings.Join(msgs, " ")
	default:
		data, _ := json.Marshal(m)
		return string(data)
	}
}
