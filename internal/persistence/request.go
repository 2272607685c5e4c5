package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/felixbrock/careerprep/internal/app"
)

type reqConfig struct {
	Method  string
	Url     string
	Headers []string
	Body    []byte
	Client  *http.Client
}

// StatusError is returned for any response outside the 2xx range.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unexpected response status code %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("unexpected response status code %d", e.Code)
}

// UserMessage is what the form shows for a rejected request. The upstream detail is
// kept for logs only.
func (e *StatusError) UserMessage() string {
	return "Failed to generate guidance"
}

type errorBody struct {
	Detail any `json:"detail"`
}

func request[T any](ctx context.Context, config reqConfig) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, config.Method, config.Url, bytes.NewBuffer(config.Body))

	if err != nil {
		return nil, err
	}

	for i := 0; i < len(config.Headers); i++ {
		key, value, found := strings.Cut(config.Headers[i], ":")
		if !found {
			return nil, fmt.Errorf("malformed header %q", config.Headers[i])
		}
		req.Header.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	client := config.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)

	if err != nil {
		return nil, err
	}

	body, err := app.Read(resp.Body)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Detail: detail(body)}
	}

	var t *T
	t, err = app.ReadJSON[T](body)

	if err != nil {
		return nil, err
	}

	return t, nil
}

// detail pulls the "detail" member out of an error body when there is one.
func detail(body []byte) string {
	var e errorBody
	if err := json.Unmarshal(body, &e); err != nil || e.Detail == nil {
		return ""
	}

	if s, ok := e.Detail.(string); ok {
		return s
	}

	raw, err := json.Marshal(e.Detail)
	if err != nil {
		return ""
	}
	return string(raw)
}
