package app

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
)

type ComponentResponse struct {
	Error       error
	Message     string
	Code        int
	ContentType string
	Header      http.Header
	Component   templ.Component
}

type ComponentHandler func(http.ResponseWriter, *http.Request) *ComponentResponse

func (ch ComponentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := ch(w, r)

	if resp == nil {
		return
	}

	if resp.Error != nil {
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("code", resp.Code),
			slog.Any("error", resp.Error))
	}

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	code := resp.Code
	if code == 0 {
		code = http.StatusOK
	}

	// htmx only swaps 2xx responses; keep the component visible on the client.
	if code >= 400 && isHtmx(r) {
		code = http.StatusOK
	}

	if resp.Component == nil {
		w.WriteHeader(code)
		return
	}

	var buf bytes.Buffer
	err := resp.Component.Render(r.Context(), &buf)

	if err != nil {
		slog.Error("templ: failed to render template", slog.String("path", r.URL.Path), slog.Any("error", err))
		http.Error(w, "templ: failed to render template", http.StatusInternalServerError)
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("writing response", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}

func isHtmx(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
