package app

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"time"
)

//go:embed static
var staticFiles embed.FS

const guidancePath = "/guidance"

func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	mux.Handle("GET /{$}", ComponentHandler(a.index))
	mux.Handle("POST "+guidancePath, ComponentHandler(a.submitGuidance))
	mux.Handle("GET "+guidancePath, ComponentHandler(a.guidanceState))
	mux.Handle("POST /guidance/field/{name}", ComponentHandler(a.editField))
	mux.HandleFunc("GET /health", a.health)
	mux.Handle("/", ComponentHandler(a.notFound))

	return a.withRateLimit(a.withLogging(mux))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (a *App) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		a.Logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)))
	})
}
