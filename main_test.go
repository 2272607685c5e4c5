package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixbrock/careerprep/internal/app"
	"github.com/felixbrock/careerprep/internal/domain"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain loads .env when present so local runs pick up API_URL.
func TestMain(m *testing.M) {
	_ = godotenv.Load()
	os.Exit(m.Run())
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func guidanceServer(t *testing.T, status int, body string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/generate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const guidanceBody = `{
	"resume_feedback": "Lead with measurable outcomes.",
	"interview_questions": ["Tell me about a dashboard you built.", "How do you clean data?"],
	"learning_roadmap": ["SQL window functions", "Python pandas", "Tableau"]
}`

func newTestForm(baseURL string) *app.GuidanceForm {
	repo := newRepo(app.Config{APIURL: baseURL})
	return app.NewGuidanceForm(repo, app.LastCompletedWins, quietLogger())
}

func TestGeneratePrintsGuidance(t *testing.T) {
	var calls atomic.Int32
	srv := guidanceServer(t, http.StatusOK, guidanceBody, &calls)

	form := newTestForm(srv.URL)
	form.SetInput(domain.FormInput{Role: "Data Analyst", Experience: "Excel", Goal: "Analytics"})

	var out bytes.Buffer
	require.NoError(t, generate(context.Background(), form, &out))

	assert.Equal(t, int32(1), calls.Load())
	text := out.String()
	assert.Contains(t, text, "Lead with measurable outcomes.")
	assert.Contains(t, text, "1. Tell me about a dashboard you built.")
	assert.Contains(t, text, "3. Tableau")
	assert.Less(t, strings.Index(text, "Interview Questions"), strings.Index(text, "Learning Roadmap"))
}

func TestGenerateErrors(t *testing.T) {
	t.Run("missing field", func(t *testing.T) {
		var calls atomic.Int32
		srv := guidanceServer(t, http.StatusOK, guidanceBody, &calls)

		form := newTestForm(srv.URL)
		form.SetInput(domain.FormInput{Role: "Data Analyst", Goal: "Analytics"})

		err := generate(context.Background(), form, io.Discard)
		assert.EqualError(t, err, "Please fill in all fields")
		assert.Zero(t, calls.Load())
	})

	t.Run("server error", func(t *testing.T) {
		var calls atomic.Int32
		srv := guidanceServer(t, http.StatusInternalServerError, `{"detail":"Failed to generate career guidance"}`, &calls)

		form := newTestForm(srv.URL)
		form.SetInput(domain.FormInput{Role: "a", Experience: "b", Goal: "c"})

		assert.EqualError(t, generate(context.Background(), form, io.Discard), "Failed to generate guidance")
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		base := srv.URL
		srv.Close()

		form := newTestForm(base)
		form.SetInput(domain.FormInput{Role: "a", Experience: "b", Goal: "c"})

		assert.EqualError(t, generate(context.Background(), form, io.Discard), "Something went wrong")
	})

	t.Run("malformed body", func(t *testing.T) {
		var calls atomic.Int32
		srv := guidanceServer(t, http.StatusOK, `{"resume_feedback": "x"`, &calls)

		form := newTestForm(srv.URL)
		form.SetInput(domain.FormInput{Role: "a", Experience: "b", Goal: "c"})

		assert.EqualError(t, generate(context.Background(), form, io.Discard), "Something went wrong")
	})
}

// Exercises the web app against a real guidance endpoint through the real client.
func TestWebAppEndToEnd(t *testing.T) {
	var calls atomic.Int32
	upstream := guidanceServer(t, http.StatusOK, guidanceBody, &calls)

	cfg := app.Config{Port: "8000", APIURL: upstream.URL, SessionTTL: time.Hour}
	require.NoError(t, cfg.Validate())

	a := app.New(cfg, newRepo(cfg), quietLogger())
	web := httptest.NewServer(a.Handler())
	defer web.Close()

	client := web.Client()
	resp, err := client.Get(web.URL + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		cookie = c
	}
	require.NotNil(t, cookie)

	post := func(path string, form url.Values) *http.Response {
		req, err := http.NewRequest(http.MethodPost, web.URL+path, strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("HX-Request", "true")
		req.AddCookie(cookie)
		resp, err := client.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp = post("/guidance", url.Values{"role": {"Data Analyst"}, "experience": {"Excel"}, "goal": {"Analytics"}})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Eventually(t, func() bool {
		req, _ := http.NewRequest(http.MethodGet, web.URL+"/guidance", nil)
		req.AddCookie(cookie)
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return strings.Contains(string(body), "Lead with measurable outcomes.")
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, int32(1), calls.Load())
}

func TestServeConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("API_URL", "https://env.example.com")
	t.Setenv("GOPORT", "9000")
	t.Setenv("RATE_LIMIT_RPS", "2")

	servePort, serveAPIURL, serveRateLimit, serveRateBurst, serveStalePolicy = "", "https://flag.example.com", -1, -1, "latest-issued"
	t.Cleanup(func() {
		servePort, serveAPIURL, serveRateLimit, serveRateBurst, serveStalePolicy = "", "", -1, -1, "last-completed"
	})

	cfg, err := serveConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://flag.example.com", cfg.APIURL)
	assert.Equal(t, 2.0, cfg.RateLimit)
	assert.Equal(t, 10, cfg.RateBurst)
	assert.Equal(t, app.LatestIssuedWins, cfg.StalePolicy)
}

func TestServeConfigRequiresAPIURL(t *testing.T) {
	t.Setenv("API_URL", "")
	_, err := serveConfig()
	assert.Error(t, err)
}
