package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/felixbrock/careerprep/internal/components"
	"github.com/felixbrock/careerprep/internal/domain"
)

const maxFormBytes = 64 << 10

func panelFor(state State) components.Panel {
	switch s := state.(type) {
	case Busy:
		return components.Panel{Busy: true}
	case Errored:
		return components.Panel{Error: s.Message}
	case Ready:
		result := s.Result
		return components.Panel{Result: &result}
	default:
		return components.Panel{}
	}
}

func ok(c *ComponentResponse) *ComponentResponse {
	c.Code = http.StatusOK
	c.Message = "OK"
	c.ContentType = "text/html; charset=utf-8"
	return c
}

func (a *App) index(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	form := a.Sessions.Form(w, r)
	return ok(&ComponentResponse{Component: components.Index(form.Input(), panelFor(form.State()))})
}

func (a *App) submitGuidance(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return get400().response(r, fmt.Errorf("parsing guidance form: %w", err))
	}

	form := a.Sessions.Form(w, r)
	form.SetInput(domain.FormInput{
		Role:       r.PostForm.Get(string(FieldRole)),
		Experience: r.PostForm.Get(string(FieldExperience)),
		Goal:       r.PostForm.Get(string(FieldGoal)),
	})

	if seq := form.Submit(r.Context()); seq != 0 {
		a.Logger.Debug("guidance request dispatched", slog.Uint64("seq", seq))
	}

	return ok(&ComponentResponse{Component: components.StatePanel(panelFor(form.State()))})
}

func (a *App) guidanceState(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	form := a.Sessions.Form(w, r)
	return ok(&ComponentResponse{Component: components.StatePanel(panelFor(form.State()))})
}

func (a *App) editField(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return get400().response(r, fmt.Errorf("parsing field edit: %w", err))
	}

	name := r.PathValue("name")
	form := a.Sessions.Form(w, r)

	if err := form.Edit(Field(name), r.PostForm.Get(name)); err != nil {
		return get400().response(r, err)
	}

	return &ComponentResponse{Code: http.StatusNoContent, Message: "No Content"}
}

func (a *App) notFound(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	switch r.URL.Path {
	case "/", guidancePath, "/health":
		return get405().response(r, nil)
	default:
		return get404().response(r, nil)
	}
}

func (a *App) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		a.Logger.Error("encoding health response", slog.Any("error", err))
	}
}
