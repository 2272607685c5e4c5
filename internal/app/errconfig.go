package app

import (
	"net/http"

	"github.com/felixbrock/careerprep/internal/components"
)

type errCtx struct {
	Code  int
	Title string
	Msg   string
}

func get400() errCtx {
	return errCtx{
		Code:  400,
		Title: "Bad request",
		Msg:   "Sorry, we couldn't process what was sent.",
	}
}

func get404() errCtx {
	return errCtx{
		Code:  404,
		Title: "Not found",
		Msg:   "Sorry, we couldn't find the page you were looking for.",
	}
}

func get405() errCtx {
	return errCtx{
		Code:  405,
		Title: "Method not allowed",
		Msg:   "Sorry, that action isn't supported here.",
	}
}

func get429() errCtx {
	return errCtx{
		Code:  429,
		Title: "Too many requests",
		Msg:   "Sorry, you're going a bit fast. Please try again in a moment.",
	}
}

func get500() errCtx {
	return errCtx{
		Code:  500,
		Title: "Internal server error",
		Msg:   "Sorry, there was an internal server error.",
	}
}

// response renders the error as a full page, or as a fragment for htmx requests.
// Fragments for /guidance are state panels because that is what the form swaps in
// and what a busy panel polls; a failed poll leaves the busy panel in place.
func (e errCtx) response(r *http.Request, err error) *ComponentResponse {
	resp := &ComponentResponse{
		Error:       err,
		Message:     e.Title,
		Code:        e.Code,
		ContentType: "text/html; charset=utf-8",
		Component:   components.ErrorPage(e.Code, e.Title, e.Msg),
	}

	if !isHtmx(r) {
		return resp
	}

	if r.URL.Path != guidancePath {
		resp.Component = components.Error(e.Code, e.Title, e.Msg)
		return resp
	}

	resp.Component = components.StatePanel(components.Panel{Error: e.Msg})
	if r.Method == http.MethodGet {
		resp.Header = http.Header{"HX-Reswap": {"none"}}
	}
	return resp
}
