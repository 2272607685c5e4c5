package components

import "github.com/felixbrock/careerprep/internal/domain"

// Panel is what the state fragment shows. At most one of Busy, Error and Result
// is set.
type Panel struct {
	Busy   bool
	Error  string
	Result *domain.GuidanceResult
}

const (
	idleLabel = "Generate Career Guidance"
	busyLabel = "Generating insights…"
)

// fieldEditURL is where every keystroke in a field is posted so the server-side
// form always holds what the user sees.
func fieldEditURL(name string) string {
	return "/guidance/field/" + name
}
