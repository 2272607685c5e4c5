package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixbrock/careerprep/internal/domain"
)

const (
	validationMsg = "Please fill in all fields"
	fallbackMsg   = "Something went wrong"
)

type GuidanceRepo interface {
	Generate(ctx context.Context, input domain.FormInput) (*domain.GuidanceResult, error)
}

// State is one of Idle, Busy, Errored or Ready.
type State interface {
	state()
}

type Idle struct{}

type Busy struct {
	Seq uint64
}

// Errored has Seq 0 when the error came from local validation.
type Errored struct {
	Message string
	Seq     uint64
}

type Ready struct {
	Result domain.GuidanceResult
	Seq    uint64
}

func (Idle) state()    {}
func (Busy) state()    {}
func (Errored) state() {}
func (Ready) state()   {}

// StalePolicy decides what happens to a response that completes after a newer
// request was issued.
type StalePolicy int

const (
	// LastCompletedWins applies every completion in the order it arrives.
	LastCompletedWins StalePolicy = iota
	// LatestIssuedWins drops completions whose sequence is not the latest issued.
	LatestIssuedWins
)

func (p StalePolicy) String() string {
	switch p {
	case LastCompletedWins:
		return "last-completed"
	case LatestIssuedWins:
		return "latest-issued"
	default:
		return fmt.Sprintf("StalePolicy(%d)", int(p))
	}
}

func ParseStalePolicy(s string) (StalePolicy, error) {
	switch s {
	case "", "last-completed":
		return LastCompletedWins, nil
	case "latest-issued":
		return LatestIssuedWins, nil
	default:
		return 0, fmt.Errorf("unknown stale policy %q", s)
	}
}

type Field string

const (
	FieldRole       Field = "role"
	FieldExperience Field = "experience"
	FieldGoal       Field = "goal"
)

// GuidanceForm holds the inputs and the submission state of one user.
type GuidanceForm struct {
	repo   GuidanceRepo
	policy StalePolicy
	logger *slog.Logger

	mu    sync.Mutex
	input domain.FormInput
	state State
	seq   uint64

	// inflight counts dispatched requests not yet applied; settled is signalled
	// when it drops to zero.
	inflight int
	settled  *sync.Cond
}

func NewGuidanceForm(repo GuidanceRepo, policy StalePolicy, logger *slog.Logger) *GuidanceForm {
	if logger == nil {
		logger = slog.Default()
	}

	f := &GuidanceForm{repo: repo, policy: policy, logger: logger, state: Idle{}}
	f.settled = sync.NewCond(&f.mu)
	return f
}

func (f *GuidanceForm) Edit(field Field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case FieldRole:
		f.input.Role = value
	case FieldExperience:
		f.input.Experience = value
	case FieldGoal:
		f.input.Goal = value
	default:
		return fmt.Errorf("unknown field %q", field)
	}

	return nil
}

func (f *GuidanceForm) SetInput(input domain.FormInput) {
	f.mu.Lock()
	f.input = input
	f.mu.Unlock()
}

func (f *GuidanceForm) Input() domain.FormInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

func (f *GuidanceForm) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit validates the current input and, when it passes, dispatches one request in
// the background and returns its sequence number. It returns 0 when validation
// failed. Nothing stops a second Submit while the first is still in flight.
func (f *GuidanceForm) Submit(ctx context.Context) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	input := f.input
	if err := input.Validate(); err != nil {
		f.state = Errored{Message: validationMsg}
		return 0
	}

	f.seq++
	seq := f.seq
	f.state = Busy{Seq: seq}

	f.inflight++
	go f.dispatch(context.WithoutCancel(ctx), seq, input)

	return seq
}

// Wait blocks until no request is in flight. A Submit made while Wait is blocked
// extends the wait to that request too.
func (f *GuidanceForm) Wait() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for f.inflight > 0 {
		f.settled.Wait()
	}
}

func (f *GuidanceForm) dispatch(ctx context.Context, seq uint64, input domain.FormInput) {
	result, err := f.repo.Generate(ctx, input)

	if err != nil {
		f.logger.Warn("guidance request failed", slog.Uint64("seq", seq), slog.Any("error", err))
		f.apply(seq, Errored{Message: userMessage(err), Seq: seq})
		return
	}

	f.apply(seq, Ready{Result: *result, Seq: seq})
}

func (f *GuidanceForm) apply(seq uint64, next State) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inflight--
	if f.inflight == 0 {
		f.settled.Broadcast()
	}

	if f.policy == LatestIssuedWins && seq != f.seq {
		f.logger.Debug("dropping stale guidance response", slog.Uint64("seq", seq), slog.Uint64("latest", f.seq))
		return
	}

	f.state = next
}

type userMessager interface {
	UserMessage() string
}

func userMessage(err error) string {
	var m userMessager
	if errors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallbackMsg
}
