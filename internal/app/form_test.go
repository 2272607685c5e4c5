package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/felixbrock/careerprep/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type outcome struct {
	result *domain.GuidanceResult
	err    error
}

type pendingCall struct {
	ctx     context.Context
	input   domain.FormInput
	release chan outcome
}

// blockingRepo parks every call until the test releases it.
type blockingRepo struct {
	mu      sync.Mutex
	calls   []*pendingCall
	started chan *pendingCall
}

func newBlockingRepo() *blockingRepo {
	return &blockingRepo{started: make(chan *pendingCall, 16)}
}

func (r *blockingRepo) Generate(ctx context.Context, input domain.FormInput) (*domain.GuidanceResult, error) {
	c := &pendingCall{ctx: ctx, input: input, release: make(chan outcome, 1)}

	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()

	r.started <- c
	o := <-c.release
	return o.result, o.err
}

func (r *blockingRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *blockingRepo) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case c := <-r.started:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound call")
		return nil
	}
}

type funcRepo func(ctx context.Context, input domain.FormInput) (*domain.GuidanceResult, error)

func (fn funcRepo) Generate(ctx context.Context, input domain.FormInput) (*domain.GuidanceResult, error) {
	return fn(ctx, input)
}

type rejectedErr struct{}

func (rejectedErr) Error() string       { return "unexpected response status code 500" }
func (rejectedErr) UserMessage() string { return "Failed to generate guidance" }

func sampleResult(tag string) *domain.GuidanceResult {
	return &domain.GuidanceResult{
		ResumeFeedback:     "feedback " + tag,
		InterviewQuestions: []string{tag + " q1", tag + " q2", tag + " q3"},
		LearningRoadmap:    []string{tag + " step1", tag + " step2"},
	}
}

func filledInput() domain.FormInput {
	return domain.FormInput{Role: "Data Analyst", Experience: "Two years of Excel", Goal: "Move into analytics"}
}

func TestGuidanceFormStartsIdle(t *testing.T) {
	f := NewGuidanceForm(newBlockingRepo(), LastCompletedWins, nil)
	assert.Equal(t, Idle{}, f.State())
	assert.Equal(t, domain.FormInput{}, f.Input())
}

func TestSubmitWithEmptyFieldMakesNoCall(t *testing.T) {
	for _, field := range []Field{FieldRole, FieldExperience, FieldGoal} {
		t.Run(string(field), func(t *testing.T) {
			repo := newBlockingRepo()
			f := NewGuidanceForm(repo, LastCompletedWins, nil)
			f.SetInput(filledInput())
			require.NoError(t, f.Edit(field, ""))

			seq := f.Submit(context.Background())

			assert.Zero(t, seq)
			assert.Equal(t, Errored{Message: "Please fill in all fields"}, f.State())
			f.Wait()
			assert.Zero(t, repo.callCount())
		})
	}
}

func TestSubmitSendsCurrentInputVerbatim(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := newBlockingRepo()
	f := NewGuidanceForm(repo, LastCompletedWins, nil)
	require.NoError(t, f.Edit(FieldRole, "  Data Analyst "))
	require.NoError(t, f.Edit(FieldExperience, "Excel\nSQL"))
	require.NoError(t, f.Edit(FieldGoal, "Lead"))

	seq := f.Submit(context.Background())
	assert.Equal(t, uint64(1), seq)
	assert.Equal(t, Busy{Seq: 1}, f.State())

	c := repo.next(t)
	assert.Equal(t, domain.FormInput{Role: "  Data Analyst ", Experience: "Excel\nSQL", Goal: "Lead"}, c.input)

	c.release <- outcome{result: sampleResult("a")}
	f.Wait()

	assert.Equal(t, 1, repo.callCount())
	ready, ok := f.State().(Ready)
	require.True(t, ok, "expected Ready, got %T", f.State())
	if diff := cmp.Diff(*sampleResult("a"), ready.Result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"a q1", "a q2", "a q3"}, ready.Result.InterviewQuestions)
}

func TestSubmitFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"status rejected", rejectedErr{}, "Failed to generate guidance"},
		{"wrapped status rejected", fmt.Errorf("calling guidance: %w", rejectedErr{}), "Failed to generate guidance"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), "Something went wrong"},
		{"decode", errors.New("unexpected end of JSON input"), "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			f := NewGuidanceForm(funcRepo(func(context.Context, domain.FormInput) (*domain.GuidanceResult, error) {
				return nil, tt.err
			}), LastCompletedWins, nil)
			f.SetInput(filledInput())

			seq := f.Submit(context.Background())
			f.Wait()

			assert.Equal(t, Errored{Message: tt.want, Seq: seq}, f.State())
		})
	}
}

func TestSubmitClearsPreviousResult(t *testing.T) {
	repo := newBlockingRepo()
	f := NewGuidanceForm(repo, LastCompletedWins, nil)
	f.SetInput(filledInput())

	f.Submit(context.Background())
	repo.next(t).release <- outcome{result: sampleResult("a")}
	f.Wait()
	require.IsType(t, Ready{}, f.State())

	f.Submit(context.Background())
	assert.Equal(t, Busy{Seq: 2}, f.State())

	repo.next(t).release <- outcome{err: rejectedErr{}}
	f.Wait()
	assert.Equal(t, Errored{Message: "Failed to generate guidance", Seq: 2}, f.State())
}

func TestInvalidSubmitFromReadyDropsResult(t *testing.T) {
	f := NewGuidanceForm(funcRepo(func(context.Context, domain.FormInput) (*domain.GuidanceResult, error) {
		return sampleResult("a"), nil
	}), LastCompletedWins, nil)
	f.SetInput(filledInput())
	f.Submit(context.Background())
	f.Wait()
	require.IsType(t, Ready{}, f.State())

	require.NoError(t, f.Edit(FieldGoal, ""))
	assert.Zero(t, f.Submit(context.Background()))
	assert.Equal(t, Errored{Message: "Please fill in all fields"}, f.State())
}

// The disabled trigger is the only guard against overlap; a second Submit while
// Busy goes out as its own request.
func TestSubmitWhileBusyIssuesSecondCall(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := newBlockingRepo()
	f := NewGuidanceForm(repo, LastCompletedWins, nil)
	f.SetInput(filledInput())

	first := f.Submit(context.Background())
	second := f.Submit(context.Background())

	c1 := repo.next(t)
	c2 := repo.next(t)
	assert.Equal(t, 2, repo.callCount())
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
	assert.Equal(t, Busy{Seq: 2}, f.State())

	c1.release <- outcome{result: sampleResult("a")}
	c2.release <- outcome{result: sampleResult("b")}
	f.Wait()
}

func TestLastCompletedWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := newBlockingRepo()
	f := NewGuidanceForm(repo, LastCompletedWins, nil)
	f.SetInput(filledInput())

	f.Submit(context.Background())
	first := repo.next(t)
	f.Submit(context.Background())
	second := repo.next(t)
	assert.Equal(t, first.input, second.input)

	second.release <- outcome{result: sampleResult("second")}
	require.Eventually(t, func() bool {
		_, ok := f.State().(Ready)
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	first.release <- outcome{result: sampleResult("first")}
	f.Wait()

	ready, ok := f.State().(Ready)
	require.True(t, ok)
	assert.Equal(t, uint64(1), ready.Seq, "the older request completed last and overwrote the newer one")
	assert.Equal(t, "feedback first", ready.Result.ResumeFeedback)
}

func TestLatestIssuedWinsDropsStaleResponse(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := newBlockingRepo()
	f := NewGuidanceForm(repo, LatestIssuedWins, nil)
	f.SetInput(filledInput())

	f.Submit(context.Background())
	first := repo.next(t)
	f.Submit(context.Background())
	second := repo.next(t)

	second.release <- outcome{result: sampleResult("second")}
	require.Eventually(t, func() bool {
		_, ok := f.State().(Ready)
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	first.release <- outcome{result: sampleResult("first")}
	f.Wait()

	ready, ok := f.State().(Ready)
	require.True(t, ok)
	assert.Equal(t, uint64(2), ready.Seq)
	assert.Equal(t, "feedback second", ready.Result.ResumeFeedback)
}

func TestLatestIssuedWinsKeepsBusyOnStaleCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := newBlockingRepo()
	f := NewGuidanceForm(repo, LatestIssuedWins, nil)
	f.SetInput(filledInput())

	f.Submit(context.Background())
	first := repo.next(t)
	f.Submit(context.Background())
	second := repo.next(t)

	first.release <- outcome{err: rejectedErr{}}
	// Give the stale completion time to be applied; it must be dropped.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, Busy{Seq: 2}, f.State())

	second.release <- outcome{result: sampleResult("second")}
	f.Wait()
	assert.IsType(t, Ready{}, f.State())
}

func TestDispatchOutlivesCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	repo := newBlockingRepo()
	f := NewGuidanceForm(repo, LastCompletedWins, nil)
	f.SetInput(filledInput())
	f.Submit(ctx)
	cancel()

	c := repo.next(t)
	assert.NoError(t, c.ctx.Err())
	c.release <- outcome{result: sampleResult("a")}
	f.Wait()
	assert.IsType(t, Ready{}, f.State())
}

func TestWaitCoversSubmitMadeWhileWaiting(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := newBlockingRepo()
	f := NewGuidanceForm(repo, LastCompletedWins, nil)
	f.Wait()

	f.SetInput(filledInput())
	f.Submit(context.Background())
	first := repo.next(t)

	waited := make(chan struct{})
	go func() {
		f.Wait()
		close(waited)
	}()

	f.Submit(context.Background())
	second := repo.next(t)
	first.release <- outcome{result: sampleResult("first")}

	select {
	case <-waited:
		t.Fatal("Wait returned with a request still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	second.release <- outcome{result: sampleResult("second")}

	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after both requests were applied")
	}
	assert.Equal(t, "feedback second", f.State().(Ready).Result.ResumeFeedback)
}

func TestEditUnknownField(t *testing.T) {
	f := NewGuidanceForm(newBlockingRepo(), LastCompletedWins, nil)
	assert.Error(t, f.Edit(Field("salary"), "lots"))
	assert.Equal(t, domain.FormInput{}, f.Input())
}

func TestParseStalePolicy(t *testing.T) {
	p, err := ParseStalePolicy("")
	require.NoError(t, err)
	assert.Equal(t, LastCompletedWins, p)

	p, err = ParseStalePolicy("latest-issued")
	require.NoError(t, err)
	assert.Equal(t, LatestIssuedWins, p)
	assert.Equal(t, "latest-issued", p.String())

	_, err = ParseStalePolicy("first-wins")
	assert.Error(t, err)
}
