package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aristath/consilium/internal/events"
	"github.com/aristath/consilium/internal/producer"
	"github.com/aristath/consilium/internal/scheduler"
)

const (
	approvingCritique = `STRENGTHS:
- Solid coverage

CRITICAL ISSUES:
None

APPROVAL: YES
CONFIDENCE: 0.9`

	rejectingCritique = `CONCERNS:
- Missing the budget breakdown

CRITICAL ISSUES:
- No success metrics defined

APPROVAL: NO
CONFIDENCE: 0.7`
)

// scriptedProducer returns canned responses and records every request.
type scriptedProducer struct {
	mu      sync.Mutex
	calls   []producer.Request
	respond func(req producer.Request, reviewCall int) (string, error)

	reviewCalls int
}

func (p *scriptedProducer) Generate(_ context.Context, req producer.Request) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	reviewCall := 0
	if isReviewRequest(req) {
		p.reviewCalls++
		reviewCall = p.reviewCalls
	}
	respond := p.respond
	p.mu.Unlock()

	if respond != nil {
		return respond(req, reviewCall)
	}
	if reviewCall > 0 {
		return approvingCritique, nil
	}
	return "content for " + req.Role, nil
}

func isReviewRequest(req producer.Request) bool {
	return strings.Contains(req.Instructions, "peer review")
}

func (p *scriptedProducer) callCount(filter func(producer.Request) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, req := range p.calls {
		if filter(req) {
			n++
		}
	}
	return n
}

func genTask(id, role string, deps ...string) *scheduler.Task {
	return &scheduler.Task{
		ID: id, Title: id, Role: role,
		Kind: scheduler.KindGenerate, Instructions: "produce " + id,
		DependsOn: deps,
	}
}

func revTask(id, role, target string) *scheduler.Task {
	return &scheduler.Task{
		ID: id, Title: id, Role: role,
		Kind:      scheduler.KindReview,
		Targets:   []string{target},
		DependsOn: []string{target},
	}
}

func statusOf(t *testing.T, result *Result, id string) scheduler.TaskStatus {
	t.Helper()
	for _, task := range result.Tasks {
		if task.ID == id {
			return task.Status
		}
	}
	t.Fatalf("task %q not in result", id)
	return 0
}

func taskOf(t *testing.T, result *Result, id string) *scheduler.Task {
	t.Helper()
	for _, task := range result.Tasks {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %q not in result", id)
	return nil
}

// TestExecuteWorkflowApprovalPath tests a single generate/review pair that is
// approved on first review.
func TestExecuteWorkflowApprovalPath(t *testing.T) {
	prod := &scriptedProducer{}
	coord := New(prod, Options{MaxRounds: 5}, nil)

	result, err := coord.ExecuteWorkflow(context.Background(), []*scheduler.Task{
		genTask("draft", "strategist"),
		revTask("draft_review", "analyst", "draft"),
	})
	if err != nil {
		t.Fatalf("ExecuteWorkflow() error = %v, want nil", err)
	}

	if got := statusOf(t, result, "draft"); got != scheduler.TaskApproved {
		t.Errorf("draft status = %v, want approved", got)
	}
	if got := statusOf(t, result, "draft_review"); got != scheduler.TaskDone {
		t.Errorf("draft_review status = %v, want done", got)
	}
	if result.Rounds != 1 {
		t.Errorf("Rounds = %d, want 1", result.Rounds)
	}
	if result.Outputs["draft"] == "" {
		t.Error("draft output missing from Outputs")
	}

	review := taskOf(t, result, "draft")
	if len(review.Reviews) != 1 || !review.Reviews[0].Approved {
		t.Errorf("draft reviews = %+v, want one approving review", review.Reviews)
	}
}

// TestExecuteWorkflowRevisionCycle tests that a rejection forces
// re-execution and the reviewer re-reviews the regenerated output.
func TestExecuteWorkflowRevisionCycle(t *testing.T) {
	prod := &scriptedProducer{
		respond: func(req producer.Request, reviewCall int) (string, error) {
			if reviewCall == 1 {
				return rejectingCritique, nil
			}
			if reviewCall > 1 {
				return approvingCritique, nil
			}
			return "content for " + req.Role, nil
		},
	}
	coord := New(prod, Options{MaxRounds: 5}, nil)

	result, err := coord.ExecuteWorkflow(context.Background(), []*scheduler.Task{
		genTask("draft", "strategist"),
		revTask("draft_review", "analyst", "draft"),
	})
	if err != nil {
		t.Fatalf("ExecuteWorkflow() error = %v, want nil", err)
	}

	if got := statusOf(t, result, "draft"); got != scheduler.TaskApproved {
		t.Errorf("draft status = %v, want approved", got)
	}
	if result.Rounds != 2 {
		t.Errorf("Rounds = %d, want 2", result.Rounds)
	}

	draft := taskOf(t, result, "draft")
	if draft.RevisionCount != 1 {
		t.Errorf("RevisionCount = %d, want 1", draft.RevisionCount)
	}
	if len(draft.Reviews) != 2 {
		t.Errorf("Reviews = %d, want 2 (rejection then approval)", len(draft.Reviews))
	}

	// The regeneration call must carry the critique back to the agent.
	revised := prod.callCount(func(req producer.Request) bool {
		return !isReviewRequest(req) && strings.Contains(req.Context, "REVISION REQUIRED")
	})
	if revised != 1 {
		t.Errorf("revision calls with critique context = %d, want 1", revised)
	}
}

// TestExecuteWorkflowRoundBudget tests that a never-approving reviewer is
// bounded by MaxRounds and the stuck report names only the unfinished task.
func TestExecuteWorkflowRoundBudget(t *testing.T) {
	prod := &scriptedProducer{
		respond: func(req producer.Request, reviewCall int) (string, error) {
			if reviewCall > 0 {
				return rejectingCritique, nil
			}
			return "content", nil
		},
	}
	coord := New(prod, Options{MaxRounds: 3}, nil)

	result, err := coord.ExecuteWorkflow(context.Background(), []*scheduler.Task{
		genTask("draft", "strategist"),
		revTask("draft_review", "analyst", "draft"),
	})

	var incomplete *scheduler.WorkflowIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("ExecuteWorkflow() error = %v, want *WorkflowIncompleteError", err)
	}
	if incomplete.Rounds != 3 {
		t.Errorf("Rounds = %d, want 3", incomplete.Rounds)
	}
	if len(incomplete.Stuck) != 1 || incomplete.Stuck[0].ID != "draft" {
		t.Errorf("Stuck = %+v, want only draft", incomplete.Stuck)
	}
	if incomplete.Stuck[0].Status != scheduler.TaskNeedsRevision {
		t.Errorf("Stuck status = %v, want needs_revision", incomplete.Stuck[0].Status)
	}

	// Partial result is still returned for reporting.
	if result == nil || len(result.Tasks) != 2 {
		t.Fatalf("partial result = %+v, want full snapshot", result)
	}
	draft := taskOf(t, result, "draft")
	if draft.RevisionCount != 3 {
		t.Errorf("RevisionCount = %d, want 3", draft.RevisionCount)
	}
}

// TestExecuteWorkflowDependencyCycle tests that a cyclic graph terminates
// immediately with every member reported stuck.
func TestExecuteWorkflowDependencyCycle(t *testing.T) {
	prod := &scriptedProducer{}
	coord := New(prod, Options{MaxRounds: 5}, nil)

	_, err := coord.ExecuteWorkflow(context.Background(), []*scheduler.Task{
		genTask("a", "r", "b"),
		genTask("b", "r", "a"),
	})

	var incomplete *scheduler.WorkflowIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("ExecuteWorkflow() error = %v, want *WorkflowIncompleteError", err)
	}
	if len(incomplete.Stuck) != 2 {
		t.Errorf("Stuck = %+v, want both cycle members", incomplete.Stuck)
	}
	// Nothing is ever ready, so no round runs and no producer call happens.
	if incomplete.Rounds != 0 {
		t.Errorf("Rounds = %d, want 0", incomplete.Rounds)
	}
	if len(prod.calls) != 0 {
		t.Errorf("producer calls = %d, want 0", len(prod.calls))
	}
}

// TestExecuteWorkflowDependencyGating tests that a dependent task never runs
// before its dependency reaches terminal success.
func TestExecuteWorkflowDependencyGating(t *testing.T) {
	var mu sync.Mutex
	seen := []string{}
	prod := &scriptedProducer{
		respond: func(req producer.Request, reviewCall int) (string, error) {
			mu.Lock()
			seen = append(seen, req.Role)
			mu.Unlock()
			if reviewCall > 0 {
				return approvingCritique, nil
			}
			return "content", nil
		},
	}
	coord := New(prod, Options{MaxRounds: 5}, nil)

	_, err := coord.ExecuteWorkflow(context.Background(), []*scheduler.Task{
		genTask("first", "upstream"),
		revTask("first_review", "reviewer", "first"),
		genTask("second", "downstream", "first"),
		revTask("second_review", "reviewer", "second"),
	})
	if err != nil {
		t.Fatalf("ExecuteWorkflow() error = %v, want nil", err)
	}

	mu.Lock()
	defer mu.Unlock()
	firstIdx, secondIdx := -1, -1
	for i, role := range seen {
		if role == "upstream" && firstIdx < 0 {
			firstIdx = i
		}
		if role == "downstream" && secondIdx < 0 {
			secondIdx = i
		}
	}
	if firstIdx < 0 || secondIdx < 0 {
		t.Fatalf("expected both upstream and downstream calls, got %v", seen)
	}
	if secondIdx < firstIdx {
		t.Errorf("downstream ran before upstream: %v", seen)
	}
}

// TestExecuteWorkflowReviewWaitsForOutput tests that a review whose target
// has produced nothing is never dispatched.
func TestExecuteWorkflowReviewWaitsForOutput(t *testing.T) {
	prod := &scriptedProducer{
		respond: func(req producer.Request, reviewCall int) (string, error) {
			if reviewCall > 0 {
				return approvingCritique, nil
			}
			return "", fmt.Errorf("endpoint unavailable")
		},
	}
	coord := New(prod, Options{MaxRounds: 2}, nil)

	result, err := coord.ExecuteWorkflow(context.Background(), []*scheduler.Task{
		genTask("draft", "strategist"),
		revTask("draft_review", "analyst", "draft"),
	})

	var incomplete *scheduler.WorkflowIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("ExecuteWorkflow() error = %v, want *WorkflowIncompleteError", err)
	}

	if n := prod.callCount(isReviewRequest); n != 0 {
		t.Errorf("review producer calls = %d, want 0 when the target has no output", n)
	}
	if got := statusOf(t, result, "draft"); got != scheduler.TaskPending {
		t.Errorf("draft status = %v, want pending after producer failures", got)
	}
	if got := statusOf(t, result, "draft_review"); got != scheduler.TaskPending {
		t.Errorf("draft_review status = %v, want pending", got)
	}
}

// TestExecuteWorkflowRejectionPrecedence tests that when an approval and a
// rejection land on the same target in one round, the rejection wins.
func TestExecuteWorkflowRejectionPrecedence(t *testing.T) {
	var rejected sync.Once
	prod := &scriptedProducer{
		respond: func(req producer.Request, reviewCall int) (string, error) {
			if reviewCall == 0 {
				return "content", nil
			}
			if req.Role == "rejector" {
				verdict := approvingCritique
				rejected.Do(func() { verdict = rejectingCritique })
				return verdict, nil
			}
			return approvingCritique, nil
		},
	}
	coord := New(prod, Options{MaxRounds: 5}, nil)

	result, err := coord.ExecuteWorkflow(context.Background(), []*scheduler.Task{
		genTask("draft", "strategist"),
		revTask("approving_review", "approver", "draft"),
		revTask("rejecting_review", "rejector", "draft"),
	})
	if err != nil {
		t.Fatalf("ExecuteWorkflow() error = %v, want nil", err)
	}

	draft := taskOf(t, result, "draft")
	if draft.Status != scheduler.TaskApproved {
		t.Errorf("draft status = %v, want approved after the revision round", draft.Status)
	}
	// Round 1 ends in rejection despite the concurrent approval, so exactly
	// one revision was forced.
	if draft.RevisionCount != 1 {
		t.Errorf("RevisionCount = %d, want 1", draft.RevisionCount)
	}
	if result.Rounds != 2 {
		t.Errorf("Rounds = %d, want 2", result.Rounds)
	}
	// Both reviewers re-review the regenerated output.
	if len(draft.Reviews) != 4 {
		t.Errorf("Reviews = %d, want 4 (two per round)", len(draft.Reviews))
	}
}

// TestExecuteWorkflowIngestErrors tests that invalid task sets fail before
// any producer call.
func TestExecuteWorkflowIngestErrors(t *testing.T) {
	prod := &scriptedProducer{}
	coord := New(prod, Options{}, nil)

	t.Run("duplicate ID", func(t *testing.T) {
		_, err := coord.ExecuteWorkflow(context.Background(), []*scheduler.Task{
			genTask("a", "r"), genTask("a", "r"),
		})
		var dup *scheduler.DuplicateIDError
		if !errors.As(err, &dup) {
			t.Errorf("error = %v, want *DuplicateIDError", err)
		}
	})

	t.Run("dangling dependency", func(t *testing.T) {
		_, err := coord.ExecuteWorkflow(context.Background(), []*scheduler.Task{
			genTask("a", "r", "missing"),
		})
		var unknown *scheduler.UnknownDependencyError
		if !errors.As(err, &unknown) {
			t.Errorf("error = %v, want *UnknownDependencyError", err)
		}
	})

	if len(prod.calls) != 0 {
		t.Errorf("producer calls = %d, want 0 on ingest failure", len(prod.calls))
	}
}

// TestExecuteWorkflowCancellation tests that cancellation aborts the run and
// leaves no task stranded in progress.
func TestExecuteWorkflowCancellation(t *testing.T) {
	t.Run("cancelled before the first round", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		coord := New(&scriptedProducer{}, Options{}, nil)
		result, err := coord.ExecuteWorkflow(ctx, []*scheduler.Task{genTask("a", "r")})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		if got := statusOf(t, result, "a"); got != scheduler.TaskPending {
			t.Errorf("status = %v, want pending", got)
		}
	})

	t.Run("cancelled mid generate phase", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		prod := &scriptedProducer{
			respond: func(req producer.Request, reviewCall int) (string, error) {
				cancel()
				return "late result", nil
			},
		}
		coord := New(prod, Options{MaxRounds: 5}, nil)

		result, err := coord.ExecuteWorkflow(ctx, []*scheduler.Task{genTask("a", "r")})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		// The in-flight result is discarded and the task restored.
		task := taskOf(t, result, "a")
		if task.Status != scheduler.TaskPending {
			t.Errorf("status = %v, want pending after cancellation", task.Status)
		}
		if task.Output != "" {
			t.Errorf("output = %q, want discarded", task.Output)
		}
	})
}

// TestExecuteWorkflowConcurrencyLimit tests that dispatch honors the
// configured parallelism cap.
func TestExecuteWorkflowConcurrencyLimit(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	prod := &scriptedProducer{
		respond: func(req producer.Request, reviewCall int) (string, error) {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return "content", nil
		},
	}
	coord := New(prod, Options{MaxRounds: 1, Concurrency: 2}, nil)

	tasks := []*scheduler.Task{
		genTask("a", "r"), genTask("b", "r"), genTask("c", "r"), genTask("d", "r"),
	}
	// Tasks have no reviewers, so the run ends incomplete; only the
	// parallelism cap is under test here.
	_, err := coord.ExecuteWorkflow(context.Background(), tasks)
	var incomplete *scheduler.WorkflowIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("error = %v, want *WorkflowIncompleteError", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Errorf("peak concurrent producer calls = %d, want <= 2", peak)
	}
	if len(prod.calls) != 4 {
		t.Errorf("producer calls = %d, want 4", len(prod.calls))
	}
}

// TestExecuteWorkflowEvents tests the progress events of a clean run.
func TestExecuteWorkflowEvents(t *testing.T) {
	bus := events.NewEventBus()
	ch := bus.SubscribeAll(64)

	coord := New(&scriptedProducer{}, Options{MaxRounds: 5}, bus)
	_, err := coord.ExecuteWorkflow(context.Background(), []*scheduler.Task{
		genTask("draft", "strategist"),
		revTask("draft_review", "analyst", "draft"),
	})
	if err != nil {
		t.Fatalf("ExecuteWorkflow() error = %v, want nil", err)
	}
	bus.Close()

	types := map[string]int{}
	for ev := range ch {
		types[ev.EventType()]++
	}

	for _, want := range []string{
		events.EventTypeRoundStarted,
		events.EventTypeTaskStarted,
		events.EventTypeTaskOutput,
		events.EventTypeReviewRecorded,
		events.EventTypeTaskApproved,
		events.EventTypeWorkflowFinished,
	} {
		if types[want] == 0 {
			t.Errorf("no %s event published; saw %v", want, types)
		}
	}
	if types[events.EventTypeWorkflowFinished] != 1 {
		t.Errorf("workflow.finished published %d times, want 1", types[events.EventTypeWorkflowFinished])
	}
}

// TestExecuteWorkflowPersonaSource tests that the persona override reaches
// the producer.
func TestExecuteWorkflowPersonaSource(t *testing.T) {
	prod := &scriptedProducer{}
	coord := New(prod, Options{MaxRounds: 1}, nil)
	coord.SetPersonaSource(func(role string) string { return "custom persona for " + role })

	_, _ = coord.ExecuteWorkflow(context.Background(), []*scheduler.Task{genTask("a", "strategist")})

	if len(prod.calls) != 1 {
		t.Fatalf("producer calls = %d, want 1", len(prod.calls))
	}
	if got := prod.calls[0].SystemPersona; got != "custom persona for strategist" {
		t.Errorf("SystemPersona = %q, want the override", got)
	}
}
