// Package coordinator drives a task graph to completion: it dispatches ready
// tasks to the content producer round by round, applies peer-review
// outcomes, and iterates until the graph converges or the round budget is
// exhausted.
package coordinator

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/consilium/internal/events"
	"github.com/aristath/consilium/internal/persona"
	"github.com/aristath/consilium/internal/producer"
	"github.com/aristath/consilium/internal/review"
	"github.com/aristath/consilium/internal/scheduler"
)

// Options configures a workflow run.
type Options struct {
	MaxRounds           int           // Round budget (default 10)
	Concurrency         int           // Max concurrent producer calls (default 4)
	CallTimeout         time.Duration // Per-call timeout (default 2min)
	ContextExcerptChars int           // Max chars taken from each dependency output (default 1500)
	ReviewPreviewChars  int           // Max chars of target output embedded in a review prompt (default 2000)
}

func (o Options) withDefaults() Options {
	if o.MaxRounds <= 0 {
		o.MaxRounds = 10
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 2 * time.Minute
	}
	if o.ContextExcerptChars <= 0 {
		o.ContextExcerptChars = 1500
	}
	if o.ReviewPreviewChars <= 0 {
		o.ReviewPreviewChars = 2000
	}
	return o
}

// Coordinator executes workflows against a content producer. A single
// Coordinator may run many workflows; each ExecuteWorkflow call owns an
// independent task graph, so concurrent runs do not share state.
type Coordinator struct {
	producer producer.Producer
	personas func(role string) string
	bus      *events.EventBus // Optional; nil disables progress events
	opts     Options
}

// New creates a Coordinator. bus may be nil.
func New(p producer.Producer, opts Options, bus *events.EventBus) *Coordinator {
	return &Coordinator{
		producer: p,
		personas: persona.SystemPrompt,
		bus:      bus,
		opts:     opts.withDefaults(),
	}
}

// SetPersonaSource replaces the built-in persona registry, letting callers
// inject config-level system-prompt overrides.
func (c *Coordinator) SetPersonaSource(fn func(role string) string) {
	if fn != nil {
		c.personas = fn
	}
}

// Result is the outcome of one workflow run.
type Result struct {
	Outputs map[string]string // Task ID -> final output, for every task with output
	Tasks   []*scheduler.Task // Full graph snapshot for audit and reporting
	Rounds  int               // Rounds actually executed
}

// ExecuteWorkflow ingests the tasks into a fresh graph and runs rounds until
// every task is terminal, no task is ready, or the round budget is spent.
//
// A run that ends with non-terminal tasks returns the partial Result
// together with a *scheduler.WorkflowIncompleteError listing the stuck
// tasks; a legitimately finished run returns a nil error. Ingest failures
// (duplicate or dangling IDs) return before any producer call.
func (c *Coordinator) ExecuteWorkflow(ctx context.Context, tasks []*scheduler.Task) (*Result, error) {
	graph := scheduler.NewGraph()
	if err := graph.Ingest(tasks); err != nil {
		return nil, err
	}

	rounds := 0
	for rounds < c.opts.MaxRounds {
		if err := ctx.Err(); err != nil {
			return c.result(graph, rounds), err
		}

		ready := graph.Ready()
		if len(ready) == 0 {
			break
		}
		rounds++

		c.publish(events.TopicWorkflow, events.RoundStartedEvent{
			Round: rounds, Ready: len(ready), Timestamp: time.Now(),
		})

		generates := make([]*scheduler.Task, 0, len(ready))
		for _, task := range ready {
			if task.Kind == scheduler.KindGenerate {
				generates = append(generates, task)
			}
		}
		if err := c.runGeneratePhase(ctx, graph, generates); err != nil {
			return c.result(graph, rounds), err
		}

		// Reviews run on readiness recomputed after the generate phase, so
		// output produced this round is reviewed this round.
		reviews := make([]*scheduler.Task, 0)
		for _, task := range graph.Ready() {
			if task.Kind == scheduler.KindReview {
				reviews = append(reviews, task)
			}
		}
		if err := c.runReviewPhase(ctx, graph, reviews); err != nil {
			return c.result(graph, rounds), err
		}

		if len(graph.NonTerminal()) == 0 {
			break
		}
	}

	res := c.result(graph, rounds)
	stuck := graph.NonTerminal()

	c.publish(events.TopicWorkflow, events.WorkflowFinishedEvent{
		Rounds: rounds, Complete: len(stuck) == 0, Stuck: len(stuck), Timestamp: time.Now(),
	})

	if len(stuck) > 0 {
		return res, &scheduler.WorkflowIncompleteError{Rounds: rounds, Stuck: stuck}
	}
	return res, nil
}

func (c *Coordinator) result(graph *scheduler.Graph, rounds int) *Result {
	snapshot := graph.Snapshot()
	outputs := make(map[string]string)
	for _, task := range snapshot {
		if task.Output != "" {
			outputs[task.ID] = task.Output
		}
	}
	return &Result{Outputs: outputs, Tasks: snapshot, Rounds: rounds}
}

// generateOutcome carries one generate call's result back to the apply step.
type generateOutcome struct {
	id     string
	prior  scheduler.TaskStatus
	output string
	err    error
}

// runGeneratePhase dispatches the given generate tasks concurrently, then
// applies all outcomes serially so the next readiness computation sees a
// consistent graph. On cancellation, in-flight results are discarded and
// every dispatched task is restored to its prior status.
func (c *Coordinator) runGeneratePhase(ctx context.Context, graph *scheduler.Graph, tasks []*scheduler.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	outcomes := make([]generateOutcome, len(tasks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i, task := range tasks {
		prior := task.Status
		_ = graph.SetStatus(task.ID, scheduler.TaskInProgress)

		c.publish(events.TopicTask, events.TaskStartedEvent{
			ID: task.ID, Title: task.Title, Role: task.Role,
			Kind: task.Kind.String(), Timestamp: time.Now(),
		})

		i, task := i, task
		g.Go(func() error {
			output, err := c.callProducer(gctx, producer.Request{
				Role:          task.Role,
				Instructions:  task.Instructions,
				Context:       c.generateContext(graph, task),
				SystemPersona: c.personas(task.Role),
			})
			mu.Lock()
			outcomes[i] = generateOutcome{id: task.ID, prior: prior, output: output, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for i, task := range tasks {
			_ = graph.SetStatus(task.ID, outcomes[i].priorOr(task.Status))
		}
		return err
	}

	for _, oc := range outcomes {
		if oc.err != nil {
			// Not retried within the round; the task stays eligible next
			// round, bounded by MaxRounds.
			log.Printf("producer call failed for task %q: %v", oc.id, oc.err)
			_ = graph.SetStatus(oc.id, oc.prior)
			c.publish(events.TopicTask, events.TaskFailedEvent{
				ID: oc.id, Err: &TransientProducerError{TaskID: oc.id, Err: oc.err}, Timestamp: time.Now(),
			})
			continue
		}

		_ = graph.SetOutput(oc.id, oc.output)
		_ = graph.SetStatus(oc.id, scheduler.TaskAwaitingReview)

		// Fresh output invalidates earlier verdicts: reviewers that already
		// went Done are re-armed so regenerated work gets re-reviewed.
		for _, reviewerID := range graph.ReviewersOf(oc.id) {
			if reviewer, ok := graph.Get(reviewerID); ok && reviewer.Status == scheduler.TaskDone {
				_ = graph.SetStatus(reviewerID, scheduler.TaskPending)
			}
		}

		task, _ := graph.Get(oc.id)
		c.publish(events.TopicTask, events.TaskOutputEvent{
			ID: oc.id, Chars: len(oc.output), Revision: task.RevisionCount, Timestamp: time.Now(),
		})
	}
	return nil
}

func (oc generateOutcome) priorOr(fallback scheduler.TaskStatus) scheduler.TaskStatus {
	if oc.id == "" {
		return fallback
	}
	return oc.prior
}

// reviewOutcome carries one review call's result back to the apply step.
type reviewOutcome struct {
	reviewID string
	targetID string
	prior    scheduler.TaskStatus
	critique string
	err      error
	skipped  bool
}

// runReviewPhase dispatches the given review tasks concurrently and applies
// outcomes serially in task order. A review whose target has no output is
// never sent to the producer; it stays Pending and is retried next round.
// When two reviews land on the same target in one round, a rejection takes
// precedence over an approval.
func (c *Coordinator) runReviewPhase(ctx context.Context, graph *scheduler.Graph, tasks []*scheduler.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	outcomes := make([]reviewOutcome, len(tasks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i, task := range tasks {
		targetID := task.Target()
		target, ok := graph.Get(targetID)
		if !ok || target.Output == "" {
			outcomes[i] = reviewOutcome{reviewID: task.ID, skipped: true}
			continue
		}

		prior := task.Status
		_ = graph.SetStatus(task.ID, scheduler.TaskInProgress)

		c.publish(events.TopicTask, events.TaskStartedEvent{
			ID: task.ID, Title: task.Title, Role: task.Role,
			Kind: task.Kind.String(), Timestamp: time.Now(),
		})

		i, task, target := i, task, target
		g.Go(func() error {
			critique, err := c.callProducer(gctx, producer.Request{
				Role:          task.Role,
				Instructions:  reviewInstructions(target, c.opts.ReviewPreviewChars),
				SystemPersona: c.personas(task.Role),
			})
			mu.Lock()
			outcomes[i] = reviewOutcome{
				reviewID: task.ID, targetID: target.ID, prior: prior,
				critique: critique, err: err,
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for i, task := range tasks {
			if !outcomes[i].skipped && outcomes[i].reviewID != "" {
				_ = graph.SetStatus(task.ID, outcomes[i].prior)
			} else if outcomes[i].reviewID == "" {
				_ = graph.SetStatus(task.ID, task.Status)
			}
		}
		return err
	}

	for _, oc := range outcomes {
		if oc.skipped {
			continue
		}
		if oc.err != nil {
			log.Printf("producer call failed for review %q: %v", oc.reviewID, oc.err)
			_ = graph.SetStatus(oc.reviewID, oc.prior)
			c.publish(events.TopicTask, events.TaskFailedEvent{
				ID: oc.reviewID, Err: &TransientProducerError{TaskID: oc.reviewID, Err: oc.err}, Timestamp: time.Now(),
			})
			continue
		}
		c.applyReview(graph, oc)
	}
	return nil
}

// applyReview interprets one critique and applies its outcome to the target.
func (c *Coordinator) applyReview(graph *scheduler.Graph, oc reviewOutcome) {
	reviewer, _ := graph.Get(oc.reviewID)

	decision := review.Interpret(oc.critique)
	record := scheduler.Review{
		ReviewerRole:   reviewer.Role,
		TargetTaskID:   oc.targetID,
		Approved:       decision.Approved,
		Strengths:      decision.Strengths,
		Concerns:       decision.Concerns,
		CriticalIssues: decision.CriticalIssues,
		Confidence:     decision.Confidence,
	}
	_ = graph.AppendReview(oc.targetID, record)
	_ = graph.SetOutput(oc.reviewID, oc.critique)

	c.publish(events.TopicTask, events.ReviewRecordedEvent{
		ID: oc.targetID, ReviewerRole: reviewer.Role, Approved: decision.Approved,
		Critical: len(decision.CriticalIssues), Timestamp: time.Now(),
	})

	target, _ := graph.Get(oc.targetID)
	if decision.Accepted() {
		// Only promote from AwaitingReview: a rejection applied earlier in
		// this round must not be overturned by a concurrent approval.
		if target.Status == scheduler.TaskAwaitingReview {
			_ = graph.SetStatus(oc.targetID, scheduler.TaskApproved)
			c.publish(events.TopicTask, events.TaskApprovedEvent{ID: oc.targetID, Timestamp: time.Now()})
		}
	} else {
		if target.Status == scheduler.TaskAwaitingReview || target.Status == scheduler.TaskApproved {
			_ = graph.SetStatus(oc.targetID, scheduler.TaskNeedsRevision)
			_ = graph.IncrementRevision(oc.targetID)
			refreshed, _ := graph.Get(oc.targetID)
			c.publish(events.TopicTask, events.RevisionRequestedEvent{
				ID: oc.targetID, Revision: refreshed.RevisionCount, Timestamp: time.Now(),
			})
		}
	}
	_ = graph.SetStatus(oc.reviewID, scheduler.TaskDone)
}

// callProducer applies the per-call timeout around a producer call.
func (c *Coordinator) callProducer(ctx context.Context, req producer.Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()
	return c.producer.Generate(callCtx, req)
}

func (c *Coordinator) publish(topic string, event events.Event) {
	if c.bus != nil {
		c.bus.Publish(topic, event)
	}
}
