package scheduler

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gammazero/toposort"
)

// Graph stores the tasks of one workflow run and answers readiness queries.
// A Graph is owned by a single coordinator invocation; mutators are safe for
// concurrent use, but nothing outside the coordinator should write to it.
type Graph struct {
	mu        sync.RWMutex
	tasks     map[string]*Task
	order     []string            // Insertion order, keeps Ready() deterministic
	reviewers map[string][]string // Maps taskID -> review tasks targeting it
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		tasks:     make(map[string]*Task),
		reviewers: make(map[string][]string),
	}
}

// Ingest replaces the graph's task set. It fails with *DuplicateIDError if
// two tasks share an ID, and with *UnknownDependencyError if a dependency or
// review-target ID does not resolve to an ingested task. Review tasks must
// name at least one target.
func (g *Graph) Ingest(tasks []*Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tasks = make(map[string]*Task, len(tasks))
	g.order = make([]string, 0, len(tasks))
	g.reviewers = make(map[string][]string)

	for _, task := range tasks {
		if _, exists := g.tasks[task.ID]; exists {
			return &DuplicateIDError{ID: task.ID}
		}
		g.tasks[task.ID] = cloneTask(task)
		g.order = append(g.order, task.ID)
	}

	for _, id := range g.order {
		task := g.tasks[id]
		for _, depID := range task.DependsOn {
			if _, exists := g.tasks[depID]; !exists {
				return &UnknownDependencyError{TaskID: task.ID, DepID: depID}
			}
		}
		if task.Kind == KindReview {
			if len(task.Targets) == 0 {
				return fmt.Errorf("review task %q names no target", task.ID)
			}
			for _, targetID := range task.Targets {
				if _, exists := g.tasks[targetID]; !exists {
					return &UnknownDependencyError{TaskID: task.ID, DepID: targetID}
				}
			}
			g.reviewers[task.Target()] = append(g.reviewers[task.Target()], task.ID)
		}
	}

	return nil
}

// Ready returns all tasks whose status is Pending or NeedsRevision and whose
// every dependency is satisfied. Order is deterministic: insertion order.
//
// A dependency is satisfied when it is Approved or Done. For review tasks a
// dependency in AwaitingReview also counts: fresh unreviewed output is
// exactly what a reviewer gates on, and waiting for the dependency's own
// approval would deadlock mutually cross-reviewing pairs.
func (g *Graph) Ready() []*Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ready := []*Task{}
	for _, id := range g.order {
		task := g.tasks[id]
		if task.Status != TaskPending && task.Status != TaskNeedsRevision {
			continue
		}
		if g.depsSatisfied(task) {
			ready = append(ready, cloneTask(task))
		}
	}
	return ready
}

func (g *Graph) depsSatisfied(task *Task) bool {
	for _, depID := range task.DependsOn {
		dep, exists := g.tasks[depID]
		if !exists {
			// Unreachable after a successful Ingest; dangling IDs are
			// treated as satisfied rather than blocking forever.
			continue
		}
		if dep.Status.Terminal() {
			continue
		}
		if task.Kind == KindReview && dep.Status == TaskAwaitingReview {
			continue
		}
		return false
	}
	return true
}

// Get returns a copy of the task with the given ID.
func (g *Graph) Get(id string) (*Task, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	task, exists := g.tasks[id]
	if !exists {
		return nil, false
	}
	return cloneTask(task), true
}

// SetStatus updates a task's status.
func (g *Graph) SetStatus(id string, status TaskStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	task, exists := g.tasks[id]
	if !exists {
		return fmt.Errorf("task %q not found", id)
	}
	task.Status = status
	return nil
}

// SetOutput stores the most recent text produced for a task.
func (g *Graph) SetOutput(id string, output string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	task, exists := g.tasks[id]
	if !exists {
		return fmt.Errorf("task %q not found", id)
	}
	task.Output = output
	return nil
}

// AppendReview records a peer review against a task.
func (g *Graph) AppendReview(id string, review Review) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	task, exists := g.tasks[id]
	if !exists {
		return fmt.Errorf("task %q not found", id)
	}
	task.Reviews = append(task.Reviews, review)
	return nil
}

// IncrementRevision bumps a task's revision counter. The counter only moves
// on a NeedsRevision transition and never decreases.
func (g *Graph) IncrementRevision(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	task, exists := g.tasks[id]
	if !exists {
		return fmt.Errorf("task %q not found", id)
	}
	task.RevisionCount++
	return nil
}

// ReviewersOf returns the IDs of review tasks whose primary target is the
// given task, in insertion order.
func (g *Graph) ReviewersOf(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return append([]string(nil), g.reviewers[id]...)
}

// NonTerminal returns every task not in a terminal-success state, in
// insertion order. An empty result means the workflow legitimately finished.
func (g *Graph) NonTerminal() []StuckTask {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stuck := []StuckTask{}
	for _, id := range g.order {
		if task := g.tasks[id]; !task.Status.Terminal() {
			stuck = append(stuck, StuckTask{ID: task.ID, Status: task.Status})
		}
	}
	return stuck
}

// Snapshot returns a copy of every task, in insertion order. Used for
// reporting and the audit archive after a run completes.
func (g *Graph) Snapshot() []*Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	tasks := make([]*Task, 0, len(g.order))
	for _, id := range g.order {
		tasks = append(tasks, cloneTask(g.tasks[id]))
	}
	return tasks
}

// Validate runs a topological sort over the dependency edges and returns the
// ordered task IDs, or an error if the graph contains a cycle. The
// coordinator itself tolerates cycles (the round budget bounds them); this
// is a pre-flight check for builders and callers.
func (g *Graph) Validate() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var edges []toposort.Edge
	for _, id := range g.order {
		task := g.tasks[id]
		if len(task.DependsOn) == 0 {
			// Edge from nil ensures dependency-free tasks are included.
			edges = append(edges, toposort.Edge{nil, id})
		} else {
			for _, depID := range task.DependsOn {
				edges = append(edges, toposort.Edge{depID, id})
			}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("task graph contains cycle: %w", err)
	}

	order := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}

	if len(order) != len(g.tasks) {
		missing := []string{}
		found := make(map[string]bool, len(order))
		for _, id := range order {
			found[id] = true
		}
		for _, id := range g.order {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("topological sort lost %d task(s): %s", len(missing), strings.Join(missing, ", "))
	}

	return order, nil
}

// Order returns topologically sorted task IDs (calls Validate).
func (g *Graph) Order() ([]string, error) {
	return g.Validate()
}

func cloneTask(task *Task) *Task {
	if task == nil {
		return nil
	}

	cp := *task
	if task.DependsOn != nil {
		cp.DependsOn = append([]string(nil), task.DependsOn...)
	}
	if task.Targets != nil {
		cp.Targets = append([]string(nil), task.Targets...)
	}
	if task.Context != nil {
		cp.Context = make(map[string]string, len(task.Context))
		for k, v := range task.Context {
			cp.Context[k] = v
		}
	}
	if task.Reviews != nil {
		cp.Reviews = append([]Review(nil), task.Reviews...)
	}
	return &cp
}
