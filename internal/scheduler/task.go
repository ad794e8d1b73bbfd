package scheduler

import "fmt"

// TaskStatus represents the current state of a task.
type TaskStatus int

const (
	TaskPending        TaskStatus = iota // Waiting for dependencies
	TaskInProgress                       // Currently executing
	TaskAwaitingReview                   // Output produced, not yet reviewed
	TaskNeedsRevision                    // Rejected by a reviewer, must re-execute
	TaskApproved                         // Reviewed and accepted (terminal for generate tasks)
	TaskDone                             // Review delivered (terminal for review tasks)
)

// String returns a human-readable status name for logs and reports.
func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskInProgress:
		return "in_progress"
	case TaskAwaitingReview:
		return "awaiting_review"
	case TaskNeedsRevision:
		return "needs_revision"
	case TaskApproved:
		return "approved"
	case TaskDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether the status is a terminal-success state.
func (s TaskStatus) Terminal() bool {
	return s == TaskApproved || s == TaskDone
}

// TaskKind determines how the coordinator dispatches a task.
type TaskKind int

const (
	KindGenerate TaskKind = iota // Produce new content
	KindReview                   // Critique another task's output
)

// String returns the kind name used in reports and the audit archive.
func (k TaskKind) String() string {
	switch k {
	case KindGenerate:
		return "generate"
	case KindReview:
		return "review"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Task represents a unit of work in the graph.
type Task struct {
	ID            string            // Unique identifier within a graph
	Title         string            // Human-readable name
	Role          string            // Specialist persona handling this task (e.g., "strategist")
	Kind          TaskKind          // generate or review
	Instructions  string            // Task-specific assignment text for the content producer
	DependsOn     []string          // Task IDs that must reach terminal-success first
	Targets       []string          // Review tasks only: task IDs under review; first is primary
	Context       map[string]string // Opaque payload forwarded to the content producer
	Output        string            // Most recent text produced; empty until first execution
	Status        TaskStatus
	Reviews       []Review // Peer reviews accumulated over the task's lifetime
	RevisionCount int      // Times this task was sent back for rework
}

// Target returns the primary review target, or "" for generate tasks.
func (t *Task) Target() string {
	if len(t.Targets) == 0 {
		return ""
	}
	return t.Targets[0]
}

// Review represents a peer assessment recorded against a task.
type Review struct {
	ReviewerRole   string
	TargetTaskID   string
	Approved       bool
	Strengths      []string
	Concerns       []string
	CriticalIssues []string
	Confidence     float64 // 0.0 to 1.0
}
