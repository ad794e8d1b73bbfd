package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	TaskID() string
}

// Topic constants
const (
	TopicTask     = "task"
	TopicWorkflow = "workflow"
)

// Event type constants
const (
	EventTypeRoundStarted      = "workflow.round_started"
	EventTypeWorkflowFinished  = "workflow.finished"
	EventTypeTaskStarted       = "task.started"
	EventTypeTaskOutput        = "task.output"
	EventTypeTaskFailed        = "task.failed"
	EventTypeReviewRecorded    = "task.review_recorded"
	EventTypeTaskApproved      = "task.approved"
	EventTypeRevisionRequested = "task.revision_requested"
)

// RoundStartedEvent is published at the top of each coordination round.
type RoundStartedEvent struct {
	Round     int
	Ready     int // Size of the ready set this round
	Timestamp time.Time
}

func (e RoundStartedEvent) EventType() string { return EventTypeRoundStarted }
func (e RoundStartedEvent) TaskID() string    { return "" }

// WorkflowFinishedEvent is published once per run, after the last round.
type WorkflowFinishedEvent struct {
	Rounds    int
	Complete  bool // False when tasks were left non-terminal
	Stuck     int  // Number of non-terminal tasks
	Timestamp time.Time
}

func (e WorkflowFinishedEvent) EventType() string { return EventTypeWorkflowFinished }
func (e WorkflowFinishedEvent) TaskID() string    { return "" }

// TaskStartedEvent is published when a task is dispatched to the producer.
type TaskStartedEvent struct {
	ID        string
	Title     string
	Role      string
	Kind      string
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) TaskID() string    { return e.ID }

// TaskOutputEvent is published when a task's output is stored.
type TaskOutputEvent struct {
	ID        string
	Chars     int
	Revision  int // Revision count at the time the output was produced
	Timestamp time.Time
}

func (e TaskOutputEvent) EventType() string { return EventTypeTaskOutput }
func (e TaskOutputEvent) TaskID() string    { return e.ID }

// TaskFailedEvent is published when a producer call fails; the task stays
// eligible for the next round.
type TaskFailedEvent struct {
	ID        string
	Err       error
	Timestamp time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) TaskID() string    { return e.ID }

// ReviewRecordedEvent is published when a peer review is recorded against a
// target task.
type ReviewRecordedEvent struct {
	ID           string // Target task
	ReviewerRole string
	Approved     bool
	Critical     int // Number of critical issues found
	Timestamp    time.Time
}

func (e ReviewRecordedEvent) EventType() string { return EventTypeReviewRecorded }
func (e ReviewRecordedEvent) TaskID() string    { return e.ID }

// TaskApprovedEvent is published when a task reaches Approved.
type TaskApprovedEvent struct {
	ID        string
	Timestamp time.Time
}

func (e TaskApprovedEvent) EventType() string { return EventTypeTaskApproved }
func (e TaskApprovedEvent) TaskID() string    { return e.ID }

// RevisionRequestedEvent is published when a review sends a task back for
// rework.
type RevisionRequestedEvent struct {
	ID        string
	Revision  int // Revision count after the transition
	Timestamp time.Time
}

func (e RevisionRequestedEvent) EventType() string { return EventTypeRevisionRequested }
func (e RevisionRequestedEvent) TaskID() string    { return e.ID }
