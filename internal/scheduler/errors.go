package scheduler

import (
	"fmt"
	"strings"
)

// DuplicateIDError is returned by Ingest when two tasks share an ID.
// Fatal: the caller must fix the workflow specification.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate task ID %q", e.ID)
}

// UnknownDependencyError is returned by Ingest when a task references a
// dependency or review-target ID that does not exist in the graph. Silently
// treating dangling IDs as satisfied would mask workflow-specification typos,
// so ingest rejects them instead.
type UnknownDependencyError struct {
	TaskID string
	DepID  string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("task %q references unknown task %q", e.TaskID, e.DepID)
}

// StuckTask describes one non-terminal task in a stalled workflow.
type StuckTask struct {
	ID     string
	Status TaskStatus
}

// WorkflowIncompleteError is returned when a workflow run ends (no ready
// tasks, or round budget exhausted) while at least one task is not in a
// terminal-success state. It distinguishes a stall from a legitimate finish.
type WorkflowIncompleteError struct {
	Rounds int
	Stuck  []StuckTask
}

func (e *WorkflowIncompleteError) Error() string {
	parts := make([]string, 0, len(e.Stuck))
	for _, st := range e.Stuck {
		parts = append(parts, fmt.Sprintf("%s (%s)", st.ID, st.Status))
	}
	return fmt.Sprintf("workflow incomplete after %d round(s); %d task(s) not terminal: %s",
		e.Rounds, len(e.Stuck), strings.Join(parts, ", "))
}
