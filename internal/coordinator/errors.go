package coordinator

import "fmt"

// TransientProducerError wraps a single failed producer call. It is absorbed
// by the round-retry mechanism and surfaces only through the event bus and
// logs; a task that keeps failing eventually shows up in a
// WorkflowIncompleteError when the round budget runs out.
type TransientProducerError struct {
	TaskID string
	Err    error
}

func (e *TransientProducerError) Error() string {
	return fmt.Sprintf("producer call for task %q failed: %v", e.TaskID, e.Err)
}

func (e *TransientProducerError) Unwrap() error {
	return e.Err
}
