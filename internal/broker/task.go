package broker

import "fmt"

// TaskState is the position of a delivery task in its retry lifecycle.
//
//	Pending --ok--> Delivered
//	Pending --fail--> Failed(n) --requeue--> Pending
//	Failed(maxRetries) --fail--> Discarded
//	any --connection gone--> Discarded
type TaskState int

const (
	Pending TaskState = iota
	Failed
	Delivered
	Discarded
)

func (s TaskState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	case Delivered:
		return "delivered"
	case Discarded:
		return "discarded"
	default:
		return fmt.Sprintf("TaskState(%d)", int(s))
	}
}

// Task is one payload addressed to one connection.
type Task struct {
	ConnectionID string
	Payload      []byte

	retries int
	state   TaskState
}

// NewTask returns a pending task with a zero retry counter.
func NewTask(connectionID string, payload []byte) *Task {
	return &Task{ConnectionID: connectionID, Payload: payload, state: Pending}
}

// State returns the current state.
func (t *Task) State() TaskState { return t.state }

// Retries returns how many times the task was sent back to the queue.
func (t *Task) Retries() int { return t.retries }

// Attempt returns the 1-based number of the attempt in progress.
func (t *Task) Attempt() int { return t.retries + 1 }

// Fail records a failed attempt. While the retry budget lasts the task
// becomes Failed and must be re-enqueued; once maxRetries retries have been
// spent it becomes Discarded. A task is therefore attempted at most
// maxRetries+1 times.
func (t *Task) Fail(maxRetries int) TaskState {
	if t.retries < maxRetries {
		t.retries++
		t.state = Failed
		return t.state
	}
	t.state = Discarded
	return t.state
}

// Requeued moves a failed task back to Pending.
func (t *Task) Requeued() {
	if t.state == Failed {
		t.state = Pending
	}
}

// Deliver marks the task as delivered.
func (t *Task) Deliver() { t.state = Delivered }

// Discard drops the task without further attempts.
func (t *Task) Discard() { t.state = Discarded }
