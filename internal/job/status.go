package job

// Status is the lifecycle state of a job.
type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusBlocked   Status = "BLOCKED"
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCanceled  Status = "CANCELED"
	StatusFailed    Status = "FAILED"
	StatusCompleted Status = "COMPLETED"
	StatusSkipped   Status = "SKIPPED"
	StatusAbandoned Status = "ABANDONED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusSkipped, StatusFailed, StatusCanceled, StatusAbandoned:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// transitions lists the allowed targets of every non-terminal status.
var transitions = map[Status][]Status{
	StatusSubmitted: {StatusPending, StatusBlocked, StatusCanceled, StatusAbandoned, StatusFailed},
	StatusBlocked:   {StatusPending, StatusCanceled, StatusAbandoned, StatusFailed},
	StatusPending:   {StatusBlocked, StatusRunning, StatusSkipped, StatusCanceled, StatusAbandoned, StatusFailed},
	StatusRunning:   {StatusCompleted, StatusFailed},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
