package submission

// Status is the aggregate status of a submission's jobs.
type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusUndefined Status = "UNDEFINED"
	StatusBlocked   Status = "BLOCKED"
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCanceled  Status = "CANCELED"
	StatusFailed    Status = "FAILED"
	StatusCompleted Status = "COMPLETED"
)

// IsTerminal reports whether the aggregate has settled.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

func (s Status) String() string { return string(s) }
