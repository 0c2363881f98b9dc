package status

// Status represents transcription job status
type Status int

const (
	// Pending - job is stored and waits for a runner slot
	Pending Status = iota + 1
	// Processing - provider call is in progress
	Processing
	// Completed - final step, result is stored
	Completed
	// Failed - final step, error is stored
	Failed
)

var (
	statusName = map[Status]string{Pending: "pending", Processing: "processing",
		Completed: "completed", Failed: "failed"}
	nameStatus = map[string]Status{"pending": Pending, "processing": Processing,
		"completed": Completed, "failed": Failed}
)

func (st Status) String() string {
	return statusName[st]
}

// From returns status obj from string
func From(st string) Status {
	return nameStatus[st]
}

// IsTerminal returns true if no transition is allowed from the status
func (st Status) IsTerminal() bool {
	return st == Completed || st == Failed
}

// Unfinished lists statuses picked up by the recovery pass
func Unfinished() []Status {
	return []Status{Pending, Processing}
}
