package upload

import "fmt"

// Status of an upload task. Transitions are owned by the Orchestrator and
// always move forward: queued → hashing → uploading → notifying → done,
// or any of those → error.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusHashing   Status = "hashing"
	StatusUploading Status = "uploading"
	StatusNotifying Status = "notifying"
	StatusDone      Status = "done"
	StatusError     Status = "error"
)

// Step names the protocol phase a failure occurred in.
type Step string

const (
	StepHash     Step = "hash"
	StepPresign  Step = "presign"
	StepTransfer Step = "transfer"
	StepNotify   Step = "notify"
)

// StepError tags a failure with the protocol step that produced it. A
// failed step halts its task; completed earlier steps are never rolled
// back (a transferred object survives a failed notify, for the caller to
// reconcile).
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Task tracks one file through the upload protocol. Tasks are keyed by a
// generated ID, never by file name: names collide, IDs do not.
type Task struct {
	ID          string
	Name        string
	Path        string
	ContentType string
	Size        int64
	Digest      string
	RemoteKey   string
	Status      Status
	Err         error
}
