package sync

// ProgressEventType identifies a progress event.
type ProgressEventType string

// Progress event types.
const (
	ProgressEventStart        ProgressEventType = "start"
	ProgressEventRepoStart    ProgressEventType = "repo_start"
	ProgressEventRepoComplete ProgressEventType = "repo_complete"
	ProgressEventPrune        ProgressEventType = "prune"
	ProgressEventComplete     ProgressEventType = "complete"
	ProgressEventError        ProgressEventType = "error"
)

// ProgressEvent reports how far a pass has come. Current counts repositories
// finished so far out of Total selected for this pass.
type ProgressEvent struct {
	Type    ProgressEventType
	Repo    string
	Current int
	Total   int
	Message string
	Err     error
}

// PercentComplete returns Current as a percentage of Total.
func (e ProgressEvent) PercentComplete() int {
	if e.Total <= 0 {
		return 100
	}
	return e.Current * 100 / e.Total
}

// ProgressCallback receives progress events. Returning an error cancels the
// pass.
type ProgressCallback func(ProgressEvent) error

func (p *pass) emit(ev ProgressEvent) error {
	if p.opts.Progress == nil {
		return nil
	}
	ev.Total = p.total
	return p.opts.Progress(ev)
}
