package progress

import (
	"fmt"

	"github.com/klauern/agentskills/internal/sync"
)

// SyncReporter drives a Bar from sync progress events.
type SyncReporter struct {
	opts Options
	bar  *Bar
}

// NewSyncReporter returns a reporter whose bar is created on the start event,
// once the number of repositories is known. Empty passes get no bar.
func NewSyncReporter(opts Options) *SyncReporter {
	return &SyncReporter{opts: opts}
}

// Callback returns the sync.ProgressCallback feeding this reporter.
func (r *SyncReporter) Callback() sync.ProgressCallback {
	return r.handle
}

// Bar returns the underlying bar, or nil before the pass started.
func (r *SyncReporter) Bar() *Bar {
	return r.bar
}

func (r *SyncReporter) handle(ev sync.ProgressEvent) error {
	switch ev.Type {
	case sync.ProgressEventStart:
		if ev.Total == 0 {
			return nil
		}
		opts := r.opts
		opts.Max = int64(ev.Total)
		if opts.Description == "" {
			opts.Description = "Syncing"
		}
		r.bar = New(opts)
	case sync.ProgressEventRepoStart:
		if r.bar != nil {
			r.bar.Describe(fmt.Sprintf("Fetching %s", ev.Repo))
		}
	case sync.ProgressEventRepoComplete:
		if r.bar != nil {
			return r.bar.Set(ev.Current)
		}
	case sync.ProgressEventPrune:
		if r.bar != nil {
			r.bar.Describe("Pruning")
		}
	case sync.ProgressEventComplete:
		if r.bar != nil {
			return r.bar.Finish()
		}
	case sync.ProgressEventError:
		if r.bar != nil {
			return r.bar.Clear()
		}
	}
	return nil
}
