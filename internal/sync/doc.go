// Package sync reconciles a skills manifest with the local store and the
// agent link directories.
//
// A sync pass walks the declared repositories in manifest order. For each
// one it resolves the pinned revision into the export store, checks that
// every declared skill ships a SKILL.md, and links the skill into the target
// directory of every enabled agent. Stale exports are then pruned and the
// updated manifest, carrying the resolved commits, is handed to the caller's
// persistence callback.
//
// # Failure handling
//
// Any error aborts the pass. Exports created during the failed pass are
// removed again, and the persistence callback is never invoked, so the
// manifest on disk keeps its previous content:
//
//	res, err := syncer.SyncAll(ctx, cfg, sync.Options{
//	    Persist: func(c manifest.Config) error {
//	        return manifest.Save(path, c)
//	    },
//	})
//	if err != nil {
//	    var serr *sync.Error
//	    if errors.As(err, &serr) {
//	        fmt.Println("failed repo:", serr.Repo)
//	    }
//	    return err
//	}
//	fmt.Print(res.Summary())
//
// # Progress Reporting
//
// Progress can be tracked by providing a ProgressCallback in Options:
//
//	opts := sync.Options{
//	    Progress: func(event sync.ProgressEvent) error {
//	        fmt.Printf("%s: %d/%d\n", event.Repo, event.Current, event.Total)
//	        return nil // Return error to cancel sync
//	    },
//	}
//
// Progress events are emitted for:
//   - Sync start (ProgressEventStart)
//   - Each repository start (ProgressEventRepoStart)
//   - Each repository completion (ProgressEventRepoComplete)
//   - Pruning (ProgressEventPrune)
//   - Sync completion (ProgressEventComplete)
//   - Errors (ProgressEventError)
//
// The callback can return an error to cancel the synchronization, which is
// then rolled back like any other failure.
//
// # Concurrency
//
// A Syncer runs one pass at a time and performs no internal parallelism.
// Two passes against the same store from different processes are not safe:
// one pass may prune an export the other is about to reuse.
package sync
