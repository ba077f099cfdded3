package cli

import (
	"fmt"

	"github.com/klauern/agentskills/internal/linker"
	"github.com/klauern/agentskills/internal/sync"
	"github.com/klauern/agentskills/internal/ui"
)

// renderRepoTable lists each repository of res with its commit, how its
// export was obtained, and how many links point into it.
func renderRepoTable(res *sync.Result) string {
	t := ui.NewTable("REPO", "REV", "COMMIT", "EXPORT", "LINKS")
	for _, rr := range res.Repos {
		commit := ui.Muted("-")
		if rr.SHA != "" {
			commit = rr.SHA[:min(12, len(rr.SHA))]
		}

		links := 0
		for _, sr := range rr.Skills {
			for _, l := range sr.Links {
				if l.Action != linker.Skipped {
					links++
				}
			}
		}

		t.Row(rr.Repo, rr.Rev, commit, exportStatus(rr.Export), fmt.Sprint(links))
	}
	return t.String()
}

func exportStatus(action sync.ExportAction) string {
	switch action {
	case sync.ExportCreated, sync.ExportRefreshed, sync.ExportReused:
		return ui.StatusSuccess(string(action))
	case sync.ExportLocked:
		return ui.Info(string(action))
	case sync.ExportSkipped:
		return ui.StatusSkipped("no skills")
	default:
		return string(action)
	}
}

// printSyncResult writes the per-repo table and summary of res to stdout and
// any pruning problem to stderr.
func (a *app) printSyncResult(res *sync.Result) {
	if len(res.Repos) > 0 {
		a.printf("%s\n", renderRepoTable(res))
	}
	a.printf("%s", res.Summary())
	if res.PruneErr != nil {
		_, _ = fmt.Fprintln(a.stderr, ui.StatusWarning(fmt.Sprintf("store pruning incomplete, retried on next sync: %v", res.PruneErr)))
	}
}
