package sync

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/klauern/agentskills/internal/linker"
	"github.com/klauern/agentskills/internal/manifest"
)

// ExportAction records how a repository's revision reached the store.
type ExportAction string

const (
	// ExportCreated indicates the revision was fetched into a new export.
	ExportCreated ExportAction = "created"

	// ExportReused indicates the revision was fetched but its export
	// already existed.
	ExportReused ExportAction = "reused"

	// ExportRefreshed indicates an existing export was re-cut because it
	// lacked a declared skill.
	ExportRefreshed ExportAction = "refreshed"

	// ExportLocked indicates the recorded resolved_sha was used without
	// fetching.
	ExportLocked ExportAction = "locked"

	// ExportSkipped indicates the repository declares no skills.
	ExportSkipped ExportAction = "skipped"
)

// SkillResult is the outcome for one skill.
type SkillResult struct {
	Name  string
	Dir   string
	Links []linker.Link
}

// RepoResult is the outcome for one repository.
type RepoResult struct {
	Repo   string
	Rev    string
	RepoID string
	// PreviousSHA is the resolved_sha recorded before this pass.
	PreviousSHA string
	SHA         string
	Export      ExportAction
	Skills      []SkillResult
}

// Changed reports whether the repository resolved to a different commit.
func (r RepoResult) Changed() bool {
	return r.SHA != "" && r.SHA != r.PreviousSHA
}

// Result contains the complete outcome of a sync pass.
type Result struct {
	// Filter is the repository locator the pass was restricted to, if any.
	Filter string

	Repos []RepoResult

	// Pruned lists the store directories removed.
	Pruned []string

	// PruneErr holds pruning failures. They do not fail the pass: the
	// leftovers are retried by the next one.
	PruneErr error

	// Config is the manifest with the resolved commits filled in.
	Config manifest.Config
}

// Exports returns the repositories whose export was handled with action.
func (r *Result) Exports(action ExportAction) []RepoResult {
	var out []RepoResult
	for _, rr := range r.Repos {
		if rr.Export == action {
			out = append(out, rr)
		}
	}
	return out
}

// Links returns every link with the given action.
func (r *Result) Links(action linker.Action) []linker.Link {
	var out []linker.Link
	for _, rr := range r.Repos {
		for _, sr := range rr.Skills {
			for _, l := range sr.Links {
				if l.Action == action {
					out = append(out, l)
				}
			}
		}
	}
	return out
}

// Fetched returns the number of repositories that went through git.
func (r *Result) Fetched() int {
	return len(r.Exports(ExportCreated)) + len(r.Exports(ExportReused)) + len(r.Exports(ExportRefreshed))
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	p := message.NewPrinter(language.English)
	var sb strings.Builder

	if r.Filter != "" {
		sb.WriteString(p.Sprintf("Synced %s\n", r.Filter))
	} else {
		sb.WriteString(p.Sprintf("Synced %d repositories\n", len(r.Repos)))
	}

	sb.WriteString(p.Sprintf("  Exports created:   %d\n", len(r.Exports(ExportCreated))))
	sb.WriteString(p.Sprintf("  Exports reused:    %d\n", len(r.Exports(ExportReused))+len(r.Exports(ExportRefreshed))))
	sb.WriteString(p.Sprintf("  Exports locked:    %d\n", len(r.Exports(ExportLocked))))
	sb.WriteString(p.Sprintf("  Repos skipped:     %d\n", len(r.Exports(ExportSkipped))))
	sb.WriteString(p.Sprintf("  Links created:     %d\n", len(r.Links(linker.Created))))
	sb.WriteString(p.Sprintf("  Links replaced:    %d\n", len(r.Links(linker.Replaced))))
	sb.WriteString(p.Sprintf("  Links unchanged:   %d\n", len(r.Links(linker.Unchanged))))
	sb.WriteString(p.Sprintf("  Store pruned:      %d\n", len(r.Pruned)))

	var changed []RepoResult
	for _, rr := range r.Repos {
		if rr.Changed() {
			changed = append(changed, rr)
		}
	}
	if len(changed) > 0 {
		sb.WriteString("\nResolved:\n")
		for _, rr := range changed {
			sb.WriteString(p.Sprintf("  - %s %s -> %s\n", rr.Repo, rr.Rev, shortSHA(rr.SHA)))
		}
	}

	if r.PruneErr != nil {
		sb.WriteString(p.Sprintf("\nPrune warnings:\n  %v\n", r.PruneErr))
	}

	return sb.String()
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
