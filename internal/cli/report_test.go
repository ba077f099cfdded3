package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/klauern/agentskills/internal/linker"
	"github.com/klauern/agentskills/internal/sync"
	"github.com/klauern/agentskills/internal/ui"
	"github.com/klauern/agentskills/internal/util"
)

func TestRenderRepoTable(t *testing.T) {
	ui.DisableColors()
	defer ui.EnableColors()

	res := &sync.Result{Repos: []sync.RepoResult{
		{
			Repo:   testRepo,
			Rev:    "v1",
			SHA:    testSHA,
			Export: sync.ExportCreated,
			Skills: []sync.SkillResult{{Name: "pdf", Links: []linker.Link{
				{Agent: "claude", Action: linker.Created},
				{Agent: "opencode", Action: linker.Skipped},
			}}},
		},
		{Repo: otherRepo, Rev: "main", SHA: nextSHA, Export: sync.ExportLocked},
		{Repo: "https://example.com/empty.git", Rev: "main", Export: sync.ExportSkipped},
	}}

	want := "REPO                                REV   COMMIT        EXPORT       LINKS\n" +
		"https://example.com/org/skills.git  v1    0123456789ab  ✓ created    1\n" +
		"https://example.com/org/other.git   main  89abcdef0123  locked       0\n" +
		"https://example.com/empty.git       main  -             - no skills  0\n"
	util.AssertEqual(t, renderRepoTable(res), want)
}

func TestPrintSyncResult_PruneWarning(t *testing.T) {
	ui.DisableColors()
	defer ui.EnableColors()

	var stdout, stderr bytes.Buffer
	a := &app{stdout: &stdout, stderr: &stderr}

	a.printSyncResult(&sync.Result{PruneErr: errors.New("permission denied")})

	if !strings.Contains(stdout.String(), "Synced 0 repositories") {
		t.Errorf("summary missing from stdout: %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "REPO") {
		t.Errorf("empty result should not render a table: %q", stdout.String())
	}
	want := ui.SymbolWarning + " store pruning incomplete, retried on next sync: permission denied\n"
	util.AssertEqual(t, stderr.String(), want)
}
