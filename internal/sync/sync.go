package sync

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"go.uber.org/multierr"

	"github.com/klauern/agentskills/internal/fetch"
	"github.com/klauern/agentskills/internal/gitexec"
	"github.com/klauern/agentskills/internal/linker"
	"github.com/klauern/agentskills/internal/logging"
	"github.com/klauern/agentskills/internal/manifest"
	"github.com/klauern/agentskills/internal/store"
)

// PersistFunc durably writes the updated manifest. It is called at most once
// per pass, as its last step.
type PersistFunc func(manifest.Config) error

// Options configures a sync pass.
type Options struct {
	// Force replaces plain files and empty directories found where a link
	// should be. Non-empty directories are never replaced.
	Force bool

	// Refresh re-resolves every revision. Without it a repository whose
	// recorded resolved_sha is already exported is not fetched.
	Refresh bool

	// Persist receives the updated manifest on success. Nil skips persisting.
	Persist PersistFunc

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger

	// Progress receives progress events.
	Progress ProgressCallback
}

// Syncer runs sync passes for one project.
type Syncer struct {
	// ProjectRoot anchors store_dir and the agent target directories.
	ProjectRoot string
	Git         gitexec.Runner
	// TempDir hosts the throwaway git worktrees. Empty means os.TempDir().
	TempDir string
}

// New creates a Syncer for the project rooted at projectRoot.
func New(projectRoot string, git gitexec.Runner) *Syncer {
	return &Syncer{ProjectRoot: projectRoot, Git: git}
}

// StoreRoot returns the absolute store directory for cfg.
func (s *Syncer) StoreRoot(cfg manifest.Config) string {
	dir := cfg.StoreDir
	if dir == "" {
		dir = manifest.DefaultStoreDir
	}
	return filepath.Join(s.ProjectRoot, filepath.FromSlash(dir))
}

// SyncAll syncs every repository in cfg and prunes the whole store.
func (s *Syncer) SyncAll(ctx context.Context, cfg manifest.Config, opts Options) (*Result, error) {
	return s.run(ctx, cfg, "", opts)
}

// SyncRepo syncs only the repository declared with locator. Pruning is
// limited to that repository's store subtree; the persisted manifest still
// carries every repository.
func (s *Syncer) SyncRepo(ctx context.Context, cfg manifest.Config, locator string, opts Options) (*Result, error) {
	if _, ok := cfg.Repo(locator); !ok {
		return nil, fmt.Errorf("%w: %s", ErrRepoNotFound, locator)
	}
	return s.run(ctx, cfg, locator, opts)
}

// pass holds the state of one sync invocation.
type pass struct {
	opts    Options
	logger  *slog.Logger
	filter  string
	total   int
	store   *store.Store
	fetcher *fetch.Fetcher
	linker  *linker.Linker
	builder *manifest.Builder

	// created lists exports made by this pass, in creation order.
	created []fetch.Export
	// keep maps repo id to the commits resolved in this pass.
	keep map[string]map[string]bool
	// recorded maps repo id to the commits of repositories a filtered pass
	// leaves alone. Distinct locators can share an id.
	recorded map[string]map[string]bool
}

func (s *Syncer) newPass(cfg manifest.Config, filter string, opts Options) *pass {
	logger := logging.OrDiscard(opts.Logger)
	st := store.New(s.StoreRoot(cfg), nil)

	p := &pass{
		opts:   opts,
		logger: logger,
		filter: filter,
		store:  st,
		fetcher: &fetch.Fetcher{
			Git:     s.Git,
			Store:   st,
			TempDir: s.TempDir,
			Logger:  logger,
		},
		linker: &linker.Linker{
			ProjectRoot: s.ProjectRoot,
			Targets:     cfg.TargetDirs(),
			Force:       opts.Force,
			Logger:      logger,
		},
		builder:  manifest.NewBuilder(cfg),
		keep:     make(map[string]map[string]bool),
		recorded: make(map[string]map[string]bool),
	}
	for _, r := range cfg.Repos {
		if p.selected(r) {
			p.total++
			continue
		}
		if r.ResolvedSHA != "" {
			addCommit(p.recorded, store.RepoID(r.Repo), r.ResolvedSHA)
		}
	}
	return p
}

func addCommit(m map[string]map[string]bool, id, sha string) {
	if m[id] == nil {
		m[id] = make(map[string]bool)
	}
	m[id][sha] = true
}

func (p *pass) selected(r manifest.Repo) bool {
	return p.filter == "" || r.Repo == p.filter
}

func (s *Syncer) run(ctx context.Context, cfg manifest.Config, filter string, opts Options) (res *Result, err error) {
	p := s.newPass(cfg, filter, opts)
	defer logging.Timer(p.logger, "sync")()

	defer func() {
		if err != nil {
			err = p.rollback(err)
			p.logger.Error("sync failed", logging.Err(err))
			_ = p.emit(ProgressEvent{Type: ProgressEventError, Message: err.Error(), Err: err})
		}
	}()

	p.logger.Info("sync start", logging.Path(p.store.Root()), logging.Count(p.total))
	if err := p.store.Init(); err != nil {
		return nil, err
	}
	if err := p.emit(ProgressEvent{Type: ProgressEventStart, Message: "sync started"}); err != nil {
		return nil, &Error{Op: OpCancel, Err: err}
	}

	res = &Result{Filter: filter}
	for _, repo := range cfg.Repos {
		if !p.selected(repo) {
			continue
		}
		if err := p.emit(ProgressEvent{Type: ProgressEventRepoStart, Repo: repo.Repo, Current: len(res.Repos)}); err != nil {
			return nil, &Error{Repo: repo.Repo, Op: OpCancel, Err: err}
		}

		rr, err := p.syncRepo(ctx, repo)
		if err != nil {
			return nil, err
		}
		res.Repos = append(res.Repos, rr)

		ev := ProgressEvent{Type: ProgressEventRepoComplete, Repo: repo.Repo, Current: len(res.Repos), Message: string(rr.Export)}
		if err := p.emit(ev); err != nil {
			return nil, &Error{Repo: repo.Repo, Op: OpCancel, Err: err}
		}
	}

	res.Pruned, res.PruneErr = p.prune()
	if res.PruneErr != nil {
		p.logger.Warn("store pruning incomplete", logging.Err(res.PruneErr))
	}
	_ = p.emit(ProgressEvent{Type: ProgressEventPrune, Current: len(res.Repos), Message: fmt.Sprintf("pruned %d", len(res.Pruned))})

	updated, err := p.builder.Build()
	if err != nil {
		return nil, err
	}
	if opts.Persist != nil {
		if err := opts.Persist(updated); err != nil {
			return nil, &Error{Op: OpPersist, Err: err}
		}
	}
	res.Config = updated

	p.logger.Info("sync complete", logging.Count(len(res.Repos)))
	_ = p.emit(ProgressEvent{Type: ProgressEventComplete, Current: len(res.Repos), Message: "sync complete"})
	return res, nil
}

func (p *pass) syncRepo(ctx context.Context, repo manifest.Repo) (RepoResult, error) {
	logger := p.logger.With(logging.Repo(repo.Repo), logging.Rev(repo.Rev))
	rr := RepoResult{
		Repo:        repo.Repo,
		Rev:         repo.Rev,
		RepoID:      store.RepoID(repo.Repo),
		PreviousSHA: repo.ResolvedSHA,
	}

	if len(repo.Skills) == 0 {
		logger.Info("no skill paths configured, skipping")
		rr.Export = ExportSkipped
		return rr, nil
	}

	exp, action, err := p.resolve(ctx, repo, logger)
	if err != nil {
		return rr, &Error{Repo: repo.Repo, Op: OpFetch, Err: err}
	}
	if exp.Created {
		p.created = append(p.created, exp)
	}
	rr.SHA, rr.Export = exp.SHA, action
	p.builder.SetResolved(repo.Repo, exp.SHA)
	addCommit(p.keep, exp.RepoID, exp.SHA)
	logger.Info("resolved revision", logging.SHA(exp.SHA), slog.String("export", string(action)))

	for _, skill := range repo.Skills {
		dir, ok := fetch.VerifySkill(exp.Path, skill.Path)
		if !ok {
			return rr, &Error{
				Repo:  repo.Repo,
				Skill: skill.Name,
				Op:    OpVerify,
				Err:   fmt.Errorf("%w at %s", ErrSkillFileMissing, dir),
			}
		}

		links, err := p.linker.LinkSkill(dir, skill.Name, skill.Agents)
		if err != nil {
			return rr, &Error{Repo: repo.Repo, Skill: skill.Name, Op: OpLink, Err: err}
		}
		rr.Skills = append(rr.Skills, SkillResult{Name: skill.Name, Dir: dir, Links: links})
	}
	return rr, nil
}

// resolve returns the export for repo, fetching unless the recorded commit
// is already exported with every declared skill.
func (p *pass) resolve(ctx context.Context, repo manifest.Repo, logger *slog.Logger) (fetch.Export, ExportAction, error) {
	if !p.opts.Refresh && repo.ResolvedSHA != "" {
		id := store.RepoID(repo.Repo)
		has, err := p.store.Has(id, repo.ResolvedSHA)
		if err != nil {
			return fetch.Export{}, "", err
		}
		path := p.store.Path(id, repo.ResolvedSHA)
		if has && fetch.Complete(path, repo.Skills) {
			logger.Debug("using locked revision", logging.SHA(repo.ResolvedSHA))
			return fetch.Export{RepoID: id, SHA: repo.ResolvedSHA, Path: path}, ExportLocked, nil
		}
	}

	exp, err := p.fetcher.Export(ctx, repo.Repo, repo.Rev, repo.Skills)
	if err != nil {
		return fetch.Export{}, "", err
	}
	switch {
	case exp.Created:
		return exp, ExportCreated, nil
	case exp.Refreshed:
		return exp, ExportRefreshed, nil
	default:
		return exp, ExportReused, nil
	}
}

// prune removes exports this pass did not resolve. A full pass also removes
// the subtrees of repositories no longer declared; a filtered pass touches
// only the filtered repository's subtree.
func (p *pass) prune() ([]string, error) {
	var removed []string
	var errs error

	ids := make([]string, 0, len(p.keep))
	for id := range p.keep {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		for sha := range p.recorded[id] {
			addCommit(p.keep, id, sha)
		}
		r, err := p.store.PruneRepo(id, p.keep[id])
		removed = append(removed, r...)
		errs = multierr.Append(errs, err)
	}

	if p.filter == "" {
		keepIDs := make(map[string]bool, len(p.keep))
		for _, id := range ids {
			keepIDs[id] = true
		}
		r, err := p.store.PruneOrphans(keepIDs)
		removed = append(removed, r...)
		errs = multierr.Append(errs, err)
	}

	for _, path := range removed {
		p.logger.Info("pruned store entry", logging.Path(path))
	}
	return removed, errs
}

// rollback deletes the exports created by this pass and returns cause
// combined with any removal failures.
func (p *pass) rollback(cause error) error {
	for i := len(p.created) - 1; i >= 0; i-- {
		exp := p.created[i]
		p.logger.Info("rolling back export", logging.Path(exp.Path))
		cause = multierr.Append(cause, p.store.Remove(exp.RepoID, exp.SHA))
	}
	p.created = nil
	return cause
}
