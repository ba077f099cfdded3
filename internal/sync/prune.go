package sync

import (
	"log/slog"

	"go.uber.org/multierr"

	"github.com/klauern/agentskills/internal/logging"
	"github.com/klauern/agentskills/internal/manifest"
	"github.com/klauern/agentskills/internal/store"
)

// Prune cleans the store against the commits recorded in cfg without
// fetching. Repositories with a resolved_sha keep only that export; those
// without one keep their exports but lose staging leftovers. Subtrees of
// undeclared repositories are removed.
func (s *Syncer) Prune(cfg manifest.Config, logger *slog.Logger) ([]string, error) {
	logger = logging.OrDiscard(logger)
	st := store.New(s.StoreRoot(cfg), nil)

	keep := make(map[string]map[string]bool)
	unresolved := make(map[string]bool)
	for _, r := range cfg.Repos {
		id := store.RepoID(r.Repo)
		if keep[id] == nil {
			keep[id] = make(map[string]bool)
		}
		if r.ResolvedSHA == "" {
			unresolved[id] = true
			continue
		}
		keep[id][r.ResolvedSHA] = true
	}

	var removed []string
	var errs error
	ids := make(map[string]bool, len(keep))
	for id, shas := range keep {
		ids[id] = true
		var (
			r   []string
			err error
		)
		if unresolved[id] {
			r, err = st.PruneTemp(id)
		} else {
			r, err = st.PruneRepo(id, shas)
		}
		removed = append(removed, r...)
		errs = multierr.Append(errs, err)
	}

	r, err := st.PruneOrphans(ids)
	removed = append(removed, r...)
	errs = multierr.Append(errs, err)

	for _, path := range removed {
		logger.Info("pruned store entry", logging.Path(path))
	}
	return removed, errs
}
