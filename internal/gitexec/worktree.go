package gitexec

import (
	"context"
	"fmt"
)

// Worktree drives the commands needed to materialise a sparse, shallow
// checkout of a single revision in Dir.
type Worktree struct {
	Git Runner
	Dir string
}

func (w Worktree) run(ctx context.Context, args ...string) (string, error) {
	return w.Git.Run(ctx, append([]string{"-C", w.Dir}, args...)...)
}

// Init creates an empty repository in Dir.
func (w Worktree) Init(ctx context.Context) error {
	_, err := w.Git.Run(ctx, "init", "--quiet", w.Dir)
	return err
}

// AddRemote registers locator as the origin remote.
func (w Worktree) AddRemote(ctx context.Context, locator string) error {
	_, err := w.run(ctx, "remote", "add", "origin", locator)
	return err
}

// Sparse enables non-cone sparse checkout limited to patterns.
func (w Worktree) Sparse(ctx context.Context, patterns []string) error {
	if _, err := w.run(ctx, "sparse-checkout", "init", "--no-cone"); err != nil {
		return err
	}
	args := append([]string{"sparse-checkout", "set", "--no-cone"}, patterns...)
	_, err := w.run(ctx, args...)
	return err
}

// Fetch downloads rev from origin at depth 1.
func (w Worktree) Fetch(ctx context.Context, rev string) error {
	_, err := w.run(ctx, "fetch", "--quiet", "--depth", "1", "origin", rev)
	return err
}

// CheckoutFetched checks out FETCH_HEAD.
func (w Worktree) CheckoutFetched(ctx context.Context) error {
	_, err := w.run(ctx, "checkout", "--quiet", "FETCH_HEAD")
	return err
}

// Head returns the commit identifier HEAD points at.
func (w Worktree) Head(ctx context.Context) (string, error) {
	sha, err := w.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	if sha == "" {
		return "", fmt.Errorf("git rev-parse HEAD in %s returned nothing", w.Dir)
	}
	return sha, nil
}

// Checkout runs the full sequence for rev and returns the resolved commit.
func (w Worktree) Checkout(ctx context.Context, locator, rev string, patterns []string) (string, error) {
	if err := w.Init(ctx); err != nil {
		return "", err
	}
	if err := w.AddRemote(ctx, locator); err != nil {
		return "", err
	}
	if err := w.Sparse(ctx, patterns); err != nil {
		return "", err
	}
	if err := w.Fetch(ctx, rev); err != nil {
		return "", err
	}
	if err := w.CheckoutFetched(ctx); err != nil {
		return "", err
	}
	return w.Head(ctx)
}
