package git

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

type Repository struct {
	repo *git.Repository
	path string
}

// OpenRepo opens the repository containing path, searching parent
// directories for the .git folder.
func OpenRepo(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", absPath, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	return &Repository{
		repo: repo,
		path: wt.Filesystem.Root(),
	}, nil
}

// Path returns the worktree root.
func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) HeadHash() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// ChangedFiles returns the absolute paths of files that are modified, added,
// renamed or untracked relative to HEAD. Deleted files are omitted.
func (r *Repository) ChangedFiles() (map[string]bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}

	changed := make(map[string]bool, len(status))
	for rel, st := range status {
		if st.Worktree == git.Deleted || (st.Staging == git.Deleted && st.Worktree == git.Unmodified) {
			continue
		}
		if st.Staging == git.Unmodified && st.Worktree == git.Unmodified {
			continue
		}
		changed[filepath.Join(r.path, filepath.FromSlash(rel))] = true
	}
	return changed, nil
}

// ChangedFilter returns a discovery filter keeping only changed files.
func (r *Repository) ChangedFilter() (func(string) bool, error) {
	changed, err := r.ChangedFiles()
	if err != nil {
		return nil, err
	}
	return func(path string) bool {
		return changed[path]
	}, nil
}
