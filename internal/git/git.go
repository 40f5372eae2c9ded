// Package git implements spec.md §4.9's repo discovery, branch
// enumeration, and ref resolution on top of github.com/go-git/go-git/v5
// (pure-Go, no libgit2/CLI dependency for these read-only operations),
// grounded in fyrsmithlabs-contextd's internal/repository/service.go and
// pkg/checkpoint/branch.go, which both open a repo via git.PlainOpen and
// walk plumbing references the same way. Worktree mutation (add/remove)
// has no go-git equivalent and lives in worktree.go, shelling out to the
// real git binary in the style of Harris-A-Khan-drift's internal/git
// package.
package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// DiscoverRepo walks upward from startPath looking for a .git directory
// (or a worktree's .git file) and returns the repo's working-tree root.
func DiscoverRepo(startPath string) (string, error) {
	repo, err := git.PlainOpenWithOptions(startPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("git: discover repo from %s: %w", startPath, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("git: resolve worktree root for %s: %w", startPath, err)
	}
	return wt.Filesystem.Root(), nil
}

func open(repoPath string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("git: open %s: %w", repoPath, err)
	}
	return repo, nil
}

// ListLocalBranches returns every refs/heads/* branch name in the repo
// rooted at repoPath.
func ListLocalBranches(repoPath string) ([]string, error) {
	repo, err := open(repoPath)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("git: list local branches: %w", err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("git: iterate local branches: %w", err)
	}
	return names, nil
}

// ListRemoteBranches returns every refs/remotes/*/* branch name
// (e.g. "origin/main"), excluding each remote's HEAD pointer.
func ListRemoteBranches(repoPath string) ([]string, error) {
	repo, err := open(repoPath)
	if err != nil {
		return nil, err
	}
	refs, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("git: list remote branches: %w", err)
	}
	var names []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsRemote() {
			return nil
		}
		short := ref.Name().Short()
		if strings.HasSuffix(short, "/HEAD") {
			return nil
		}
		names = append(names, short)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("git: iterate remote branches: %w", err)
	}
	return names, nil
}

// ResolveRef resolves ref to a commit hash, trying, in order: a local
// branch, a remote branch, a direct reference name, then a generic
// revspec (go-git's ResolveRevision, which itself understands HEAD,
// short hashes, and tags). Per spec.md §4.9, failures from every step
// are aggregated into the final error so the caller can see what was
// tried.
func ResolveRef(repoPath, ref string) (plumbing.Hash, error) {
	repo, err := open(repoPath)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	var attempts []string

	if r, resolveErr := repo.Reference(plumbing.NewBranchReferenceName(ref), true); resolveErr == nil {
		return r.Hash(), nil
	} else {
		attempts = append(attempts, fmt.Sprintf("local branch refs/heads/%s: %v", ref, resolveErr))
	}

	for _, remoteName := range candidateRemoteRefNames(ref) {
		if r, resolveErr := repo.Reference(plumbing.NewRemoteReferenceName("origin", remoteName), true); resolveErr == nil {
			return r.Hash(), nil
		} else {
			attempts = append(attempts, fmt.Sprintf("remote branch origin/%s: %v", remoteName, resolveErr))
		}
	}

	if r, resolveErr := repo.Reference(plumbing.ReferenceName(ref), true); resolveErr == nil {
		return r.Hash(), nil
	} else {
		attempts = append(attempts, fmt.Sprintf("direct reference %s: %v", ref, resolveErr))
	}

	if h, resolveErr := repo.ResolveRevision(plumbing.Revision(ref)); resolveErr == nil {
		return *h, nil
	} else {
		attempts = append(attempts, fmt.Sprintf("revspec %s: %v", ref, resolveErr))
	}

	return plumbing.ZeroHash, fmt.Errorf("git: could not resolve %q, tried:\n%s", ref, strings.Join(attempts, "\n"))
}

// candidateRemoteRefNames strips a caller-supplied "origin/" prefix, if
// any, so ResolveRef accepts both "feature/x" and "origin/feature/x".
func candidateRemoteRefNames(ref string) []string {
	if strings.HasPrefix(ref, "origin/") {
		return []string{strings.TrimPrefix(ref, "origin/")}
	}
	return []string{ref}
}

// HeadRef resolves the repo's current HEAD to a commit hash, used as
// the default base_ref for worktree branch creation.
func HeadRef(repoPath string) (plumbing.Hash, error) {
	repo, err := open(repoPath)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	head, err := repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("git: resolve HEAD: %w", err)
	}
	return head.Hash(), nil
}
