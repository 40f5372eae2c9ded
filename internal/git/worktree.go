package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// ExecTimeout bounds every shelled-out git invocation in this package,
// mirroring the teacher's bridge.ExecCommandTimeout (internal/bridge,
// h2) — a fixed timeout on whitelisted external commands rather than an
// inherited context, since the worktree lifecycle has no natural
// cancellation point of its own.
var ExecTimeout = 30 * time.Second

// reservedPathChars are the characters spec.md §4.9 names as unsafe in
// a generated worktree directory segment.
const reservedPathChars = `/\:*?"<>|`

// SanitizePathSegment replaces every reserved character (and, per
// spec.md, any space) with "-", producing a single safe path segment.
func SanitizePathSegment(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || strings.ContainsRune(reservedPathChars, r) {
			return '-'
		}
		return r
	}, s)
}

// WorktreePath computes {worktreesDir}/{sanitized project}/{sanitized
// branch}, the on-disk layout spec.md §4.9/§6 names.
func WorktreePath(worktreesDir, projectName, branchName string) string {
	return filepath.Join(worktreesDir, SanitizePathSegment(projectName), SanitizePathSegment(branchName))
}

// CreateWorktreeOptions bundles CreateWorktree's inputs.
type CreateWorktreeOptions struct {
	RepoPath     string // main repo working-tree root
	TargetPath   string // directory the worktree will be created at
	BranchName   string
	CreateBranch bool
	BaseRef      string // resolved via ResolveRef; "" selects HEAD
}

// CreateWorktree implements spec.md §4.9's four-step algorithm: resolve
// or reject a missing branch, refuse a path collision, create parent
// directories, then run `git worktree add`.
func CreateWorktree(opts CreateWorktreeOptions) error {
	branchExists := branchExists(opts.RepoPath, opts.BranchName)

	if !branchExists {
		if !opts.CreateBranch {
			return fmt.Errorf("git: branch %q does not exist and create_branch is false", opts.BranchName)
		}
		baseRef := opts.BaseRef
		var commit plumbing.Hash
		var err error
		if baseRef == "" {
			commit, err = HeadRef(opts.RepoPath)
		} else {
			commit, err = ResolveRef(opts.RepoPath, baseRef)
		}
		if err != nil {
			return fmt.Errorf("git: resolve base ref for new branch %q: %w", opts.BranchName, err)
		}
		if err := createBranchAt(opts.RepoPath, opts.BranchName, commit); err != nil {
			return fmt.Errorf("git: create branch %q: %w", opts.BranchName, err)
		}
	}

	if _, err := os.Stat(opts.TargetPath); err == nil {
		return fmt.Errorf("git: worktree target %s already exists", opts.TargetPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("git: stat worktree target %s: %w", opts.TargetPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.TargetPath), 0o755); err != nil {
		return fmt.Errorf("git: create parent dirs for %s: %w", opts.TargetPath, err)
	}

	if out, err := runGit(opts.RepoPath, "worktree", "add", opts.TargetPath, opts.BranchName); err != nil {
		return fmt.Errorf("git: worktree add %s %s: %w: %s", opts.TargetPath, opts.BranchName, err, out)
	}
	return nil
}

func branchExists(repoPath, name string) bool {
	repo, err := open(repoPath)
	if err != nil {
		return false
	}
	_, err = repo.Reference(plumbing.NewBranchReferenceName(name), true)
	return err == nil
}

func createBranchAt(repoPath, name string, commit plumbing.Hash) error {
	repo, err := open(repoPath)
	if err != nil {
		return err
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), commit)
	return repo.Storer.SetReference(ref)
}

// RemoveWorktree implements spec.md §4.9's removal algorithm: prune
// stale metadata, optionally force-remove the working tree via git
// itself, then belt-and-braces rm -rf the directory if it's still
// there.
func RemoveWorktree(repoPath, worktreePath string, force bool) error {
	if _, err := runGit(repoPath, "worktree", "prune"); err != nil {
		return fmt.Errorf("git: worktree prune: %w", err)
	}

	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, worktreePath)
	if _, err := runGit(repoPath, args...); err != nil && !force {
		return fmt.Errorf("git: worktree remove %s: %w", worktreePath, err)
	}

	if _, err := os.Stat(worktreePath); err == nil {
		if err := os.RemoveAll(worktreePath); err != nil {
			return fmt.Errorf("git: remove leftover worktree dir %s: %w", worktreePath, err)
		}
	}
	return nil
}

// ListWorktrees shells out to `git worktree list --porcelain` and
// returns the absolute paths of every linked worktree, in the same
// record-scanning style as Harris-A-Khan-drift's ListWorktrees.
func ListWorktrees(repoPath string) ([]string, error) {
	out, err := runGit(repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git: worktree list: %w", err)
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if p, ok := strings.CutPrefix(line, "worktree "); ok {
			paths = append(paths, strings.TrimSpace(p))
		}
	}
	return paths, nil
}

func runGit(dir string, args ...string) (string, error) {
	path, err := exec.LookPath("git")
	if err != nil {
		return "", fmt.Errorf("git binary not found in PATH: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ExecTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	result := strings.TrimSpace(string(out))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("timeout after %s running git %s", ExecTimeout, strings.Join(args, " "))
		}
		return result, fmt.Errorf("%w: %s", err, result)
	}
	return result, nil
}
