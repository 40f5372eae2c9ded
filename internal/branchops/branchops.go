// Package branchops orchestrates the git-worktree lifecycle together
// with the permissions migration spec.md §4.10 requires around it,
// tying together package git (worktree add/remove), package permissions
// (.claude.json and settings.local.json migration), and package project
// (the Branch record itself). None of the three lower packages know
// about each other; this package is the only place that sequences them,
// grounded in the teacher's internal/cmd/init.go "validate everything,
// then perform every write in order" shape.
package branchops

import (
	"fmt"
	"time"

	"github.com/ivanbrko/panoptes/internal/git"
	"github.com/ivanbrko/panoptes/internal/id"
	"github.com/ivanbrko/panoptes/internal/permissions"
	"github.com/ivanbrko/panoptes/internal/project"
)

// CreateWorktreeParams bundles CreateWorktreeBranch's inputs.
type CreateWorktreeParams struct {
	Store        *project.Store
	JSONStore    *permissions.JSONStore // nil disables .claude.json migration (e.g. tests)
	Project      project.Project
	BranchName   string
	WorktreesDir string
	CreateBranch bool
	BaseRef      string
}

// CreateWorktreeBranch creates the on-disk worktree, migrates permission
// entries from the main repo into it, and records the resulting Branch
// in the store — in that order, so a failed worktree creation never
// touches permissions or the store, and a failed permission copy (logged,
// never fatal per spec.md §7) still lets the branch get recorded.
func CreateWorktreeBranch(p CreateWorktreeParams) (project.Branch, error) {
	target := git.WorktreePath(p.WorktreesDir, p.Project.Name, p.BranchName)

	if err := git.CreateWorktree(git.CreateWorktreeOptions{
		RepoPath:     p.Project.RepoPath,
		TargetPath:   target,
		BranchName:   p.BranchName,
		CreateBranch: p.CreateBranch,
		BaseRef:      p.BaseRef,
	}); err != nil {
		return project.Branch{}, fmt.Errorf("branchops: create worktree: %w", err)
	}

	var warnings []error
	if p.JSONStore != nil {
		if err := p.JSONStore.CopySettings(p.Project.RepoPath, target); err != nil {
			warnings = append(warnings, fmt.Errorf("branchops: copy .claude.json settings: %w", err))
		}
	}
	if _, err := permissions.CopyLocalSettings(p.Project.RepoPath, target); err != nil {
		warnings = append(warnings, fmt.Errorf("branchops: copy settings.local.json: %w", err))
	}

	now := time.Now()
	branch := project.Branch{
		ID:           id.NewBranchID(),
		ProjectID:    p.Project.ID,
		Name:         p.BranchName,
		WorkingDir:   target,
		IsDefault:    false,
		IsWorktree:   true,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := p.Store.AddBranch(branch); err != nil {
		return branch, fmt.Errorf("branchops: persist branch: %w", err)
	}

	return branch, firstOf(warnings)
}

// DeleteWorktreeParams bundles DeleteWorktreeBranch's inputs.
type DeleteWorktreeParams struct {
	Store     *project.Store
	JSONStore *permissions.JSONStore
	Project   project.Project
	Branch    project.Branch
	Force     bool
}

// DeleteWorktreeBranch merges any permission entries the worktree
// accumulated back into the main repo's entry, removes the worktree's
// own entries, destroys the on-disk worktree, and drops the Branch
// record — the reverse order of creation, so the merge always has a
// worktree directory to read from.
func DeleteWorktreeBranch(p DeleteWorktreeParams) error {
	var warnings []error

	if p.JSONStore != nil {
		if _, err := p.JSONStore.MergeSettings(p.Branch.WorkingDir, p.Project.RepoPath); err != nil {
			warnings = append(warnings, fmt.Errorf("branchops: merge .claude.json settings: %w", err))
		}
		if _, err := p.JSONStore.RemoveSettings(p.Branch.WorkingDir); err != nil {
			warnings = append(warnings, fmt.Errorf("branchops: remove worktree .claude.json entry: %w", err))
		}
	}
	if _, err := permissions.MergeLocalSettings(p.Branch.WorkingDir, p.Project.RepoPath); err != nil {
		warnings = append(warnings, fmt.Errorf("branchops: merge settings.local.json: %w", err))
	}

	if err := git.RemoveWorktree(p.Project.RepoPath, p.Branch.WorkingDir, p.Force); err != nil {
		return fmt.Errorf("branchops: remove worktree: %w", err)
	}

	if err := p.Store.RemoveBranch(p.Branch.ID); err != nil {
		return fmt.Errorf("branchops: remove branch record: %w", err)
	}

	return firstOf(warnings)
}

func firstOf(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}
