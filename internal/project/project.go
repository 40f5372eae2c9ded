// Package project implements spec.md §3's Project/Branch data model and
// §4.8's single-JSON-document store, grounded in the teacher's
// eventstore package for its "best-effort persistence, never panic on a
// write failure" posture, adapted from JSONL-append to a single
// read-modify-write document since projects.json is small and mutated
// as a whole.
package project

import (
	"time"

	"github.com/ivanbrko/panoptes/internal/id"
)

// Project is one tracked repository.
type Project struct {
	ID                  id.ProjectID       `json:"id"`
	Name                string             `json:"name"`
	RepoPath            string             `json:"repo_path"`
	SessionSubdir       string             `json:"session_subdir,omitempty"`
	DefaultBranch       string             `json:"default_branch"`
	DefaultBaseBranch   string             `json:"default_base_branch,omitempty"`
	DefaultClaudeConfig id.ClaudeConfigID `json:"default_claude_config,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	LastActivity        time.Time         `json:"last_activity"`
}

// Branch is one working directory (repo root or git worktree) within a
// Project.
type Branch struct {
	ID           id.BranchID  `json:"id"`
	ProjectID    id.ProjectID `json:"project_id"`
	Name         string       `json:"name"`
	WorkingDir   string       `json:"working_dir"`
	IsDefault    bool         `json:"is_default"`
	IsWorktree   bool         `json:"is_worktree"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActivity time.Time    `json:"last_activity"`
}
