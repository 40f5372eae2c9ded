package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/ivanbrko/panoptes/internal/id"
)

// document is the on-disk shape of projects.json (spec.md §4.8).
type document struct {
	Projects []Project `json:"projects"`
	Branches []Branch  `json:"branches"`
}

// Store is the in-memory, file-backed collection of Projects and
// Branches. Every mutating method persists immediately; Save failures
// are reported, never panicked on, matching spec.md §3's "best-effort,
// user-visible error reporting" lifecycle note.
type Store struct {
	path     string
	projects []Project
	branches []Branch
}

// Open loads path (creating an empty store if it doesn't exist) and
// returns a Store ready for use. A malformed file is backed up to
// path+".backup" and replaced with an empty store; the caller receives
// a non-nil warning in that case while err itself stays nil, mirroring
// spec.md §4.8's "load(): malformed file → rename to .backup, return
// empty store with a user-visible warning".
func Open(path string) (store *Store, warning error, err error) {
	data, readErr := os.ReadFile(path)
	if os.IsNotExist(readErr) {
		return &Store{path: path}, nil, nil
	}
	if readErr != nil {
		return nil, nil, fmt.Errorf("project: read %s: %w", path, readErr)
	}

	var doc document
	if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
		backupPath := path + ".backup"
		if err := os.Rename(path, backupPath); err != nil {
			return nil, nil, fmt.Errorf("project: back up corrupt %s: %w", path, err)
		}
		warning = fmt.Errorf("project: %s was corrupt and has been moved to %s: %w", path, backupPath, jsonErr)
		return &Store{path: path}, warning, nil
	}

	return &Store{path: path, projects: doc.Projects, branches: doc.Branches}, nil, nil
}

// Save writes the store to disk, holding an exclusive file lock for the
// duration so a concurrent Panoptes process can't interleave writes.
// I/O failures are mapped to distinct, user-visible strings per
// spec.md §4.8; marshal failures report the raw error untouched.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(document{Projects: s.projects, Branches: s.branches}, "", "  ")
	if err != nil {
		return fmt.Errorf("project: encode store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return classifyWriteError(err, s.path)
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("project: lock %s: %w", s.path, err)
	}
	defer lock.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return classifyWriteError(err, s.path)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return classifyWriteError(err, s.path)
	}
	return nil
}

func classifyWriteError(err error, path string) error {
	switch {
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("project: permission denied writing %s", path)
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("project: directory for %s does not exist", path)
	default:
		var pathErr *os.PathError
		if errors.As(err, &pathErr) && pathErr.Err.Error() == "no space left on device" {
			return fmt.Errorf("project: disk is full, could not write %s", path)
		}
		return fmt.Errorf("project: write %s: %w", path, err)
	}
}

// AddProject appends a new project and persists it.
func (s *Store) AddProject(p Project) error {
	s.projects = append(s.projects, p)
	return s.Save()
}

// FindProject returns the project with the given id, if any.
func (s *Store) FindProject(projectID id.ProjectID) (Project, bool) {
	for _, p := range s.projects {
		if p.ID == projectID {
			return p, true
		}
	}
	return Project{}, false
}

// Projects returns every project.
func (s *Store) Projects() []Project { return append([]Project{}, s.projects...) }

// RemoveProject deletes a project and cascades to every branch that
// referenced it (spec.md §3's cascade-delete invariant). Session
// teardown for those branches is the caller's responsibility — this
// package has no knowledge of live sessions.
func (s *Store) RemoveProject(projectID id.ProjectID) error {
	kept := s.projects[:0:0]
	for _, p := range s.projects {
		if p.ID != projectID {
			kept = append(kept, p)
		}
	}
	s.projects = kept

	keptBranches := s.branches[:0:0]
	for _, b := range s.branches {
		if b.ProjectID != projectID {
			keptBranches = append(keptBranches, b)
		}
	}
	s.branches = keptBranches

	return s.Save()
}

// AddBranch appends a new branch and persists it. If isDefault is set,
// any other branch in the same project loses its default flag first, so
// the "at most one default per project" invariant holds.
func (s *Store) AddBranch(b Branch) error {
	if b.IsDefault {
		for i := range s.branches {
			if s.branches[i].ProjectID == b.ProjectID {
				s.branches[i].IsDefault = false
			}
		}
	}
	s.branches = append(s.branches, b)
	return s.Save()
}

// FindBranch returns the branch with the given id, if any.
func (s *Store) FindBranch(branchID id.BranchID) (Branch, bool) {
	for _, b := range s.branches {
		if b.ID == branchID {
			return b, true
		}
	}
	return Branch{}, false
}

// BranchesForProject returns every branch belonging to projectID.
func (s *Store) BranchesForProject(projectID id.ProjectID) []Branch {
	var out []Branch
	for _, b := range s.branches {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	return out
}

// RemoveBranch deletes a single branch.
func (s *Store) RemoveBranch(branchID id.BranchID) error {
	kept := s.branches[:0:0]
	for _, b := range s.branches {
		if b.ID != branchID {
			kept = append(kept, b)
		}
	}
	s.branches = kept
	return s.Save()
}

// TouchProjectActivity updates a project's last_activity and persists.
func (s *Store) TouchProjectActivity(projectID id.ProjectID, at time.Time) error {
	for i := range s.projects {
		if s.projects[i].ID == projectID {
			s.projects[i].LastActivity = at
			return s.Save()
		}
	}
	return fmt.Errorf("project: unknown project %s", projectID)
}
