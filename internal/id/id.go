// Package id defines the opaque 128-bit identifiers used throughout
// Panoptes. Values are meaningless beyond equality and string form.
package id

import "github.com/google/uuid"

// SessionID identifies a Session.
type SessionID string

// ProjectID identifies a Project.
type ProjectID string

// BranchID identifies a Branch.
type BranchID string

// ClaudeConfigID identifies a ClaudeConfig.
type ClaudeConfigID string

// Unassociated is the sentinel ProjectID/BranchID for a session that has
// not been attached to a project or branch.
const Unassociated = ""

// NewSessionID generates a fresh random SessionID.
func NewSessionID() SessionID { return SessionID(uuid.NewString()) }

// NewProjectID generates a fresh random ProjectID.
func NewProjectID() ProjectID { return ProjectID(uuid.NewString()) }

// NewBranchID generates a fresh random BranchID.
func NewBranchID() BranchID { return BranchID(uuid.NewString()) }

// NewClaudeConfigID generates a fresh random ClaudeConfigID.
func NewClaudeConfigID() ClaudeConfigID { return ClaudeConfigID(uuid.NewString()) }

// ParseSessionID validates that s is a well-formed SessionID (a UUID).
func ParseSessionID(s string) (SessionID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return SessionID(s), nil
}
