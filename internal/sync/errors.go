package sync

import (
	"errors"
	"strings"
)

var (
	// ErrSkillFileMissing is returned when a declared skill has no SKILL.md
	// at its location in the resolved revision.
	ErrSkillFileMissing = errors.New("missing SKILL.md")
	// ErrRepoNotFound is returned by SyncRepo for an undeclared locator.
	ErrRepoNotFound = errors.New("repo not found in manifest")
)

// Operations recorded in Error.Op.
const (
	OpFetch   = "fetch"
	OpVerify  = "verify"
	OpLink    = "link"
	OpPersist = "persist"
	OpCancel  = "cancel"
)

// Error locates a failed sync step.
type Error struct {
	Repo  string
	Skill string
	Op    string
	Err   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(" failed")
	if e.Repo != "" {
		sb.WriteString(" for repo ")
		sb.WriteString(e.Repo)
	}
	if e.Skill != "" {
		sb.WriteString(" skill ")
		sb.WriteString(e.Skill)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
