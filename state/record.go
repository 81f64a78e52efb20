package state

import (
	"fmt"
	"strings"
)

// ErrorRecord is a single error reported by a stage. Records are values and are
// never modified after they are created.
type ErrorRecord struct {
	Message  string
	Critical bool
	Stage    string // name of the current stage when recorded; empty before the first stage
}

// String returns the report line for the record.
func (r ErrorRecord) String() string {
	if r.Critical {
		return CriticalPrefix + r.Message
	}
	return AdvisoryPrefix + r.Message
}

// Prefixes of the report line of a record.
const (
	CriticalPrefix = "CRITICAL: "
	AdvisoryPrefix = "  "
)

// Scope selects which error list CheckErrors inspects.
type Scope int

const (
	// ScopeStage is the list of errors recorded since the last transition.
	ScopeStage Scope = iota
	// ScopeGlobal is the list of errors promoted by every transition so far.
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeStage:
		return "stage"
	case ScopeGlobal:
		return "global"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope parses "stage" or "global" (case-insensitive).
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stage":
		return ScopeStage, nil
	case "global":
		return ScopeGlobal, nil
	default:
		return 0, fmt.Errorf("scope %q: must be \"stage\" or \"global\"", s)
	}
}

// StageRef identifies the stage that is currently executing. It is used for
// attribution only and carries no ownership of the stage.
type StageRef struct {
	Index int
	Name  string
}

func (r StageRef) String() string {
	if r.Name == "" {
		return fmt.Sprintf("stage %d", r.Index)
	}
	return fmt.Sprintf("stage %d (%s)", r.Index, r.Name)
}
