// Package condition defines the four experimental conditions and the
// per-condition retention policy the engine branches on.
package condition

import (
	"fmt"
	"strings"
)

// Condition is a study arm crossing persistence (session vs persistent)
// with control (automatic vs user-approved).
type Condition string

const (
	SessionAuto    Condition = "SESSION_AUTO"
	SessionUser    Condition = "SESSION_USER"
	PersistentAuto Condition = "PERSISTENT_AUTO"
	PersistentUser Condition = "PERSISTENT_USER"
)

// All lists the conditions in assignment order.
var All = []Condition{SessionAuto, SessionUser, PersistentAuto, PersistentUser}

// Scope says which memories a policy reads from.
type Scope int

const (
	ScopeNone    Scope = iota
	ScopeSession       // memories bound to (user, current session)
	ScopeUser          // every memory of the user, any session
)

// Policy is the row of the condition table consulted by context assembly
// and deduplication.
type Policy struct {
	MemoryScope  Scope
	MemoryLimit  int
	MessageLimit int
	// DedupBySession limits duplicate checks to the current session.
	DedupBySession bool
}

var policies = map[Condition]Policy{
	SessionAuto:    {MemoryScope: ScopeNone, MemoryLimit: 0, MessageLimit: 10, DedupBySession: true},
	SessionUser:    {MemoryScope: ScopeSession, MemoryLimit: 20, MessageLimit: 5, DedupBySession: true},
	PersistentAuto: {MemoryScope: ScopeUser, MemoryLimit: 20, MessageLimit: 5},
	PersistentUser: {MemoryScope: ScopeUser, MemoryLimit: 20, MessageLimit: 5},
}

var descriptions = map[Condition]string{
	SessionAuto:    "Your conversation will not be saved after this session ends.",
	SessionUser:    "You can review saved memories, but they will be cleared after this session ends.",
	PersistentAuto: "Your conversation is automatically saved and will persist in future sessions.",
	PersistentUser: "You can choose which information to save, edit, or delete, and it will persist in future sessions.",
}

// Parse validates s as a condition. Matching is case-insensitive.
func Parse(s string) (Condition, error) {
	c := Condition(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("invalid condition %q: must be one of %s", s, strings.Join(Names(), ", "))
	}
	return c, nil
}

// Names returns the condition identifiers as strings.
func Names() []string {
	out := make([]string, len(All))
	for i, c := range All {
		out[i] = string(c)
	}
	return out
}

// Valid reports whether c is one of the four conditions.
func (c Condition) Valid() bool {
	_, ok := policies[c]
	return ok
}

// Ephemeral reports whether memories must not outlive their session.
func (c Condition) Ephemeral() bool {
	return c == SessionAuto || c == SessionUser
}

// Policy returns the retention policy for c. ok is false for unknown values.
func (c Condition) Policy() (Policy, bool) {
	p, ok := policies[c]
	return p, ok
}

// Describe returns the participant-facing description of c.
func Describe(c Condition) string {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return "Unknown condition"
}
