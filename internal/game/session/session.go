// Package session tracks a single playthrough: current room, combat mode,
// companions, and the bounded command history.
package session

import "github.com/google/uuid"

// Mode is the session's dispatch state.
type Mode string

// Session modes.
const (
	// ModeExploring is the default out-of-combat state.
	ModeExploring Mode = "exploring"
	// ModeInCombat pins the session to a single combat target.
	ModeInCombat Mode = "in_combat"
)

// DefaultHistorySize is the command-history capacity when none is
// configured.
const DefaultHistorySize = 10

// Session is the single mutable root of a playthrough. It is created once
// at game start, mutated exclusively by the action dispatcher, and never
// accessed concurrently.
type Session struct {
	// ID uniquely identifies this playthrough.
	ID string
	// RoomID is the player's current room.
	RoomID string
	// Companions lists character IDs following the player between rooms.
	Companions []string

	mode         Mode
	combatTarget string
	history      []string
	historyCap   int
}

// New creates a Session starting in startRoom.
//
// Precondition: startRoom must be non-empty.
// Postcondition: mode is ModeExploring; history is empty with the given
// capacity (or DefaultHistorySize when historyCap <= 0).
func New(startRoom string, historyCap int) *Session {
	if historyCap <= 0 {
		historyCap = DefaultHistorySize
	}
	return &Session{
		ID:         uuid.NewString(),
		RoomID:     startRoom,
		mode:       ModeExploring,
		historyCap: historyCap,
	}
}

// Mode returns the current dispatch state.
func (s *Session) Mode() Mode { return s.mode }

// InCombat reports whether the session is pinned to a combat target.
func (s *Session) InCombat() bool { return s.mode == ModeInCombat }

// CombatTarget returns the pinned target's character ID, or "" outside
// combat.
func (s *Session) CombatTarget() string {
	if s.mode != ModeInCombat {
		return ""
	}
	return s.combatTarget
}

// EnterCombat transitions to ModeInCombat pinned to targetID.
//
// Precondition: targetID must be non-empty.
func (s *Session) EnterCombat(targetID string) {
	s.mode = ModeInCombat
	s.combatTarget = targetID
}

// ExitCombat returns the session to ModeExploring and clears the pinned
// target.
func (s *Session) ExitCombat() {
	s.mode = ModeExploring
	s.combatTarget = ""
}

// RecordCommand appends cmd to the bounded history, evicting the oldest
// entry once the capacity is reached.
//
// Postcondition: len(History()) <= the configured capacity.
func (s *Session) RecordCommand(cmd string) {
	s.history = append(s.history, cmd)
	if len(s.history) > s.historyCap {
		s.history = s.history[len(s.history)-s.historyCap:]
	}
}

// History returns a copy of the recent commands, oldest first.
func (s *Session) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// AddCompanion appends id to the companion list if not already present.
func (s *Session) AddCompanion(id string) {
	for _, c := range s.Companions {
		if c == id {
			return
		}
	}
	s.Companions = append(s.Companions, id)
}

// RemoveCompanion deletes id from the companion list.
func (s *Session) RemoveCompanion(id string) {
	for i, c := range s.Companions {
		if c == id {
			s.Companions = append(s.Companions[:i], s.Companions[i+1:]...)
			return
		}
	}
}
