package session_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/adventure/internal/game/session"
)

func TestNew(t *testing.T) {
	s := session.New("tavern", 5)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "tavern", s.RoomID)
	assert.Equal(t, session.ModeExploring, s.Mode())
	assert.False(t, s.InCombat())
	assert.Empty(t, s.History())
}

func TestCombatTransitions(t *testing.T) {
	s := session.New("tavern", 5)

	s.EnterCombat("troll")
	assert.True(t, s.InCombat())
	assert.Equal(t, session.ModeInCombat, s.Mode())
	assert.Equal(t, "troll", s.CombatTarget())

	s.ExitCombat()
	assert.False(t, s.InCombat())
	assert.Empty(t, s.CombatTarget())
}

func TestCombatTarget_EmptyOutsideCombat(t *testing.T) {
	s := session.New("tavern", 5)
	assert.Empty(t, s.CombatTarget())
}

func TestRecordCommand_Bounded(t *testing.T) {
	s := session.New("tavern", 3)
	for i := 0; i < 5; i++ {
		s.RecordCommand(fmt.Sprintf("cmd %d", i))
	}

	history := s.History()
	require.Len(t, history, 3)
	assert.Equal(t, []string{"cmd 2", "cmd 3", "cmd 4"}, history)
}

func TestHistory_ReturnsCopy(t *testing.T) {
	s := session.New("tavern", 5)
	s.RecordCommand("look")

	history := s.History()
	history[0] = "mutated"
	assert.Equal(t, []string{"look"}, s.History())
}

func TestDefaultHistorySize(t *testing.T) {
	s := session.New("tavern", 0)
	for i := 0; i < session.DefaultHistorySize+5; i++ {
		s.RecordCommand("look")
	}
	assert.Len(t, s.History(), session.DefaultHistorySize)
}

func TestCompanions(t *testing.T) {
	s := session.New("tavern", 5)

	s.AddCompanion("dog")
	s.AddCompanion("wizard")
	s.AddCompanion("dog") // idempotent
	assert.Equal(t, []string{"dog", "wizard"}, s.Companions)

	s.RemoveCompanion("dog")
	assert.Equal(t, []string{"wizard"}, s.Companions)

	s.RemoveCompanion("ghost") // absent is a no-op
	assert.Equal(t, []string{"wizard"}, s.Companions)
}

func TestRecordCommand_NeverExceedsCap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 20).Draw(t, "capacity")
		s := session.New("tavern", capacity)
		n := rapid.IntRange(0, 50).Draw(t, "commands")
		for i := 0; i < n; i++ {
			s.RecordCommand(fmt.Sprintf("cmd %d", i))
		}
		assert.LessOrEqual(t, len(s.History()), capacity)
		if n > 0 {
			history := s.History()
			assert.Equal(t, fmt.Sprintf("cmd %d", n-1), history[len(history)-1])
		}
	})
}
