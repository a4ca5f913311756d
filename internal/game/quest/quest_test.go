package quest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/adventure/internal/game/quest"
)

func TestQuest_CompleteObjective(t *testing.T) {
	q := quest.New("rescue", "The Rescue", []string{"find-key", "open-cell"})
	assert.False(t, q.IsComplete())
	assert.Equal(t, []string{"find-key", "open-cell"}, q.Remaining())

	require.NoError(t, q.CompleteObjective("find-key"))
	assert.False(t, q.IsComplete())
	assert.Equal(t, []string{"open-cell"}, q.Remaining())

	require.NoError(t, q.CompleteObjective("open-cell"))
	assert.True(t, q.IsComplete())
	assert.Empty(t, q.Remaining())
}

func TestQuest_UndeclaredObjective(t *testing.T) {
	q := quest.New("rescue", "The Rescue", []string{"find-key"})
	assert.Error(t, q.CompleteObjective("slay-dragon"))
	assert.False(t, q.IsComplete())
}

func TestQuest_CompleteTwice(t *testing.T) {
	q := quest.New("rescue", "The Rescue", []string{"find-key"})
	require.NoError(t, q.CompleteObjective("find-key"))
	require.NoError(t, q.CompleteObjective("find-key"))
	assert.True(t, q.IsComplete())
}

func TestWinCondition_Validate(t *testing.T) {
	valid := quest.WinCondition{Kind: quest.KindRoom, Target: "throne-room"}
	assert.NoError(t, valid.Validate())

	badKind := quest.WinCondition{Kind: "score", Target: "100"}
	assert.Error(t, badKind.Validate())

	noTarget := quest.WinCondition{Kind: quest.KindItem}
	assert.Error(t, noTarget.Validate())
}

func TestWinCondition_EndingText(t *testing.T) {
	both := quest.WinCondition{Kind: quest.KindRoom, Target: "x", Message: "You win.", Narration: "The gates open before you."}
	assert.Equal(t, "The gates open before you.", both.EndingText())

	plain := quest.WinCondition{Kind: quest.KindRoom, Target: "x", Message: "You win."}
	assert.Equal(t, "You win.", plain.EndingText())
}

// stubObserver answers evaluator queries from fixed sets.
type stubObserver struct {
	room     string
	items    map[string]bool
	defeated map[string]bool
	quests   map[string]bool
}

func (s stubObserver) CurrentRoomID() string        { return s.room }
func (s stubObserver) PlayerHasItem(id string) bool { return s.items[id] }
func (s stubObserver) NPCDefeated(id string) bool   { return s.defeated[id] }
func (s stubObserver) QuestComplete(id string) bool { return s.quests[id] }

func TestEvaluate(t *testing.T) {
	conditions := []quest.WinCondition{
		{Kind: quest.KindNPCDefeat, Target: "dragon", Message: "The dragon falls."},
		{Kind: quest.KindRoom, Target: "summit", Message: "You reach the summit."},
		{Kind: quest.KindItem, Target: "crown", Message: "The crown is yours."},
		{Kind: quest.KindQuestComplete, Target: "rescue", Message: "The prisoner is free."},
	}

	cases := []struct {
		name    string
		obs     stubObserver
		wantMsg string
		wantOK  bool
	}{
		{"none satisfied", stubObserver{room: "base"}, "", false},
		{"room", stubObserver{room: "summit"}, "You reach the summit.", true},
		{"item", stubObserver{room: "base", items: map[string]bool{"crown": true}}, "The crown is yours.", true},
		{"npc defeat", stubObserver{room: "base", defeated: map[string]bool{"dragon": true}}, "The dragon falls.", true},
		{"quest complete", stubObserver{room: "base", quests: map[string]bool{"rescue": true}}, "The prisoner is free.", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cond, ok := quest.Evaluate(conditions, tc.obs)
			assert.Equal(t, tc.wantOK, ok)
			if ok {
				assert.Equal(t, tc.wantMsg, cond.Message)
			}
		})
	}
}

func TestEvaluate_FirstSatisfiedWins(t *testing.T) {
	conditions := []quest.WinCondition{
		{Kind: quest.KindRoom, Target: "summit", Message: "first"},
		{Kind: quest.KindItem, Target: "crown", Message: "second"},
	}
	obs := stubObserver{room: "summit", items: map[string]bool{"crown": true}}

	cond, ok := quest.Evaluate(conditions, obs)
	require.True(t, ok)
	assert.Equal(t, "first", cond.Message)
}

func TestEvaluate_NoConditions(t *testing.T) {
	_, ok := quest.Evaluate(nil, stubObserver{room: "anywhere"})
	assert.False(t, ok)
}
