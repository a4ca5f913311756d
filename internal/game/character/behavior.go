package character

// DefaultMemoryLimit is the number of conversation turns an NPC retains
// when no explicit limit is configured.
const DefaultMemoryLimit = 20

// DialogueTurn is one remembered exchange in an NPC's conversation memory.
type DialogueTurn struct {
	// Speaker is "player" or the NPC's ID.
	Speaker string
	// Text is what was said.
	Text string
}

// NPCBehavior holds NPC-only state. Each NPC owns its behavior exclusively;
// no NPC reads or writes another's conversation memory.
type NPCBehavior struct {
	// Personality seeds the dialogue system prompt for this NPC.
	Personality string
	// Memory is the bounded conversation history, oldest first.
	Memory []DialogueTurn
	// MemoryLimit caps Memory. 0 means DefaultMemoryLimit.
	MemoryLimit int
	// HomeRoom is the room the NPC considers home.
	HomeRoom string
	// Patrol lists room IDs the NPC cycles through. Empty = stationary.
	Patrol []string
	// patrolIndex is the next Patrol entry to visit.
	patrolIndex int
}

// Remember appends a turn to the conversation memory, evicting the oldest
// entries beyond the memory limit.
//
// Postcondition: len(Memory) <= effective limit.
func (b *NPCBehavior) Remember(speaker, text string) {
	limit := b.MemoryLimit
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	b.Memory = append(b.Memory, DialogueTurn{Speaker: speaker, Text: text})
	if len(b.Memory) > limit {
		b.Memory = b.Memory[len(b.Memory)-limit:]
	}
}

// NextPatrolRoom returns the next room on the patrol route and advances the
// cycle. Returns ("", false) when no patrol is configured.
func (b *NPCBehavior) NextPatrolRoom() (string, bool) {
	if len(b.Patrol) == 0 {
		return "", false
	}
	room := b.Patrol[b.patrolIndex]
	b.patrolIndex = (b.patrolIndex + 1) % len(b.Patrol)
	return room, true
}
