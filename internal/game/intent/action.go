// Package intent converts raw player text into structured actions. The
// primary path asks the language-model service for a JSON action list; a
// deterministic pattern parser covers every failure mode so the resolver
// never returns an empty action list.
package intent

// Verb is a canonical player action verb. The set is closed; dispatch over
// it must be total.
type Verb string

// The closed verb enumeration.
const (
	VerbMove      Verb = "move"
	VerbLook      Verb = "look"
	VerbTalk      Verb = "talk"
	VerbTake      Verb = "take"
	VerbDrop      Verb = "drop"
	VerbAttack    Verb = "attack"
	VerbFlee      Verb = "flee"
	VerbEquip     Verb = "equip"
	VerbUnequip   Verb = "unequip"
	VerbEquipped  Verb = "equipped"
	VerbInventory Verb = "inventory"
	VerbStatus    Verb = "status"
	VerbHelp      Verb = "help"
	VerbQuit      Verb = "quit"
	VerbUnknown   Verb = "unknown"
)

// AllVerbs lists every member of the closed verb set.
var AllVerbs = []Verb{
	VerbMove, VerbLook, VerbTalk, VerbTake, VerbDrop,
	VerbAttack, VerbFlee, VerbEquip, VerbUnequip, VerbEquipped,
	VerbInventory, VerbStatus, VerbHelp, VerbQuit, VerbUnknown,
}

// validVerbs is the fast-lookup set derived from AllVerbs.
var validVerbs = func() map[Verb]bool {
	m := make(map[Verb]bool, len(AllVerbs))
	for _, v := range AllVerbs {
		m[v] = true
	}
	return m
}()

// ParseVerb returns the Verb for s, or (VerbUnknown, false) when s is not a
// member of the closed set.
func ParseVerb(s string) (Verb, bool) {
	v := Verb(s)
	if validVerbs[v] {
		return v, true
	}
	return VerbUnknown, false
}

// Source tags an action with its provenance.
type Source string

// Action provenance tags.
const (
	// SourceLLM marks actions parsed from a language-model completion.
	SourceLLM Source = "llm"
	// SourceFallback marks actions produced by the deterministic parser.
	SourceFallback Source = "fallback"
)

// Action is one structured player intent.
type Action struct {
	// Verb is the canonical action verb.
	Verb Verb
	// Target is what the verb acts on: an exit name, item, or NPC.
	Target string
	// Details carries free-form extra text (e.g. what to say).
	Details string
	// Source records which resolution path produced the action.
	Source Source
}

// Context is the bundle of observable world state handed to the resolver so
// the language model can ground its parse.
type Context struct {
	// RoomDescription is the current room's description text.
	RoomDescription string
	// NPCs lists the display names of NPCs visible in the room.
	NPCs []string
	// Items lists the display names of floor items in the room.
	Items []string
	// Exits lists the reachable exit names.
	Exits []string
	// RecentCommands is the session's bounded command history, oldest first.
	RecentCommands []string
	// InCombat tells the model the session is mid-fight.
	InCombat bool
}
