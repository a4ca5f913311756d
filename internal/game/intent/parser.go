package intent

import "strings"

// stopWords are stripped from input before pattern matching.
var stopWords = map[string]bool{"the": true, "a": true, "an": true, "my": true}

// normalize lowercases input and strips stop words, preserving word order.
func normalize(input string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	kept := fields[:0]
	for _, f := range fields {
		if !stopWords[f] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// verbPattern maps leading token sequences to a verb. Patterns are tried in
// declaration order; the first match wins.
type verbPattern struct {
	verb Verb
	// phrases are leading token sequences that select this verb. A phrase
	// matches when the normalized input starts with exactly these tokens.
	phrases []string
	// bare reports whether the phrase alone (no target) is a valid command.
	bare bool
}

// equipmentPatterns are tried before exit matching. Order is load-bearing:
// "take off" must be claimed by unequip before "take" is claimed by the
// take verb below, and "equipped" before the "equip" prefix.
var equipmentPatterns = []verbPattern{
	{verb: VerbEquip, phrases: []string{"equip", "wear", "wield"}},
	{verb: VerbUnequip, phrases: []string{"unequip", "remove", "dequip", "take off"}},
	{verb: VerbEquipped, phrases: []string{"equipped", "equipment", "what am i wearing"}, bare: true},
}

// generalPatterns are tried after exit matching.
var generalPatterns = []verbPattern{
	{verb: VerbTalk, phrases: []string{"talk", "speak"}},
	{verb: VerbAttack, phrases: []string{"attack", "fight", "kill"}},
	{verb: VerbFlee, phrases: []string{"flee", "run away"}, bare: true},
	{verb: VerbTake, phrases: []string{"take", "get", "pick up", "grab"}},
	{verb: VerbDrop, phrases: []string{"drop"}},
	{verb: VerbLook, phrases: []string{"look", "examine"}, bare: true},
	{verb: VerbInventory, phrases: []string{"inventory", "inv"}, bare: true},
	{verb: VerbStatus, phrases: []string{"status", "stats"}, bare: true},
	{verb: VerbHelp, phrases: []string{"help"}, bare: true},
	{verb: VerbQuit, phrases: []string{"quit", "exit"}, bare: true},
}

// movementPrefixes are stripped before matching input against exit names.
var movementPrefixes = []string{"go", "move", "walk", "head"}

// UnknownMessage is the clarifying message attached to unknown actions.
const UnknownMessage = "I don't understand that. Try 'help' for a list of things you can do."

// ParseFallback deterministically parses input against the priority-ordered
// verb pattern table and the room's reachable exits.
//
// Postcondition: always returns exactly one action; unrecognized input maps
// to VerbUnknown carrying a clarifying Details message. Pure function of
// its inputs.
func ParseFallback(input string, exits []string) Action {
	norm := normalize(input)
	if norm == "" {
		return Action{Verb: VerbUnknown, Target: input, Details: UnknownMessage, Source: SourceFallback}
	}

	if act, ok := matchPatterns(norm, equipmentPatterns); ok {
		return act
	}
	if exit, ok := matchExit(norm, exits); ok {
		return Action{Verb: VerbMove, Target: exit, Source: SourceFallback}
	}
	if act, ok := matchPatterns(norm, generalPatterns); ok {
		return act
	}

	return Action{Verb: VerbUnknown, Target: input, Details: UnknownMessage, Source: SourceFallback}
}

// matchPatterns tries each pattern in order and returns the first match.
func matchPatterns(norm string, patterns []verbPattern) (Action, bool) {
	for _, p := range patterns {
		for _, phrase := range p.phrases {
			rest, ok := matchPhrase(norm, phrase)
			if !ok {
				continue
			}
			if rest == "" && !p.bare {
				continue
			}
			return Action{Verb: p.verb, Target: cleanTarget(p.verb, rest), Source: SourceFallback}, true
		}
	}
	return Action{}, false
}

// matchPhrase reports whether input begins with phrase on a word boundary,
// returning the remaining text.
func matchPhrase(input, phrase string) (string, bool) {
	if input == phrase {
		return "", true
	}
	if strings.HasPrefix(input, phrase+" ") {
		return strings.TrimSpace(input[len(phrase):]), true
	}
	return "", false
}

// cleanTarget strips connective words left between the verb and its target
// ("talk to guard" → "guard").
func cleanTarget(v Verb, target string) string {
	switch v {
	case VerbTalk:
		target = strings.TrimPrefix(target, "to ")
	case VerbAttack:
		target = strings.TrimPrefix(target, "at ")
	}
	return strings.TrimSpace(target)
}

// matchExit fuzzy-matches input against exit names: exact match first, then
// input as a substring of an exit name, then an exit name as a substring of
// the input. Leading movement words ("go", "move") are stripped first.
//
// Postcondition: returns the exit's original display name on a match.
func matchExit(input string, exits []string) (string, bool) {
	for _, prefix := range movementPrefixes {
		if rest, ok := matchPhrase(input, prefix); ok {
			input = strings.TrimPrefix(rest, "to ")
			break
		}
	}
	if input == "" {
		return "", false
	}

	for _, exit := range exits {
		if strings.ToLower(exit) == input {
			return exit, true
		}
	}
	for _, exit := range exits {
		if strings.Contains(strings.ToLower(exit), input) {
			return exit, true
		}
	}
	for _, exit := range exits {
		if strings.Contains(input, strings.ToLower(exit)) {
			return exit, true
		}
	}
	return "", false
}
