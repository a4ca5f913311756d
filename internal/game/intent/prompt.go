package intent

import (
	"fmt"
	"strings"
)

// systemPrompt instructs the model to emit a raw JSON action array.
const systemPrompt = `You convert a player's command in a text adventure into game actions.
Respond with ONLY a JSON array of action objects, no prose and no markdown fences.
Each object has the shape {"action": "...", "target": "...", "details": "..."}.
"action" must be one of: move, look, talk, take, drop, attack, flee, equip,
unequip, equipped, inventory, status, help, quit, unknown.
"target" names what the action applies to (an exit, item, or character);
leave it empty when the verb takes no target. "details" carries extra text,
such as what the player wants to say. If the command cannot be understood,
respond with a single unknown action whose details ask for clarification.
A command may expand to several actions in order, e.g. "grab the sword and
attack the troll" becomes a take followed by an attack.`

// buildUserPrompt renders the context bundle and the raw command.
func buildUserPrompt(input string, ic Context) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current room: %s\n", ic.RoomDescription)
	if len(ic.Exits) > 0 {
		fmt.Fprintf(&sb, "Exits: %s\n", strings.Join(ic.Exits, ", "))
	}
	if len(ic.NPCs) > 0 {
		fmt.Fprintf(&sb, "Characters here: %s\n", strings.Join(ic.NPCs, ", "))
	}
	if len(ic.Items) > 0 {
		fmt.Fprintf(&sb, "Items here: %s\n", strings.Join(ic.Items, ", "))
	}
	if ic.InCombat {
		sb.WriteString("The player is currently in combat.\n")
	}
	if len(ic.RecentCommands) > 0 {
		fmt.Fprintf(&sb, "Recent commands: %s\n", strings.Join(ic.RecentCommands, "; "))
	}
	fmt.Fprintf(&sb, "\nPlayer command: %s", input)
	return sb.String()
}
