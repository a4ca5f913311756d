package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/equipment"
	"github.com/cory-johannsen/adventure/internal/game/item"
	"github.com/cory-johannsen/adventure/internal/game/quest"
)

// yamlStack is an item stack reference in the snapshot file.
type yamlStack struct {
	Item     string `yaml:"item"`
	Quantity int    `yaml:"quantity"`
}

// yamlCharacter is the on-disk character shape.
type yamlCharacter struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	MaxHealth   int               `yaml:"max_health"`
	Health      int               `yaml:"health"`
	Strength    int               `yaml:"strength"`
	Agility     int               `yaml:"agility"`
	Armor       int               `yaml:"armor"`
	Role        string            `yaml:"role"`
	Carried     []yamlStack       `yaml:"carried"`
	Equipped    map[string]string `yaml:"equipped"`
	Personality string            `yaml:"personality"`
	HomeRoom    string            `yaml:"home_room"`
	Patrol      []string          `yaml:"patrol"`
	MemoryLimit int               `yaml:"memory_limit"`
}

// yamlExit is the on-disk exit shape. Available defaults to true.
type yamlExit struct {
	Name           string `yaml:"name"`
	Target         string `yaml:"target"`
	Blocked        bool   `yaml:"blocked"`
	BlockedMessage string `yaml:"blocked_message"`
}

// yamlRoom is the on-disk room shape.
type yamlRoom struct {
	ID          string            `yaml:"id"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Exits       []yamlExit        `yaml:"exits"`
	NPCs        []string          `yaml:"npcs"`
	Floor       []yamlStack       `yaml:"floor"`
	Properties  map[string]string `yaml:"properties"`
}

// yamlQuest is the on-disk quest shape.
type yamlQuest struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Objectives []string `yaml:"objectives"`
}

// yamlSnapshot is the top-level snapshot file shape.
type yamlSnapshot struct {
	Title         string               `yaml:"title"`
	StartRoom     string               `yaml:"start_room"`
	ScriptFile    string               `yaml:"script_file"`
	Slots         []equipment.SlotDef  `yaml:"slots"`
	Items         []*item.Item         `yaml:"items"`
	Characters    []yamlCharacter      `yaml:"characters"`
	Rooms         []yamlRoom           `yaml:"rooms"`
	Quests        []yamlQuest          `yaml:"quests"`
	WinConditions []quest.WinCondition `yaml:"win_conditions"`
}

// Load reads and validates a world snapshot from path.
//
// Precondition: path must reference a readable YAML snapshot file.
// Postcondition: the returned Snapshot passes Validate.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("world.Load: reading %q: %w", path, err)
	}
	return Parse(data)
}

// Parse builds and validates a Snapshot from raw YAML.
//
// Postcondition: the returned Snapshot passes Validate; characters with an
// unset health field start at full health.
func Parse(data []byte) (*Snapshot, error) {
	var y yamlSnapshot
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("world.Parse: parsing snapshot: %w", err)
	}

	snap := &Snapshot{
		Title:         y.Title,
		StartRoom:     y.StartRoom,
		Rooms:         make(map[string]*Room, len(y.Rooms)),
		Characters:    make(map[string]*character.Character, len(y.Characters)),
		Items:         item.NewRegistry(),
		Quests:        make(map[string]*quest.Quest, len(y.Quests)),
		WinConditions: y.WinConditions,
		ScriptFile:    y.ScriptFile,
	}

	if len(y.Slots) > 0 {
		snap.SlotConfig = &equipment.SlotConfig{Slots: y.Slots}
	} else {
		snap.SlotConfig = equipment.DefaultConfig()
	}

	for _, def := range y.Items {
		if err := snap.Items.Register(def); err != nil {
			return nil, fmt.Errorf("world.Parse: %w", err)
		}
	}

	for _, yc := range y.Characters {
		ch, err := buildCharacter(yc, snap.Items)
		if err != nil {
			return nil, fmt.Errorf("world.Parse: %w", err)
		}
		if _, dup := snap.Characters[ch.ID]; dup {
			return nil, fmt.Errorf("world.Parse: duplicate character ID %q", ch.ID)
		}
		snap.Characters[ch.ID] = ch
	}

	for _, yr := range y.Rooms {
		room := buildRoom(yr)
		if _, dup := snap.Rooms[room.ID]; dup {
			return nil, fmt.Errorf("world.Parse: duplicate room ID %q", room.ID)
		}
		snap.Rooms[room.ID] = room
	}

	for _, yq := range y.Quests {
		if len(yq.Objectives) == 0 {
			return nil, fmt.Errorf("world.Parse: quest %q has no objectives", yq.ID)
		}
		if _, dup := snap.Quests[yq.ID]; dup {
			return nil, fmt.Errorf("world.Parse: duplicate quest ID %q", yq.ID)
		}
		snap.Quests[yq.ID] = quest.New(yq.ID, yq.Name, yq.Objectives)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// buildCharacter converts the YAML character into the domain model,
// attaching the NPC behavior component only for non-player roles.
func buildCharacter(yc yamlCharacter, items *item.Registry) (*character.Character, error) {
	if yc.ID == "" || yc.Name == "" {
		return nil, fmt.Errorf("character must have id and name (id=%q)", yc.ID)
	}
	if yc.MaxHealth < 1 {
		return nil, fmt.Errorf("character %q: max_health must be >= 1", yc.ID)
	}

	ch := character.New(yc.ID, yc.Name, yc.MaxHealth)
	if yc.Health > 0 {
		ch.Health = yc.Health
	}
	ch.Strength = yc.Strength
	ch.Agility = yc.Agility
	ch.Armor = yc.Armor
	ch.Role = yc.Role
	if ch.Role == "" {
		ch.Role = character.RoleFriendly
	}

	for _, stack := range yc.Carried {
		def, ok := items.Item(stack.Item)
		if !ok {
			return nil, fmt.Errorf("character %q carries unknown item %q", yc.ID, stack.Item)
		}
		qty := stack.Quantity
		if qty < 1 {
			qty = 1
		}
		ch.AddItem(def, qty)
	}
	for slotID, itemID := range yc.Equipped {
		ch.Slots[slotID] = itemID
	}

	if ch.Role != character.RolePlayer {
		ch.Behavior = &character.NPCBehavior{
			Personality: yc.Personality,
			MemoryLimit: yc.MemoryLimit,
			HomeRoom:    yc.HomeRoom,
			Patrol:      yc.Patrol,
		}
	}
	return ch, nil
}

// buildRoom converts the YAML room into the domain model. Exits default to
// available unless marked blocked.
func buildRoom(yr yamlRoom) *Room {
	room := &Room{
		ID:          yr.ID,
		Title:       yr.Title,
		Description: yr.Description,
		NPCs:        yr.NPCs,
		Properties:  yr.Properties,
	}
	for _, ye := range yr.Exits {
		room.Exits = append(room.Exits, Exit{
			Name:           ye.Name,
			Target:         ye.Target,
			Available:      !ye.Blocked,
			BlockedMessage: ye.BlockedMessage,
		})
	}
	for _, stack := range yr.Floor {
		qty := stack.Quantity
		if qty < 1 {
			qty = 1
		}
		room.Floor = append(room.Floor, FloorItem{ItemID: stack.Item, Quantity: qty})
	}
	return room
}
