package scripting

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Hook function names looked up in the script's global table.
const (
	hookEnterRoom = "on_enter_room"
	hookTakeItem  = "on_take_item"
	hookTalk      = "on_talk"
)

// Hooks owns one sandboxed Lua VM loaded from a world snapshot's script
// file and dispatches world events into it. A missing hook function is not
// an error; hook failures are logged and swallowed so a broken script can
// never abort a turn.
type Hooks struct {
	state  *lua.LState
	limit  int
	logger *zap.Logger

	// CompleteObjective is injected by the engine before the first event.
	// Scripts reach it as quest.complete(quest_id, objective).
	CompleteObjective func(questID, objective string) error
	// UnlockExit is injected by the engine. Scripts reach it as
	// world.unlock(room_id, exit_name).
	UnlockExit func(roomID, exitName string) error
}

// NewHooks loads scriptPath into a fresh sandboxed VM.
//
// Precondition: scriptPath must reference a readable Lua file; instLimit
// <= 0 selects DefaultInstructionLimit; logger must not be nil.
// Postcondition: the returned Hooks owns the VM; call Close when done.
func NewHooks(scriptPath string, instLimit int, logger *zap.Logger) (*Hooks, error) {
	if logger == nil {
		panic("scripting.NewHooks: logger must not be nil")
	}
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}

	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("scripting.NewHooks: reading %q: %w", scriptPath, err)
	}

	h := &Hooks{state: newSandboxedState(), limit: instLimit, logger: logger}
	h.registerModules()

	budget, cancel := newOpcodeBudget(instLimit)
	h.state.SetContext(budget)
	defer cancel()
	if err := h.state.DoString(string(src)); err != nil {
		h.state.Close()
		return nil, fmt.Errorf("scripting.NewHooks: loading %q: %w", scriptPath, err)
	}
	h.state.RemoveContext()
	return h, nil
}

// Close releases the Lua VM.
func (h *Hooks) Close() {
	h.state.Close()
}

// registerModules exposes the quest and world tables to scripts. Calls made
// before the engine injects the callbacks are no-ops.
func (h *Hooks) registerModules() {
	questMod := h.state.NewTable()
	h.state.SetField(questMod, "complete", h.state.NewFunction(func(L *lua.LState) int {
		questID := L.CheckString(1)
		objective := L.CheckString(2)
		if h.CompleteObjective == nil {
			L.Push(lua.LFalse)
			return 1
		}
		if err := h.CompleteObjective(questID, objective); err != nil {
			h.logger.Warn("script quest.complete failed",
				zap.String("quest", questID),
				zap.String("objective", objective),
				zap.Error(err),
			)
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(lua.LTrue)
		return 1
	}))
	h.state.SetGlobal("quest", questMod)

	worldMod := h.state.NewTable()
	h.state.SetField(worldMod, "unlock", h.state.NewFunction(func(L *lua.LState) int {
		roomID := L.CheckString(1)
		exitName := L.CheckString(2)
		if h.UnlockExit == nil {
			L.Push(lua.LFalse)
			return 1
		}
		if err := h.UnlockExit(roomID, exitName); err != nil {
			h.logger.Warn("script world.unlock failed",
				zap.String("room", roomID),
				zap.String("exit", exitName),
				zap.Error(err),
			)
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(lua.LTrue)
		return 1
	}))
	h.state.SetGlobal("world", worldMod)
}

// call invokes the named global hook with args under the opcode budget.
// Undefined hooks return immediately; execution errors are logged.
func (h *Hooks) call(hook string, args ...lua.LValue) {
	fn := h.state.GetGlobal(hook)
	if fn == lua.LNil {
		return
	}

	budget, cancel := newOpcodeBudget(h.limit)
	h.state.SetContext(budget)
	defer func() {
		cancel()
		h.state.RemoveContext()
	}()

	if err := h.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		h.logger.Warn("script hook failed", zap.String("hook", hook), zap.Error(err))
	}
}

// OnEnterRoom fires after the player moves into roomID.
func (h *Hooks) OnEnterRoom(roomID string) {
	h.call(hookEnterRoom, lua.LString(roomID))
}

// OnTakeItem fires after the player picks up itemID.
func (h *Hooks) OnTakeItem(itemID string) {
	h.call(hookTakeItem, lua.LString(itemID))
}

// OnTalk fires after the player talks to npcID.
func (h *Hooks) OnTalk(npcID string) {
	h.call(hookTalk, lua.LString(npcID))
}
