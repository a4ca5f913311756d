// Package scripting provides a sandboxed GopherLua environment for world
// event hooks. The engine injects game interactions through callback
// fields; the package itself has no dependency on game domain packages.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// hook invocation when the snapshot does not configure its own limit.
const DefaultInstructionLimit = 100_000

// opcodeBudget is a context.Context whose Done() cancels after a fixed
// number of calls. GopherLua consults Done() once per opcode, which turns
// the budget into an exact instruction limit.
type opcodeBudget struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done decrements the budget; once it is spent the cancel fires and the VM
// halts on the next opcode boundary.
func (b *opcodeBudget) Done() <-chan struct{} {
	if b.remaining.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// newOpcodeBudget returns a context that cancels after limit opcodes.
//
// Precondition: limit > 0.
func newOpcodeBudget(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &opcodeBudget{Context: base, cancel: cancel, remaining: rem}, cancel
}

// newSandboxedState creates a GopherLua state with only the safe standard
// libraries (base, table, string, math) and the file-loading and code-
// loading globals removed.
//
// Postcondition: the caller owns the state and must Close() it.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "print"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
