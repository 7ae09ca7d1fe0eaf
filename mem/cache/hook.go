package cache

// HookPos names a point in the simulator where hooks run.
type HookPos struct {
	Name string
}

// HookPosAccessApplied runs after a data access has updated the cache. The
// item is the MemoryAccess and the detail is its []AccessOutcome.
var HookPosAccessApplied = &HookPos{Name: "AccessApplied"}

// HookCtx describes one hook invocation.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable is implemented by the types that observers can attach to.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
}

// A Hook observes the simulator. It must not modify the cache.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase keeps the registered hooks of a Hookable in registration
// order.
type HookableBase struct {
	hooks []Hook
}

// NumHooks returns how many hooks are attached.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// AcceptHook attaches a hook. Attaching the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mustNotHaveDuplicatedHook(hook)
	h.hooks = append(h.hooks, hook)
}

func (h *HookableBase) mustNotHaveDuplicatedHook(hook Hook) {
	for _, attached := range h.hooks {
		if attached == hook {
			panic("hook already attached")
		}
	}
}

// InvokeHook calls every attached hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
