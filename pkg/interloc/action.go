package interloc

// ActionKind indicates which allocator call an action describes and,
// implicitly, its phase: the plain kinds fire right before the real
// call, the *Result kinds right after it.
type ActionKind uint8

const (
	// ActionAlloc fires before Allocate runs.
	ActionAlloc ActionKind = iota
	// ActionAllocResult fires after Allocate returned.
	ActionAllocResult
	// ActionAllocZeroed fires before AllocateZeroed runs.
	ActionAllocZeroed
	// ActionAllocZeroedResult fires after AllocateZeroed returned.
	ActionAllocZeroedResult
	// ActionDealloc fires before Deallocate runs.
	ActionDealloc
	// ActionDeallocResult fires after Deallocate finished.
	ActionDeallocResult
	// ActionRealloc fires before Reallocate runs.
	ActionRealloc
	// ActionReallocResult fires after Reallocate returned.
	ActionReallocResult
)

// Phase is the position of an action relative to the real allocator
// call it describes.
type Phase uint8

const (
	Before Phase = iota
	After
)

// Phase derives the action's phase from its kind alone.
func (k ActionKind) Phase() Phase {
	switch k {
	case ActionAlloc, ActionAllocZeroed, ActionDealloc, ActionRealloc:
		return Before
	default:
		return After
	}
}

func (k ActionKind) String() string {
	switch k {
	case ActionAlloc:
		return "Alloc"
	case ActionAllocResult:
		return "AllocResult"
	case ActionAllocZeroed:
		return "AllocZeroed"
	case ActionAllocZeroedResult:
		return "AllocZeroedResult"
	case ActionDealloc:
		return "Dealloc"
	case ActionDeallocResult:
		return "DeallocResult"
	case ActionRealloc:
		return "Realloc"
	case ActionReallocResult:
		return "ReallocResult"
	default:
		return "Unknown"
	}
}

func (p Phase) String() string {
	if p == Before {
		return "Before"
	}
	return "After"
}

// Action is one notification about an allocator call.
type Action struct {
	// Kind indicates which call this is and whether the real work has
	// happened yet. Always valid.
	Kind ActionKind

	// Buf is the block being freed or resized for ActionDealloc and
	// ActionRealloc, and the block returned by the real call for the
	// *Result kinds (nil when the call failed). Not valid for
	// ActionAlloc, ActionAllocZeroed and ActionDeallocResult.
	Buf []byte

	// NewSize is the requested size of the resized block.
	// Only valid for ActionRealloc and ActionReallocResult.
	NewSize int
}

// Phase reports whether the action fired before or after the real call.
func (a Action) Phase() Phase {
	return a.Kind.Phase()
}
