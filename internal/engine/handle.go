package engine

import (
	"fmt"
)

// Handle owns exactly one engine instance for the lifetime of a filter
// stage and tracks whether it is currently open.
type Handle struct {
	eng   Engine
	open  bool
	opens int
}

// Alloc allocates an engine through alloc and wraps it in a closed handle.
func Alloc(alloc Allocator) (*Handle, error) {
	if alloc == nil {
		alloc = DefaultAllocator
	}

	eng, err := alloc()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAlloc, err)
	}
	if eng == nil {
		return nil, fmt.Errorf("%w: allocator returned no engine", ErrAlloc)
	}

	return &Handle{eng: eng}, nil
}

// Reopen closes the engine if it is open and opens it again with p.
// On failure the handle is left closed.
func (h *Handle) Reopen(p Params) error {
	if h.eng == nil {
		return fmt.Errorf("%w: handle released", ErrNotOpen)
	}

	h.Close()
	if err := h.eng.Open(p); err != nil {
		return err
	}

	h.open = true
	h.opens++
	return nil
}

// Convert converts src into dst. See Engine.Convert.
func (h *Handle) Convert(dst, src []int16) (int, error) {
	if !h.IsOpen() {
		return 0, ErrNotOpen
	}
	return h.eng.Convert(dst, src)
}

// Delay returns the engine's buffered input frames, 0 when closed.
func (h *Handle) Delay() int {
	if !h.IsOpen() {
		return 0
	}
	return h.eng.Delay()
}

// Available returns the engine's held-back output frames, 0 when closed.
func (h *Handle) Available() int {
	if !h.IsOpen() {
		return 0
	}
	return h.eng.Available()
}

// Close closes the engine. Safe on a nil, closed or released handle.
func (h *Handle) Close() {
	if h == nil || !h.open {
		return
	}
	h.eng.Close()
	h.open = false
}

// Release closes the engine and drops it. The handle cannot be reopened.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.Close()
	h.eng = nil
}

// IsOpen reports whether the engine is open.
func (h *Handle) IsOpen() bool {
	return h != nil && h.open && h.eng != nil
}

// Opens returns how many times the engine has been opened successfully.
func (h *Handle) Opens() int {
	return h.opens
}
