// Package window models optional start/end time bounds shared by product
// discounts, discount codes and site notices.
package window

import (
	"time"

	"github.com/xenking/wildgarden/internal/domain/validate"
)

// Window is a time range with optional bounds. A nil (or zero) bound leaves
// that side open.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether now is not before Start and not after End.
// Both bounds are inclusive.
func (w Window) Contains(now time.Time) bool {
	if start, ok := bound(w.Start); ok && now.Before(start) {
		return false
	}
	if end, ok := bound(w.End); ok && now.After(end) {
		return false
	}
	return true
}

// Validate rejects a window whose end precedes its start.
func (w Window) Validate() error {
	start, hasStart := bound(w.Start)
	end, hasEnd := bound(w.End)
	if hasStart && hasEnd && end.Before(start) {
		return validate.New("end_at", "end must not precede start")
	}
	return nil
}

// Normalize drops zero-valued bounds so that storage only ever sees nil or a
// real instant.
func (w Window) Normalize() Window {
	var out Window
	if t, ok := bound(w.Start); ok {
		out.Start = &t
	}
	if t, ok := bound(w.End); ok {
		out.End = &t
	}
	return out
}

func bound(t *time.Time) (time.Time, bool) {
	if t == nil || t.IsZero() {
		return time.Time{}, false
	}
	return *t, true
}

// Field is a patchable bound. Set=false leaves the current value untouched;
// Set=true with a nil Value clears it.
type Field struct {
	Set   bool
	Value *time.Time
}

// Patch is a partial update of a Window.
type Patch struct {
	Start Field
	End   Field
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return !p.Start.Set && !p.End.Set
}

// Apply merges the patch onto w.
func (p Patch) Apply(w Window) Window {
	if p.Start.Set {
		w.Start = p.Start.Value
	}
	if p.End.Set {
		w.End = p.End.Value
	}
	return w.Normalize()
}
