// Package ehistory is the non-destructive edit history: an ordered
// stack of (operation label, image snapshot) pairs. Popping truncates
// - there is no redo buffer, by design; re-applying means re-running a
// tool from its parameters, not replaying a stored diff.
package ehistory

import(
	"strings"

	"github.com/equinoxlab/astropost/pkg/eimage"
)

// An Entry is one applied operation: its canonical label (embedding
// all parameters), the resulting image snapshot, and the frame in
// effect at that point (nil when the image has none). The bottom entry
// is the original image and carries no label.
type Entry struct {
	Label string
	Image *eimage.Image
	Frame *eimage.Image
}

type History struct {
	entries []Entry
}

// New starts a history from the original image (and its detected
// frame, or nil). Both are snapshotted.
func New(original, frame *eimage.Image) *History {
	e := Entry{Image: original.Clone()}
	if frame != nil {
		e.Frame = frame.Clone()
	}
	return &History{entries: []Entry{e}}
}

// Len returns the number of entries, including the original.
func (h *History)Len() int { return len(h.entries) }

// Operations returns the number of applied operations (entries beyond
// the original).
func (h *History)Operations() int { return len(h.entries) - 1 }

// Entry returns the entry at index i (0 = original).
func (h *History)Entry(i int) Entry { return h.entries[i] }

// Original returns the bottom snapshot.
func (h *History)Original() *eimage.Image { return h.entries[0].Image }

// Current returns the image snapshot at the top of the stack, the
// reference for the next tool run.
func (h *History)Current() *eimage.Image { return h.entries[len(h.entries)-1].Image }

// CurrentFrame returns the frame in effect at the top of the stack,
// or nil.
func (h *History)CurrentFrame() *eimage.Image { return h.entries[len(h.entries)-1].Frame }

// Push snapshots the image (and frame, when not nil - otherwise the
// current frame carries over) under the operation label. The frame is
// cloned on carry-over too, so every entry owns its snapshots.
func (h *History)Push(label string, img, frame *eimage.Image) {
	e := Entry{Label: label, Image: img.Clone()}
	if frame == nil {
		frame = h.CurrentFrame()
	}
	if frame != nil {
		e.Frame = frame.Clone()
	}
	h.entries = append(h.entries, e)
}

// Pop removes and returns the last operation entry, discarding its
// snapshot from the stack. Popping a history holding only the original
// is a no-op and returns ok = false.
func (h *History)Pop() (Entry, bool) {
	if len(h.entries) <= 1 {
		return Entry{}, false
	}
	e := h.entries[len(h.entries)-1]
	h.entries[len(h.entries)-1] = Entry{}
	h.entries = h.entries[:len(h.entries)-1]
	return e, true
}

// Logs returns the operation labels in order, one per line, for
// persistence alongside the saved image.
func (h *History)Logs() string {
	var sb strings.Builder
	for _, e := range h.entries[1:] {
		sb.WriteString(e.Label)
		sb.WriteByte('\n')
	}
	return sb.String()
}
