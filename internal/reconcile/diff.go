// Package reconcile computes what must be printed or cancelled when a
// working order is committed over its last committed baseline.
package reconcile

// Identity is the kitchen-facing identity of a line. Two lines with the same
// name and unit price are the same dish as far as a printer is concerned.
type Identity struct {
	Name      string
	UnitPrice string
}

// Line is the shape the diff engine works on. WithQuantity returns a copy of
// the line carrying only q units.
type Line[T any] interface {
	Identity() Identity
	Qty() int
	WithQuantity(q int) T
}

// Delta holds the per-identity quantity changes between two line sets.
type Delta[T any] struct {
	ToPrint  []T
	ToCancel []T
}

func (d Delta[T]) Empty() bool {
	return len(d.ToPrint) == 0 && len(d.ToCancel) == 0
}

// Diff returns the lines to print and to cancel so that applying them to
// baseline yields working. Quantities are aggregated per identity and the
// output follows first-seen order. An empty baseline prints working as is.
func Diff[T Line[T]](baseline, working []T) Delta[T] {
	if len(baseline) == 0 {
		return Delta[T]{ToPrint: append([]T(nil), working...)}
	}

	base := aggregate(baseline)
	work := aggregate(working)

	var delta Delta[T]
	for _, id := range work.order {
		w := work.entries[id]
		b, ok := base.entries[id]
		switch {
		case !ok:
			delta.ToPrint = append(delta.ToPrint, w.sample.WithQuantity(w.qty))
		case w.qty > b.qty:
			delta.ToPrint = append(delta.ToPrint, w.sample.WithQuantity(w.qty-b.qty))
		}
	}
	for _, id := range base.order {
		b := base.entries[id]
		w, ok := work.entries[id]
		switch {
		case !ok:
			delta.ToCancel = append(delta.ToCancel, b.sample.WithQuantity(b.qty))
		case b.qty > w.qty:
			delta.ToCancel = append(delta.ToCancel, b.sample.WithQuantity(b.qty-w.qty))
		}
	}
	return delta
}

// Apply returns the per-identity quantities obtained by adding ToPrint to
// baseline and subtracting ToCancel. Identities that net to zero are omitted.
func Apply[T Line[T]](baseline []T, delta Delta[T]) map[Identity]int {
	out := Quantities(baseline)
	for _, l := range delta.ToPrint {
		out[l.Identity()] += l.Qty()
	}
	for _, l := range delta.ToCancel {
		out[l.Identity()] -= l.Qty()
	}
	for id, q := range out {
		if q == 0 {
			delete(out, id)
		}
	}
	return out
}

// Quantities sums line quantities per identity.
func Quantities[T Line[T]](lines []T) map[Identity]int {
	out := make(map[Identity]int, len(lines))
	for _, l := range lines {
		out[l.Identity()] += l.Qty()
	}
	return out
}

type entry[T any] struct {
	sample T
	qty    int
}

type aggregated[T any] struct {
	order   []Identity
	entries map[Identity]*entry[T]
}

func aggregate[T Line[T]](lines []T) aggregated[T] {
	agg := aggregated[T]{entries: make(map[Identity]*entry[T], len(lines))}
	for _, l := range lines {
		id := l.Identity()
		if e, ok := agg.entries[id]; ok {
			e.qty += l.Qty()
			continue
		}
		agg.entries[id] = &entry[T]{sample: l, qty: l.Qty()}
		agg.order = append(agg.order, id)
	}
	return agg
}
