package xdr

import "io"

// BoundedListBuilder accumulates Pack items under a byte budget, the
// pattern READDIR/READDIRPLUS use to stop adding directory entries once
// the reply would exceed the client's requested count. It tracks a
// running packed-size total rather than re-walking accepted items on
// every push.
//
// The zero value is not usable; construct with NewBoundedListBuilder.
type BoundedListBuilder[T Pack] struct {
	budget    uint32
	used      uint32
	terminate uint32 // size of the trailing "false" discriminant
	items     []T
}

// NewBoundedListBuilder creates a builder that will reject items once
// accepting them (plus the final list terminator) would exceed budget.
func NewBoundedListBuilder[T Pack](budget uint32) *BoundedListBuilder[T] {
	return &BoundedListBuilder[T]{
		budget:    budget,
		terminate: 4, // final "has_next = false" uint32
	}
}

// TryPush attempts to add item to the list. It returns ok=true if the
// item was accepted. On rejection the item is returned unconsumed so the
// caller can use it to compute a resume cookie.
func (b *BoundedListBuilder[T]) TryPush(item T) (ok bool, rejected T) {
	// Each entry on the wire is preceded by a "has_next = true" discriminant.
	cost := 4 + item.PackedSize()
	if b.used+cost+b.terminate > b.budget {
		return false, item
	}
	b.used += cost
	b.items = append(b.items, item)
	return true, rejected
}

// Items returns the accepted items in push order.
func (b *BoundedListBuilder[T]) Items() []T {
	return b.items
}

// Len returns the number of accepted items.
func (b *BoundedListBuilder[T]) Len() int {
	return len(b.items)
}

// PackedSize returns the total size of PackNamedList applied to the
// accepted items, including the final terminator.
func (b *BoundedListBuilder[T]) PackedSize() uint32 {
	return b.used + b.terminate
}

// PackNamedList writes the XDR "optional-list" encoding used throughout
// NFS v3: (true, item)* followed by a trailing false. This is distinct
// from PackOptional in that it repeats, not a single presence bit.
func PackNamedList[T Pack](w io.Writer, items []T) (int, error) {
	total := 0
	for _, item := range items {
		n, err := PackBool(w, true)
		total += n
		if err != nil {
			return total, err
		}
		n, err = item.Pack(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := PackBool(w, false)
	return total + n, err
}

// UnpackNamedList reads the (true, item)*, false encoding, constructing
// each element via newItem.
func UnpackNamedList[T Unpack](r io.Reader, newItem func() T) ([]T, int, error) {
	total := 0
	var items []T
	for {
		hasNext, n, err := UnpackBool(r)
		total += n
		if err != nil {
			return items, total, err
		}
		if !hasNext {
			return items, total, nil
		}
		item := newItem()
		n, err = item.Unpack(r)
		total += n
		if err != nil {
			return items, total, err
		}
		items = append(items, item)
	}
}
