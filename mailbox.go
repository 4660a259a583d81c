package actorkit

// mailboxItem holds one queued envelope plus its links in the mailbox's
// intrusive doubly-linked list (spec.md §4.3, component C3). The sentinel
// item is its own next and prev and is never removed; a mailbox is empty iff
// sentinel.next == sentinel.
type mailboxItem struct {
	env        *envelope
	next, prev *mailboxItem

	// reported tracks whether this item has already been handed to a
	// DeadLetterOffice as an unmatched message, so an actor with a chatty
	// mailbox doesn't re-report the same stuck item on every activation
	// (spec.md §7 item 1).
	reported bool
}

// mailbox is a circular, doubly-linked list with a head sentinel. Insertion
// at either end and removal of an arbitrary item are O(1); only findFirst is
// O(n), since matching a message may require scanning past items the current
// handler installation does not match (spec.md §4.4.5).
type mailbox struct {
	sentinel *mailboxItem
}

// newMailbox returns an empty mailbox.
func newMailbox() *mailbox {
	s := &mailboxItem{}
	s.next, s.prev = s, s
	return &mailbox{sentinel: s}
}

// empty reports whether the mailbox holds no items.
func (mb *mailbox) empty() bool {
	return mb.sentinel.next == mb.sentinel
}

// insertAfter links item immediately after existing.
func (mb *mailbox) insertAfter(existing, item *mailboxItem) {
	item.prev = existing
	item.next = existing.next
	existing.next.prev = item
	existing.next = item
}

// insertBefore links item immediately before existing.
func (mb *mailbox) insertBefore(existing, item *mailboxItem) {
	mb.insertAfter(existing.prev, item)
}

// pushFront inserts item as the new head of the mailbox (immediately after
// the sentinel). Used to place priority messages ahead of everything else.
func (mb *mailbox) pushFront(item *mailboxItem) {
	mb.insertAfter(mb.sentinel, item)
}

// pushBack appends item as the new tail of the mailbox (immediately before
// the sentinel). Used for normal-priority arrivals.
func (mb *mailbox) pushBack(item *mailboxItem) {
	mb.insertBefore(mb.sentinel, item)
}

// remove unlinks item from the list. item must not be the sentinel.
func (mb *mailbox) remove(item *mailboxItem) {
	item.prev.next = item.next
	item.next.prev = item.prev
	item.next, item.prev = nil, nil
}

// findFirst scans from sentinel.next, stopping at the sentinel, and returns
// the first item for which pred holds, or nil if none match.
func (mb *mailbox) findFirst(pred func(*envelope) bool) *mailboxItem {
	for it := mb.sentinel.next; it != mb.sentinel; it = it.next {
		if pred(it.env) {
			return it
		}
	}
	return nil
}
