package connection

// updateQueue is a deduplicated set of pending update keys with
// drain-and-clear semantics. Insertion order is irrelevant; a burst of
// notifications for the same key collapses to a single entry.
//
// Not safe for concurrent use; the owning Client serializes access under
// its lock.
type updateQueue struct {
	keys map[string]struct{}
}

func newUpdateQueue() *updateQueue {
	return &updateQueue{keys: make(map[string]struct{})}
}

// Add inserts a key, collapsing duplicates.
func (q *updateQueue) Add(key string) {
	q.keys[key] = struct{}{}
}

// Len returns the number of distinct pending keys.
func (q *updateQueue) Len() int {
	return len(q.keys)
}

// Drain returns every distinct pending key and clears the queue. The order
// of the returned slice is unspecified.
func (q *updateQueue) Drain() []string {
	if len(q.keys) == 0 {
		return nil
	}
	out := make([]string, 0, len(q.keys))
	for k := range q.keys {
		out = append(out, k)
	}
	q.keys = make(map[string]struct{})

	return out
}
