package replica

// Clone returns a deep copy of v.
//
// Primitives (including null and undefined) are immutable and are returned
// as-is. Dates are reallocated with the same instant. Lists and maps are
// rebuilt element by element, keeping order. The result shares no mutable
// node with v.
//
// Clone does not track visited nodes: a cyclic value recurses until the
// goroutine stack is exhausted. Use CloneWithOpts to guard against cycles.
func Clone(v *Value) *Value {
	if v.IsPrimitive() {
		return v
	}

	switch v.kind {
	case KindTime:
		return Time(v.timeVal)

	case KindList:
		items := make([]*Value, len(v.listVal))
		for i, elem := range v.listVal {
			items[i] = Clone(elem)
		}
		return List(items...)

	default:
		entries := make([]Entry, len(v.mapVal))
		for i, e := range v.mapVal {
			entries[i] = Entry{Key: e.Key, Value: Clone(e.Value)}
		}
		return &Value{kind: KindMap, mapVal: entries}
	}
}
