// Package replica deep-copies JSON-like values.
//
// # Data Model
//
// A Value is a tagged union:
//
//	Primitives: null, undefined, bool, int, float, str (immutable)
//	Dates:      time (mutable through SetTime)
//	Sequences:  list (ordered)
//	Records:    map (string keys, insertion order kept)
//
// # Cloning
//
// Clone is the core operation: primitives come back as the same pointer,
// dates are reallocated with the same instant, lists and maps are rebuilt
// recursively. The clone and the original share no mutable node, so
// mutating one never shows through the other.
//
//	src, _ := replica.FromJSON([]byte(`{"a":1,"b":[1,2,3]}`))
//	dst := replica.Clone(src)
//	dst.Get("b").Append(replica.Int(4))
//	// src.b is still [1 2 3]
//
// Clone does not detect cycles; a value that contains itself exhausts the
// stack. CloneWithOpts adds an optional depth limit and either rejects
// cycles (CycleError) or reproduces them (CycleShare).
//
// # Bridges
//
// FromJSON/ToJSON convert to and from JSON, keeping key order; with
// BridgeOpts.Extended dates travel as {"$date": ...} markers.
// FromAny/ToAny convert to and from plain Go values, and CloneAny clones
// plain Go trees (map[string]any, []any, time.Time) directly. Values that
// are not JSON-like, such as structs or typed maps, are copied as generic
// records of their visible keys.
//
// # Equality
//
// Equal is structural deep equality, SharedNode finds aliasing between two
// graphs, and Canonical/Fingerprint give a deterministic text and hash.
package replica
