package replica

import "math"

// ============================================================
// Structural Equality
// ============================================================

// Bounds of int64 as float64. Both are exact powers of two.
const (
	minIntFloat = -(1 << 63)
	maxIntFloat = 1 << 63
)

// Equal reports whether a and b are deep-equal.
//
// Ints and floats compare numerically, NaN equals NaN, dates compare by
// instant, lists compare in order and maps compare by key set regardless of
// entry order. A nil value equals null. Equal does not guard against cycles.
func Equal(a, b *Value) bool {
	if a == b {
		return true
	}
	if a.IsNumeric() && b.IsNumeric() {
		return numberEqual(a, b)
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch a.Kind() {
	case KindNull, KindUndefined:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindStr:
		return a.strVal == b.strVal
	case KindTime:
		return a.timeVal.Equal(b.timeVal)
	case KindList:
		if len(a.listVal) != len(b.listVal) {
			return false
		}
		for i := range a.listVal {
			if !Equal(a.listVal[i], b.listVal[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.mapVal) != len(b.mapVal) {
			return false
		}
		for _, e := range a.mapVal {
			i := b.find(e.Key)
			if i < 0 || !Equal(e.Value, b.mapVal[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ============================================================
// Aliasing
// ============================================================

// SharedNode looks for a mutable node (date, list or map) reachable from
// both a and b. It returns the node's path within b. Both graphs may be
// cyclic.
func SharedNode(a, b *Value) (string, bool) {
	nodes := make(map[*Value]struct{})
	collectMutable(a, nodes)
	if len(nodes) == 0 {
		return "", false
	}
	return findMutable(b, rootPath, nodes, make(map[*Value]struct{}))
}

func collectMutable(v *Value, nodes map[*Value]struct{}) {
	if v.IsPrimitive() {
		return
	}
	if _, seen := nodes[v]; seen {
		return
	}
	nodes[v] = struct{}{}
	for _, elem := range v.listVal {
		collectMutable(elem, nodes)
	}
	for _, e := range v.mapVal {
		collectMutable(e.Value, nodes)
	}
}

func findMutable(v *Value, path string, nodes, seen map[*Value]struct{}) (string, bool) {
	if v.IsPrimitive() {
		return "", false
	}
	if _, ok := nodes[v]; ok {
		return path, true
	}
	if _, ok := seen[v]; ok {
		return "", false
	}
	seen[v] = struct{}{}
	for i, elem := range v.listVal {
		if p, ok := findMutable(elem, indexPath(path, i), nodes, seen); ok {
			return p, true
		}
	}
	for _, e := range v.mapVal {
		if p, ok := findMutable(e.Value, keyPath(path, e.Key), nodes, seen); ok {
			return p, true
		}
	}
	return "", false
}

// numberEqual compares two numeric values exactly. An int equals a float
// only when the float is integral and the same integer.
func numberEqual(a, b *Value) bool {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return a.intVal == b.intVal
	case a.kind == KindFloat && b.kind == KindFloat:
		return a.floatVal == b.floatVal || isNaN(a) && isNaN(b)
	case a.kind == KindFloat:
		a, b = b, a
	}
	f := b.floatVal
	if f != math.Trunc(f) || f < minIntFloat || f >= maxIntFloat {
		return false
	}
	return int64(f) == a.intVal
}
