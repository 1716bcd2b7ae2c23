package replica

import (
	"fmt"
	"strings"
)

// CyclePolicy selects how CloneWithOpts treats a node reached again
// through its own descendants.
type CyclePolicy uint8

const (
	// CycleRecurse does not track nodes, exactly like Clone.
	CycleRecurse CyclePolicy = iota
	// CycleError fails with ErrCycle when a node is its own ancestor.
	CycleError
	// CycleShare maps every input node to a single clone, so cycles and
	// shared nodes are reproduced in the output.
	CycleShare
)

// String returns the policy name as accepted by ParseCyclePolicy.
func (p CyclePolicy) String() string {
	switch p {
	case CycleRecurse:
		return "recurse"
	case CycleError:
		return "error"
	case CycleShare:
		return "share"
	default:
		return "unknown"
	}
}

// ParseCyclePolicy parses a policy name.
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "recurse":
		return CycleRecurse, nil
	case "error":
		return CycleError, nil
	case "share":
		return CycleShare, nil
	default:
		return CycleRecurse, fmt.Errorf("replica: unknown cycle policy %q", s)
	}
}

// CloneOpts configures CloneWithOpts.
type CloneOpts struct {
	// MaxDepth limits container nesting. The root list or map sits at
	// depth 1. Zero means unlimited.
	MaxDepth int

	// Cycles selects the cycle policy.
	Cycles CyclePolicy
}

// DefaultCloneOpts returns options equivalent to Clone.
func DefaultCloneOpts() CloneOpts {
	return CloneOpts{MaxDepth: 0, Cycles: CycleRecurse}
}

// CloneWithOpts returns a deep copy of v, failing with a *PathError
// wrapping ErrMaxDepth or ErrCycle when opts forbid the input's shape.
func CloneWithOpts(v *Value, opts CloneOpts) (*Value, error) {
	c := &cloner{opts: opts}
	switch opts.Cycles {
	case CycleError:
		c.onPath = make(map[*Value]struct{})
	case CycleShare:
		c.memo = make(map[*Value]*Value)
	}
	return c.clone(v, rootPath, 1)
}

type cloner struct {
	opts   CloneOpts
	onPath map[*Value]struct{}
	memo   map[*Value]*Value
}

func (c *cloner) clone(v *Value, path string, depth int) (*Value, error) {
	if v.IsPrimitive() {
		return v, nil
	}
	if cp, ok := c.memo[v]; ok {
		return cp, nil
	}

	if v.kind == KindTime {
		cp := Time(v.timeVal)
		c.remember(v, cp)
		return cp, nil
	}

	if c.opts.MaxDepth > 0 && depth > c.opts.MaxDepth {
		return nil, &PathError{Path: path, Err: ErrMaxDepth}
	}
	if c.onPath != nil {
		if _, ok := c.onPath[v]; ok {
			return nil, &PathError{Path: path, Err: ErrCycle}
		}
		c.onPath[v] = struct{}{}
		defer delete(c.onPath, v)
	}

	if v.kind == KindList {
		// Registered before the children so a cycle resolves to this node.
		cp := &Value{kind: KindList, listVal: make([]*Value, len(v.listVal))}
		c.remember(v, cp)
		for i, elem := range v.listVal {
			item, err := c.clone(elem, indexPath(path, i), depth+1)
			if err != nil {
				return nil, err
			}
			cp.listVal[i] = item
		}
		return cp, nil
	}

	cp := &Value{kind: KindMap, mapVal: make([]Entry, len(v.mapVal))}
	c.remember(v, cp)
	for i, e := range v.mapVal {
		val, err := c.clone(e.Value, keyPath(path, e.Key), depth+1)
		if err != nil {
			return nil, err
		}
		cp.mapVal[i] = Entry{Key: e.Key, Value: val}
	}
	return cp, nil
}

func (c *cloner) remember(in, out *Value) {
	if c.memo != nil {
		c.memo[in] = out
	}
}
