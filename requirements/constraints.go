package requirements

import "strings"

// Constraint is one operator/version pair applied to a package.
type Constraint struct {
	Operator Operator
	Version  Version
}

// Satisfied reports whether version v passes this constraint.
func (c Constraint) Satisfied(v Version) bool {
	cmp := v.Compare(c.Version)
	switch c.Operator {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLessEqual:
		return cmp <= 0
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	}
	return false
}

// String renders the constraint as written in a manifest, e.g. ">=1.0.0".
func (c Constraint) String() string {
	return string(c.Operator) + c.Version.String()
}

// ConstraintSet is the merged set of constraints declared for one package,
// in declaration order.
type ConstraintSet []Constraint

// Match reports whether version v satisfies every constraint in the set.
// An empty set matches any version.
func (cs ConstraintSet) Match(v Version) bool {
	for _, c := range cs {
		if !c.Satisfied(v) {
			return false
		}
	}
	return true
}

// String renders the set as a comma-separated constraint list.
func (cs ConstraintSet) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// Satisfiable reports whether any version at all could pass the whole set.
// Since versions extend to arbitrarily many segments, a strict interval
// with room between its bounds always contains one, so only pins and
// closed-up intervals can conflict.
func (cs ConstraintSet) Satisfiable() bool {
	// A pinned version must pass everything else
	for _, c := range cs {
		if c.Operator == OpEqual {
			return cs.Match(c.Version)
		}
	}

	var lower, upper *Constraint
	for i := range cs {
		c := cs[i]
		switch c.Operator {
		case OpGreater, OpGreaterEqual:
			if lower == nil || c.Version.Compare(lower.Version) > 0 ||
				(c.Version.Equal(lower.Version) && c.Operator == OpGreater) {
				lower = &cs[i]
			}
		case OpLess, OpLessEqual:
			if upper == nil || c.Version.Compare(upper.Version) < 0 ||
				(c.Version.Equal(upper.Version) && c.Operator == OpLess) {
				upper = &cs[i]
			}
		}
	}

	if lower == nil || upper == nil {
		return true
	}

	cmp := lower.Version.Compare(upper.Version)
	if cmp > 0 {
		return false
	}
	if cmp < 0 {
		return true
	}

	// Bounds meet at a single version. It is a candidate only if both
	// bounds are inclusive and no exclusion names it.
	if lower.Operator == OpGreater || upper.Operator == OpLess {
		return false
	}
	return cs.Match(lower.Version)
}
