package requirements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func constraint(op Operator, version string) Constraint {
	return Constraint{Operator: op, Version: MustVersion(version)}
}

func TestConstraint_Satisfied(t *testing.T) {
	tests := []struct {
		constraint Constraint
		version    string
		expected   bool
	}{
		{constraint(OpEqual, "1.0.0"), "1.0.0", true},
		{constraint(OpEqual, "1.0"), "1.0.0", true}, // Segment padding
		{constraint(OpEqual, "1.0.0"), "1.0.1", false},
		{constraint(OpNotEqual, "1.0.0"), "1.0.1", true},
		{constraint(OpNotEqual, "1.0.0"), "1.0", false},
		{constraint(OpGreaterEqual, "1.0.0"), "1.0.0", true},
		{constraint(OpGreaterEqual, "1.0.0"), "0.9", false},
		{constraint(OpLessEqual, "2.0"), "2.0.0", true},
		{constraint(OpLessEqual, "2.0"), "2.0.1", false},
		{constraint(OpGreater, "1.0"), "1.0", false},
		{constraint(OpGreater, "1.0"), "1.0.1", true},
		{constraint(OpLess, "1.0"), "0.9.9", true},
		{constraint(OpLess, "1.0"), "1.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.constraint.String()+" with "+tt.version, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.constraint.Satisfied(MustVersion(tt.version)))
		})
	}
}

func TestConstraintSet_Match(t *testing.T) {
	cs := ConstraintSet{
		constraint(OpGreaterEqual, "1.0"),
		constraint(OpLess, "2.0"),
		constraint(OpNotEqual, "1.5"),
	}

	assert.True(t, cs.Match(MustVersion("1.0.0")))
	assert.True(t, cs.Match(MustVersion("1.9.9")))
	assert.False(t, cs.Match(MustVersion("0.9")), "below lower bound")
	assert.False(t, cs.Match(MustVersion("2.0")), "at strict upper bound")
	assert.False(t, cs.Match(MustVersion("1.5.0")), "excluded version")
}

func TestConstraintSet_MatchEmpty(t *testing.T) {
	var cs ConstraintSet
	assert.True(t, cs.Match(MustVersion("0.0.1")), "empty set matches anything")
}

func TestConstraintSet_Satisfiable(t *testing.T) {
	tests := []struct {
		name     string
		set      ConstraintSet
		expected bool
	}{
		{
			"single pin",
			ConstraintSet{constraint(OpEqual, "1.0.0")},
			true,
		},
		{
			"two identical pins",
			ConstraintSet{constraint(OpEqual, "1.0.0"), constraint(OpEqual, "1.0")},
			true,
		},
		{
			"two different pins",
			ConstraintSet{constraint(OpEqual, "1.0.0"), constraint(OpEqual, "2.0.0")},
			false,
		},
		{
			"pin with matching exclusion",
			ConstraintSet{constraint(OpEqual, "1.0.0"), constraint(OpNotEqual, "2.0.0")},
			true,
		},
		{
			"pin excluded",
			ConstraintSet{constraint(OpEqual, "1.0.0"), constraint(OpNotEqual, "1.0.0")},
			false,
		},
		{
			"pin outside bounds",
			ConstraintSet{constraint(OpEqual, "3.0"), constraint(OpLess, "2.0")},
			false,
		},
		{
			"disjoint bounds",
			ConstraintSet{constraint(OpLess, "1.0.0"), constraint(OpGreaterEqual, "1.0.0")},
			false,
		},
		{
			"inverted bounds",
			ConstraintSet{constraint(OpGreaterEqual, "2.0"), constraint(OpLess, "1.0")},
			false,
		},
		{
			"touching inclusive bounds",
			ConstraintSet{constraint(OpGreaterEqual, "1.0"), constraint(OpLessEqual, "1.0.0")},
			true,
		},
		{
			"touching bounds with exclusion",
			ConstraintSet{
				constraint(OpGreaterEqual, "1.0"),
				constraint(OpLessEqual, "1.0"),
				constraint(OpNotEqual, "1.0.0"),
			},
			false,
		},
		{
			"touching half-open bounds",
			ConstraintSet{constraint(OpGreater, "1.0"), constraint(OpLessEqual, "1.0")},
			false,
		},
		{
			"narrow open interval",
			ConstraintSet{constraint(OpGreater, "1.0"), constraint(OpLess, "1.0.1")},
			true, // Versions like 1.0.0.1 fit between
		},
		{
			"compatible range",
			ConstraintSet{constraint(OpGreaterEqual, "1.0"), constraint(OpLess, "2.0"), constraint(OpNotEqual, "1.5")},
			true,
		},
		{
			"lower bound only",
			ConstraintSet{constraint(OpGreaterEqual, "1.0")},
			true,
		},
		{
			"exclusions only",
			ConstraintSet{constraint(OpNotEqual, "1.0"), constraint(OpNotEqual, "2.0")},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.set.Satisfiable())
		})
	}
}

func TestConstraintSet_String(t *testing.T) {
	cs := ConstraintSet{
		constraint(OpGreaterEqual, "1.0"),
		constraint(OpNotEqual, "1.5"),
	}
	assert.Equal(t, ">=1.0,!=1.5", cs.String())
}
