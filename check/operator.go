// Package check evaluates comparison conditions against configuration values.
//
// A condition is a (key, operator, comparison value, reverse) tuple. The
// array variant resolves the key inside a configuration tree first; the
// string variant applies the operator to a piece of text directly.
package check

import (
	"fmt"
	"strings"
)

// Operator is the comparison applied by a condition.
type Operator int

const (
	Equals Operator = iota + 1
	DifferentThan
	LessThan
	LessEqualThan
	GreaterThan
	GreaterEqualThan
	Contains
	StartsWith
	EndsWith
	Empty
	Regex
	Any
	MissingKey
)

// operatorNames holds the canonical configuration name of every operator.
var operatorNames = map[Operator]string{
	Equals:           "equal_to",
	DifferentThan:    "different_than",
	LessThan:         "less_than",
	LessEqualThan:    "less_equal_than",
	GreaterThan:      "greater_than",
	GreaterEqualThan: "greater_equal_than",
	Contains:         "contains",
	StartsWith:       "starts_with",
	EndsWith:         "ends_with",
	Empty:            "is_empty",
	Regex:            "regex",
	Any:              "check_any",
	MissingKey:       "check_missing_key",
}

// operatorAliases maps every accepted spelling to its operator. The check_*
// names come from array conditions, the others from string conditions.
var operatorAliases = map[string]Operator{
	"equal_to":           Equals,
	"equals":             Equals,
	"check_equals":       Equals,
	"different_than":     DifferentThan,
	"not_equal_to":       DifferentThan,
	"less_than":          LessThan,
	"less_equal_than":    LessEqualThan,
	"greater_than":       GreaterThan,
	"greater_equal_than": GreaterEqualThan,
	"contains":           Contains,
	"check_contains":     Contains,
	"starts_with":        StartsWith,
	"ends_with":          EndsWith,
	"is_empty":           Empty,
	"check_empty":        Empty,
	"regex":              Regex,
	"check_any":          Any,
	"check_missing_key":  MissingKey,
}

// Variant selects the operator set and validation rules of a condition.
type Variant int

const (
	// ArrayVariant conditions address a key inside a configuration tree.
	ArrayVariant Variant = iota
	// StringVariant conditions test text such as file content.
	StringVariant
)

func (v Variant) String() string {
	if v == StringVariant {
		return "string"
	}
	return "array"
}

var variantOperators = map[Variant]map[Operator]bool{
	ArrayVariant: {
		Equals: true, DifferentThan: true, LessThan: true, LessEqualThan: true,
		GreaterThan: true, GreaterEqualThan: true, Contains: true, StartsWith: true,
		EndsWith: true, Empty: true, Regex: true, Any: true, MissingKey: true,
	},
	StringVariant: {
		Equals: true, DifferentThan: true, LessThan: true, LessEqualThan: true,
		GreaterThan: true, GreaterEqualThan: true, Contains: true, StartsWith: true,
		EndsWith: true, Empty: true, Regex: true,
	},
}

// emptyComparisonAllowed lists the operators that may run without a
// comparison value, per variant.
var emptyComparisonAllowed = map[Variant]map[Operator]bool{
	ArrayVariant:  {Any: true, Equals: true, Empty: true, MissingKey: true},
	StringVariant: {Empty: true},
}

// Operators lists every operator in declaration order.
func Operators() []Operator {
	ops := make([]Operator, 0, len(operatorNames))
	for op := Equals; op <= MissingKey; op++ {
		ops = append(ops, op)
	}
	return ops
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operator(%d)", int(o))
}

// Valid reports whether o is a declared operator.
func (o Operator) Valid() bool {
	_, ok := operatorNames[o]
	return ok
}

// Supports reports whether the variant accepts o.
func (v Variant) Supports(o Operator) bool {
	return variantOperators[v][o]
}

// ParseOperator maps a configuration name to an Operator.
func ParseOperator(s string) (Operator, error) {
	if op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrInvalidCheck, s)
}
