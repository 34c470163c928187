package value

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedType is returned by Of for Go types outside the variant.
	ErrUnsupportedType = errors.New("unsupported value type")

	// ErrIncomparable is matched by every *TypeError.
	ErrIncomparable = errors.New("incomparable values")
)

// TypeError reports an operator applied to operand kinds it does not support.
type TypeError struct {
	Op    string
	Left  Kind
	Right Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("cannot apply %s to %s and %s", e.Op, e.Left, e.Right)
}

func (e *TypeError) Unwrap() error {
	return ErrIncomparable
}

// Equal is strict equality: kinds must match and values must be equal,
// recursively for lists and maps.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, item := range v.m {
			other, ok := o.m[k]
			if !ok || !item.Equal(other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two numbers or two strings, returning -1, 0 or 1.
func (v Value) Compare(o Value) (int, error) {
	switch {
	case v.kind == KindNumber && o.kind == KindNumber:
		switch {
		case v.n < o.n:
			return -1, nil
		case v.n > o.n:
			return 1, nil
		default:
			return 0, nil
		}
	case v.kind == KindString && o.kind == KindString:
		return strings.Compare(v.s, o.s), nil
	default:
		return 0, &TypeError{Op: "ordering", Left: v.kind, Right: o.kind}
	}
}

// Contains is substring search when both operands are strings and strict
// membership when v is a list (or a map, over its values).
func (v Value) Contains(o Value) (bool, error) {
	switch v.kind {
	case KindString:
		s, ok := o.AsString()
		if !ok {
			return false, &TypeError{Op: "contains", Left: v.kind, Right: o.kind}
		}
		return strings.Contains(v.s, s), nil
	case KindList:
		for _, item := range v.list {
			if item.Equal(o) {
				return true, nil
			}
		}
		return false, nil
	case KindMap:
		for _, item := range v.m {
			if item.Equal(o) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, &TypeError{Op: "contains", Left: v.kind, Right: o.kind}
	}
}

// HasPrefix requires two strings.
func (v Value) HasPrefix(o Value) (bool, error) {
	s, p, err := bothStrings("starts_with", v, o)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(s, p), nil
}

// HasSuffix requires two strings.
func (v Value) HasSuffix(o Value) (bool, error) {
	s, p, err := bothStrings("ends_with", v, o)
	if err != nil {
		return false, err
	}
	return strings.HasSuffix(s, p), nil
}

func bothStrings(op string, v, o Value) (string, string, error) {
	if v.kind != KindString || o.kind != KindString {
		return "", "", &TypeError{Op: op, Left: v.kind, Right: o.kind}
	}
	return v.s, o.s, nil
}
