package tree

import (
	"fmt"
	"maps"
	"strings"
)

// Operation is the kind of change Apply makes at a key path.
type Operation int

const (
	// Add sets the value, creating intermediate maps as needed.
	Add Operation = iota + 1
	// ChangeValue overwrites the value, creating intermediate maps as needed.
	ChangeValue
	// RemoveKey deletes the key. Removing an absent key is not an error.
	RemoveKey
)

var operationNames = map[Operation]string{
	Add:         "add",
	ChangeValue: "change_value",
	RemoveKey:   "remove_key",
}

var operationAliases = map[string]Operation{
	"add":          Add,
	"change_value": ChangeValue,
	"change-value": ChangeValue,
	"set":          ChangeValue,
	"remove_key":   RemoveKey,
	"remove-key":   RemoveKey,
	"remove":       RemoveKey,
}

// Operations lists every valid Operation.
func Operations() []Operation {
	return []Operation{Add, ChangeValue, RemoveKey}
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operation(%d)", int(o))
}

// Valid reports whether o is one of the declared operations.
func (o Operation) Valid() bool {
	_, ok := operationNames[o]
	return ok
}

// ParseOperation maps a configuration string to an Operation.
func ParseOperation(s string) (Operation, error) {
	if op, ok := operationAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}

// Validate checks a (key, operation) pair before anything is applied.
func Validate(key string, op Operation) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if !op.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	return nil
}

// Apply returns a copy of t with op applied at key.
//
// Every map along the path is copied before it is changed, so t and the maps
// it shares with the result are never modified. Add and ChangeValue create
// missing or non-map intermediate levels. RemoveKey along a path that does
// not exist leaves the tree unchanged.
func Apply(t map[string]any, key string, op Operation, value any) (map[string]any, error) {
	if err := Validate(key, op); err != nil {
		return nil, err
	}
	return apply(t, key, op, value), nil
}

func apply(t map[string]any, key string, op Operation, value any) map[string]any {
	out := make(map[string]any, len(t)+1)
	maps.Copy(out, t)

	head, rest, nested := strings.Cut(key, Separator)
	if !nested {
		switch op {
		case Add, ChangeValue:
			out[head] = value
		case RemoveKey:
			delete(out, head)
		}
		return out
	}

	child, ok := AsMap(out[head])
	if !ok {
		if op == RemoveKey {
			return out
		}
		child = map[string]any{}
	}
	out[head] = apply(child, rest, op, value)
	return out
}
