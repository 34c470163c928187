package check

import (
	"errors"
	"fmt"

	"github.com/kotatut/scaffolder/tree"
	"github.com/kotatut/scaffolder/value"
)

// ErrInvalidCheck is matched by every condition misconfiguration.
var ErrInvalidCheck = errors.New("invalid check")

// Params is one configured condition.
type Params struct {
	// Key is the dotted key path for array conditions. String conditions
	// leave it empty and name their subject elsewhere.
	Key      string
	Operator Operator
	Value    value.Value
	Reverse  bool
}

// Validate checks p against the rules of the variant. It never looks at the
// data the condition will later be evaluated against.
func (p Params) Validate(variant Variant) error {
	if variant == ArrayVariant {
		if p.Key == "" {
			return fmt.Errorf("%w: key cannot be empty", ErrInvalidCheck)
		}
		if err := tree.ValidateKey(p.Key); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCheck, err)
		}
	}
	if !p.Operator.Valid() {
		return fmt.Errorf("%w: unknown operator %s", ErrInvalidCheck, p.Operator)
	}
	if !variant.Supports(p.Operator) {
		return fmt.Errorf("%w: operator %s is not supported by %s conditions", ErrInvalidCheck, p.Operator, variant)
	}
	if p.Operator == Any && p.Reverse {
		return fmt.Errorf("%w: %s cannot be reversed, use %s instead", ErrInvalidCheck, Any, Equals)
	}
	if p.Value.IsEmpty() && !emptyComparisonAllowed[variant][p.Operator] {
		return fmt.Errorf("%w: operator %s requires a comparison value", ErrInvalidCheck, p.Operator)
	}
	if p.Operator == Regex {
		pattern, ok := p.Value.AsString()
		if !ok {
			return fmt.Errorf("%w: regex pattern must be a string, got %s", ErrInvalidCheck, p.Value.Kind())
		}
		if _, err := compilePattern(pattern); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCheck, err)
		}
	}
	return nil
}
