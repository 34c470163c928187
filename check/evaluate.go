package check

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/kotatut/scaffolder/tree"
	"github.com/kotatut/scaffolder/value"
)

// Evaluate applies op to a resolved value. The result is negated when
// reverse is set, except for Any (which cannot be reversed) and MissingKey
// (a resolved value is never missing, so the result is reverse itself).
func Evaluate(resolved value.Value, op Operator, cmp value.Value, reverse bool) (bool, error) {
	switch op {
	case Any:
		if reverse {
			return false, fmt.Errorf("%w: %s cannot be reversed", ErrInvalidCheck, Any)
		}
		return true, nil
	case MissingKey:
		return reverse, nil
	}

	matched, err := evaluate(resolved, op, cmp)
	if err != nil {
		return false, err
	}
	return matched != reverse, nil
}

func evaluate(v value.Value, op Operator, cmp value.Value) (bool, error) {
	switch op {
	case Equals:
		return v.Equal(cmp), nil
	case DifferentThan:
		return !v.Equal(cmp), nil
	case LessThan, LessEqualThan, GreaterThan, GreaterEqualThan:
		c, err := v.Compare(cmp)
		if err != nil {
			return false, err
		}
		switch op {
		case LessThan:
			return c < 0, nil
		case LessEqualThan:
			return c <= 0, nil
		case GreaterThan:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case Contains:
		return v.Contains(cmp)
	case StartsWith:
		return v.HasPrefix(cmp)
	case EndsWith:
		return v.HasSuffix(cmp)
	case Empty:
		return v.IsEmpty(), nil
	case Regex:
		content, ok := v.AsString()
		if !ok {
			return false, &value.TypeError{Op: Regex.String(), Left: v.Kind(), Right: cmp.Kind()}
		}
		pattern, ok := cmp.AsString()
		if !ok {
			return false, &value.TypeError{Op: Regex.String(), Left: v.Kind(), Right: cmp.Kind()}
		}
		re, err := compilePattern(pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(content)
	default:
		return false, fmt.Errorf("%w: unknown operator %s", ErrInvalidCheck, op)
	}
}

// EvaluateKey resolves p.Key inside t and evaluates the condition against
// the value found there. A missing key is an error for every operator except
// MissingKey, for which it is the expected outcome.
func EvaluateKey(t map[string]any, p Params) (bool, error) {
	raw, err := tree.Resolve(t, p.Key)
	if err != nil {
		if p.Operator == MissingKey && errors.Is(err, tree.ErrMissingKey) {
			return !p.Reverse, nil
		}
		return false, err
	}
	if p.Operator == MissingKey {
		return p.Reverse, nil
	}

	resolved, err := value.Of(raw)
	if err != nil {
		return false, fmt.Errorf("key '%s': %w", p.Key, err)
	}
	return Evaluate(resolved, p.Operator, p.Value, p.Reverse)
}

// EvaluateString applies a string condition to content.
func EvaluateString(content string, p Params) (bool, error) {
	return Evaluate(value.String(content), p.Operator, p.Value, p.Reverse)
}

// compilePattern accepts either a bare pattern or a delimited one such as
// "/^app_/i" where the trailing letters are flags.
func compilePattern(pattern string) (*regexp2.Regexp, error) {
	body, opts := splitDelimited(pattern)
	re, err := regexp2.Compile(body, opts)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// delimiters are the characters accepted around a delimited pattern.
const delimiters = "/#~%@!|+"

func splitDelimited(pattern string) (string, regexp2.RegexOptions) {
	if len(pattern) < 2 {
		return pattern, regexp2.None
	}

	open := pattern[0]
	if strings.IndexByte(delimiters, open) < 0 {
		return pattern, regexp2.None
	}

	end := strings.LastIndexByte(pattern, open)
	if end <= 0 {
		return pattern, regexp2.None
	}

	opts := regexp2.None
	for _, flag := range pattern[end+1:] {
		switch flag {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		case 'u':
		default:
			// Not a flag list, so the pattern was not delimited.
			return pattern, regexp2.None
		}
	}
	return pattern[1:end], opts
}
