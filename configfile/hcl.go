package configfile

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// decodeHCL reads attributes as tree values and blocks as nested maps keyed
// by block type and then by each label, so `resource "a" "b" {}` lands at
// resource.a.b. Repeated blocks at the same path become a list. Attribute
// expressions must be literals: variables and function calls are rejected.
func decodeHCL(data []byte, filename string) (any, error) {
	file, diags := hclsyntax.ParseConfig(data, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL parsing failed: %s", diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("unexpected HCL body type %T", file.Body)
	}
	return bodyToTree(body)
}

func bodyToTree(body *hclsyntax.Body) (map[string]any, error) {
	out := make(map[string]any, len(body.Attributes)+len(body.Blocks))

	for name, attr := range body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("attribute '%s' is not a literal value: %s", name, diags.Error())
		}
		v, err := fromCty(val)
		if err != nil {
			return nil, fmt.Errorf("attribute '%s': %w", name, err)
		}
		out[name] = v
	}

	for _, block := range body.Blocks {
		child, err := bodyToTree(block.Body)
		if err != nil {
			return nil, fmt.Errorf("block %s %v: %w", block.Type, block.Labels, err)
		}
		path := append([]string{block.Type}, block.Labels...)
		if err := insertBlock(out, path, child); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func insertBlock(t map[string]any, path []string, child map[string]any) error {
	head := path[0]
	existing, found := t[head]

	if len(path) == 1 {
		switch e := existing.(type) {
		case nil:
			if found {
				return fmt.Errorf("block %s conflicts with a null attribute", head)
			}
			t[head] = child
		case map[string]any:
			t[head] = []any{e, child}
		case []any:
			t[head] = append(e, child)
		default:
			return fmt.Errorf("block %s conflicts with attribute of the same name", head)
		}
		return nil
	}

	if !found {
		next := map[string]any{}
		t[head] = next
		return insertBlock(next, path[1:], child)
	}
	next, ok := existing.(map[string]any)
	if !ok {
		return fmt.Errorf("block label %s conflicts with an existing value", head)
	}
	return insertBlock(next, path[1:], child)
}

func fromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("%w: value is not known", ErrUnsupportedValue)
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, e := it.Element()
			ev, err := fromCty(e)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := map[string]any{}
		for it := v.ElementIterator(); it.Next(); {
			k, e := it.Element()
			ev, err := fromCty(e)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = ev
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: HCL type %s", ErrUnsupportedValue, ty.FriendlyName())
	}
}

func toCty(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, len(x))
		for i, e := range x {
			cv, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			vals[i] = cv
		}
		return cty.TupleVal(vals), nil
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		vals := make(map[string]cty.Value, len(x))
		for k, e := range x {
			cv, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			vals[k] = cv
		}
		return cty.ObjectVal(vals), nil
	default:
		return cty.NilVal, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// encodeHCL writes scalars and lists as attributes and maps as unlabeled
// blocks, attributes first, both in key order.
func encodeHCL(t map[string]any) ([]byte, error) {
	file := hclwrite.NewEmptyFile()
	if err := writeBody(file.Body(), t); err != nil {
		return nil, err
	}
	return hclwrite.Format(file.Bytes()), nil
}

func writeBody(body *hclwrite.Body, t map[string]any) error {
	keys := sortedKeys(t)

	for _, k := range keys {
		if _, ok := t[k].(map[string]any); ok {
			continue
		}
		if !hclsyntax.ValidIdentifier(k) {
			return fmt.Errorf("%w: '%s' is not a valid HCL attribute name", ErrUnsupportedValue, k)
		}
		cv, err := toCty(t[k])
		if err != nil {
			return fmt.Errorf("attribute '%s': %w", k, err)
		}
		body.SetAttributeValue(k, cv)
	}

	for _, k := range keys {
		child, ok := t[k].(map[string]any)
		if !ok {
			continue
		}
		if !hclsyntax.ValidIdentifier(k) {
			return fmt.Errorf("%w: '%s' is not a valid HCL block type", ErrUnsupportedValue, k)
		}
		block := body.AppendNewBlock(k, nil)
		if err := writeBody(block.Body(), child); err != nil {
			return fmt.Errorf("block %s: %w", k, err)
		}
	}
	return nil
}
