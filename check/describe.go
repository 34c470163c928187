package check

import "fmt"

// DescribeKey renders an array condition, for example
// "Check if key 'key1' is set and contains value 'value1'".
func DescribeKey(p Params) string {
	switch p.Operator {
	case Any:
		return fmt.Sprintf("Check if key '%s' is set", p.Key)
	case MissingKey:
		if p.Reverse {
			return fmt.Sprintf("Check if key '%s' is not missing", p.Key)
		}
		return fmt.Sprintf("Check if key '%s' is missing", p.Key)
	}
	return fmt.Sprintf("Check if key '%s' is set and %s", p.Key, phrase(p))
}

// DescribeSubject renders a string condition about subject, for example
// "Check if content of file 'a.txt' starts with value '<?php'".
func DescribeSubject(subject string, p Params) string {
	return fmt.Sprintf("Check if %s %s", subject, phrase(p))
}

func phrase(p Params) string {
	v := p.Value.String()
	switch p.Operator {
	case Equals:
		return pick(p.Reverse, "equals value '%s'", "does not equal value '%s'", v)
	case DifferentThan:
		return pick(p.Reverse, "is different than value '%s'", "is not different than value '%s'", v)
	case LessThan:
		return pick(p.Reverse, "is less than value '%s'", "is not less than value '%s'", v)
	case LessEqualThan:
		return pick(p.Reverse, "is less than or equal to value '%s'", "is not less than or equal to value '%s'", v)
	case GreaterThan:
		return pick(p.Reverse, "is greater than value '%s'", "is not greater than value '%s'", v)
	case GreaterEqualThan:
		return pick(p.Reverse, "is greater than or equal to value '%s'", "is not greater than or equal to value '%s'", v)
	case Contains:
		return pick(p.Reverse, "contains value '%s'", "does not contain value '%s'", v)
	case StartsWith:
		return pick(p.Reverse, "starts with value '%s'", "does not start with value '%s'", v)
	case EndsWith:
		return pick(p.Reverse, "ends with value '%s'", "does not end with value '%s'", v)
	case Empty:
		if p.Reverse {
			return "is not empty"
		}
		return "is empty"
	case Regex:
		return pick(p.Reverse, "matches pattern '%s'", "does not match pattern '%s'", v)
	default:
		return fmt.Sprintf("satisfies %s", p.Operator)
	}
}

func pick(reverse bool, positive, negative, v string) string {
	if reverse {
		return fmt.Sprintf(negative, v)
	}
	return fmt.Sprintf(positive, v)
}
