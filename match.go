package nodefilter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// lookup resolves a property path inside a node
func lookup(node map[string]any, path FieldPath) (any, bool) {
	var current any = map[string]any(node)
	for _, key := range path {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, current != nil
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Node:
		return t, true
	case ObjectValue:
		return t, true
	}
	return nil, false
}

// preparedCondition carries the compiled pattern of a regex condition so it
// is compiled once per query, not once per node
type preparedCondition struct {
	Condition
	re *regexp.Regexp
}

func prepareConditions(conditions []Condition) ([]preparedCondition, error) {
	prepared := make([]preparedCondition, len(conditions))
	for i, c := range conditions {
		prepared[i].Condition = c
		if c.Operator != OpRegex {
			continue
		}
		re, err := compileRegex(c.Value)
		if err != nil {
			return nil, err
		}
		prepared[i].re = re
	}
	return prepared, nil
}

// matchNode reports whether node satisfies every condition
func matchNode(node Node, conditions []preparedCondition) (bool, error) {
	for _, c := range conditions {
		ok, err := matchCondition(node, c)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchCondition(node Node, c preparedCondition) (bool, error) {
	value, present := lookup(node, c.Path)
	if c.Reference != nil && present {
		value = referenceIDs(value, c.Reference.IsList)
	}

	switch c.Operator {
	case OpEq:
		return present && equalValues(value, c.Value), nil
	case OpNe:
		return !present || !equalValues(value, c.Value), nil
	case OpIn:
		return present && containsValue(toList(c.Value), value), nil
	case OpNin:
		return !present || !containsValue(toList(c.Value), value), nil
	case OpRegex:
		if c.re == nil {
			return false, fmt.Errorf("regex on %s was not compiled", c.Path.Dotted())
		}
		s, ok := value.(string)
		return present && ok && c.re.MatchString(s), nil
	case OpLen:
		s, ok := value.(string)
		n, isNumber := toFloat(c.Value)
		return present && ok && isNumber && float64(utf8.RuneCountInString(s)) == n, nil
	case OpSize:
		list, ok := listValue(value)
		n, isNumber := toFloat(c.Value)
		return present && ok && isNumber && float64(len(list)) == n, nil
	case OpContains:
		list, _ := listValue(value)
		for _, want := range toList(c.Value) {
			if !containsValue(list, want) {
				return false, nil
			}
		}
		return present, nil
	case OpContainsAny:
		list, _ := listValue(value)
		for _, want := range toList(c.Value) {
			if containsValue(list, want) {
				return true, nil
			}
		}
		return false, nil
	case OpContainsNone:
		list, _ := listValue(value)
		for _, want := range toList(c.Value) {
			if containsValue(list, want) {
				return false, nil
			}
		}
		return true, nil
	case OpDteq:
		if !present {
			return false, nil
		}
		cmp, ok, err := compareOrdered(value, c.Value, true)
		return ok && cmp == 0, err
	case OpGt, OpGte, OpLt, OpLte:
		if !present {
			return false, nil
		}
		cmp, ok, err := compareOrdered(value, c.Value, c.Shape == ShapeDate)
		if err != nil || !ok {
			return false, err
		}
		switch c.Operator {
		case OpGt:
			return cmp > 0, nil
		case OpGte:
			return cmp >= 0, nil
		case OpLt:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case OpBetween:
		bounds := toList(c.Value)
		if len(bounds) != 2 {
			return false, fmt.Errorf("between expects 2 values, got %d", len(bounds))
		}
		if !present {
			return false, nil
		}
		date := c.Shape == ShapeDate
		low, ok, err := compareOrdered(value, bounds[0], date)
		if err != nil || !ok {
			return false, err
		}
		high, ok, err := compareOrdered(value, bounds[1], date)
		if err != nil || !ok {
			return false, err
		}
		return low >= 0 && high <= 0, nil
	}

	return false, fmt.Errorf("%w: %s", ErrUnsupportedOperator, c.Operator)
}

// referenceIDs reduces a reference property to the referenced id, or a list
// of ids. A reference is stored as the id itself or as an object with an id.
func referenceIDs(v any, isList bool) any {
	if isList {
		list, ok := listValue(v)
		if !ok {
			return v
		}
		ids := make([]any, len(list))
		for i, item := range list {
			ids[i] = referenceID(item)
		}
		return ids
	}
	return referenceID(v)
}

func referenceID(v any) any {
	if m, ok := asMap(v); ok {
		if id, ok := m["id"]; ok {
			return fmt.Sprint(id)
		}
		return v
	}
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return nil
	}
	return fmt.Sprint(v)
}

// compileRegex accepts a plain RE2 pattern or the /pattern/flags form with
// the flags i, m and s. The global flag g has no meaning for a match test
// and is ignored.
func compileRegex(v any) (*regexp.Regexp, error) {
	pattern, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("regex expects a string, got %T", v)
	}

	if body, flags, ok := splitRegexLiteral(pattern); ok {
		pattern = body
		if flags != "" {
			pattern = "(?" + flags + ")" + pattern
		}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return re, nil
}

func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := toTime(b)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

func containsValue(list []any, want any) bool {
	for _, item := range list {
		if equalValues(item, want) {
			return true
		}
	}
	return false
}

func listValue(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case ListValue:
		return t, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, true
}

// toList wraps scalars so operators accepting lists also accept one value
func toList(v any) []any {
	if list, ok := listValue(v); ok {
		return list
	}
	if v == nil {
		return nil
	}
	return []any{v}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case NumberValue:
		return float64(t), true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		if parsed, ok := ParseDate(t); ok {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	case DateValue:
		return toTime(string(t))
	}
	return time.Time{}, false
}

// compareOrdered compares a node value with an operand. ok is false when the
// node value cannot be ordered against it; an operand that is not a date
// where one is required is an error.
func compareOrdered(value, operand any, date bool) (cmp int, ok bool, err error) {
	if date {
		want, ok := toTime(operand)
		if !ok {
			return 0, false, fmt.Errorf("invalid date %v", operand)
		}
		got, ok := toTime(value)
		if !ok {
			return 0, false, nil
		}
		return got.Compare(want), true, nil
	}

	if want, ok := toFloat(operand); ok {
		got, ok := toFloat(value)
		if !ok {
			return 0, false, nil
		}
		return compareFloat(got, want), true, nil
	}

	if want, ok := operand.(string); ok {
		got, ok := value.(string)
		if !ok {
			return 0, false, nil
		}
		return strings.Compare(got, want), true, nil
	}

	return 0, false, nil
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compareForSort orders two property values. Missing values sort last.
func compareForSort(a, b any, aok, bok bool) int {
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return compareFloat(fa, fb)
		}
	}
	if ta, ok := toTime(a); ok {
		if tb, ok := toTime(b); ok {
			return ta.Compare(tb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// splitRegexLiteral splits /pattern/flags into the pattern and the RE2 flags
// among i, m and s. ok is false when s is not in that form.
func splitRegexLiteral(s string) (pattern, flags string, ok bool) {
	if len(s) < 2 || s[0] != '/' {
		return "", "", false
	}
	end := strings.LastIndexByte(s, '/')
	if end == 0 {
		return "", "", false
	}
	raw := s[end+1:]
	if strings.Trim(raw, "gims") != "" {
		return "", "", false
	}
	return s[1:end], strings.ReplaceAll(raw, "g", ""), true
}
