package settings

import (
	"strconv"
	"strings"
)

// StringListSerializer stores comma separated, trimmed strings.
func StringListSerializer() *TypedSerializer[[]string] {
	return NewSerializer(KindStringList,
		func(raw, _ string) ([]string, error) {
			return parseList(raw, func(item string) (string, error) { return item, nil })
		},
		func(v []string) (string, error) {
			return formatList(v, func(item string) (string, error) { return item, nil })
		},
		func(a, b []string) bool {
			return listEqual(a, b, func(x, y string) bool { return x == y })
		},
	)
}

// IntegerListSerializer stores comma separated 32-bit integers.
func IntegerListSerializer() *TypedSerializer[[]int] {
	return NewSerializer(KindIntegerList,
		func(raw, _ string) ([]int, error) {
			return parseList(raw, func(item string) (int, error) {
				v, err := parseInt(KindIntegerList, item, 32)
				return int(v), err
			})
		},
		func(v []int) (string, error) {
			return formatList(v, func(item int) (string, error) { return formatInt32(KindIntegerList, item) })
		},
		func(a, b []int) bool {
			return listEqual(a, b, func(x, y int) bool { return x == y })
		},
	)
}

// DoubleListSerializer stores comma separated float64 values.
func DoubleListSerializer() *TypedSerializer[[]float64] {
	return NewSerializer(KindDoubleList,
		func(raw, _ string) ([]float64, error) {
			return parseList(raw, func(item string) (float64, error) { return parseFloat(KindDoubleList, item) })
		},
		func(v []float64) (string, error) {
			return formatList(v, func(item float64) (string, error) {
				return strconv.FormatFloat(item, 'g', -1, 64), nil
			})
		},
		func(a, b []float64) bool { return listEqual(a, b, floatEqual) },
	)
}

func parseList[T any](raw string, parse func(string) (T, error)) ([]T, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return []T{}, nil
	}
	parts := strings.Split(trimmed, ",")
	out := make([]T, 0, len(parts))
	for _, part := range parts {
		v, err := parse(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func formatList[T any](items []T, format func(T) (string, error)) (string, error) {
	parts := make([]string, len(items))
	for i, item := range items {
		s, err := format(item)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ","), nil
}

func listEqual[T any](a, b []T, equal func(x, y T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
