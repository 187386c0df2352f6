package settings

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Built-in value kinds.
const (
	KindString      = "String"
	KindInteger     = "Integer"
	KindLong        = "Long"
	KindDouble      = "Double"
	KindDecimal     = "Decimal"
	KindBoolean     = "Boolean"
	KindDateTime    = "DateTime"
	KindTimeSpan    = "TimeSpan"
	KindGuid        = "Guid"
	KindEnum        = "Enum"
	KindEnumList    = "EnumList"
	KindStringList  = "StringList"
	KindIntegerList = "IntegerList"
	KindDoubleList  = "DoubleList"
	KindUrl         = "Url"
	KindServiceUrl  = "ServiceUrl"
	KindPath        = "Path"
	KindLanguage    = "Language"
	KindPassword    = "Password"
	KindFolder      = "Folder"
)

// DoubleTolerance is the relative tolerance used when comparing floating point
// values.
const DoubleTolerance = 1e-7

const decimalPrecision = 256

// BuiltinSerializers returns every built-in serializer. enums resolves Enum
// and EnumList tags; folders drives the Folder kind.
func BuiltinSerializers(enums *EnumRegistry, folders SpecialFolders) []Serializer {
	str := StringSerializer()
	return []Serializer{
		str,
		str.Alias(KindUrl),
		str.Alias(KindServiceUrl),
		str.Alias(KindPath),
		str.Alias(KindLanguage),
		str.Alias(KindPassword),
		FolderSerializer(folders),
		IntegerSerializer(),
		LongSerializer(),
		DoubleSerializer(),
		DecimalSerializer(),
		BooleanSerializer(),
		DateTimeSerializer(),
		TimeSpanSerializer(),
		GuidSerializer(),
		EnumSerializer(enums),
		EnumListSerializer(enums),
		StringListSerializer(),
		IntegerListSerializer(),
		DoubleListSerializer(),
	}
}

// StringSerializer stores strings verbatim.
func StringSerializer() *TypedSerializer[string] {
	return NewSerializer(KindString,
		func(raw, _ string) (string, error) { return raw, nil },
		func(v string) (string, error) { return v, nil },
		func(a, b string) bool { return a == b },
	)
}

// IntegerSerializer handles 32-bit signed integers stored as int.
func IntegerSerializer() *TypedSerializer[int] {
	return NewSerializer(KindInteger,
		func(raw, _ string) (int, error) {
			v, err := parseInt(KindInteger, raw, 32)
			return int(v), err
		},
		func(v int) (string, error) { return formatInt32(KindInteger, v) },
		func(a, b int) bool { return a == b },
	)
}

// LongSerializer handles int64 values.
func LongSerializer() *TypedSerializer[int64] {
	return NewSerializer(KindLong,
		func(raw, _ string) (int64, error) { return parseInt(KindLong, raw, 64) },
		func(v int64) (string, error) { return strconv.FormatInt(v, 10), nil },
		func(a, b int64) bool { return a == b },
	)
}

// DoubleSerializer handles float64 values compared within DoubleTolerance.
func DoubleSerializer() *TypedSerializer[float64] {
	return NewSerializer(KindDouble,
		func(raw, _ string) (float64, error) { return parseFloat(KindDouble, raw) },
		func(v float64) (string, error) { return strconv.FormatFloat(v, 'g', -1, 64), nil },
		floatEqual,
	)
}

// DecimalSerializer handles arbitrary precision decimals as *big.Float.
func DecimalSerializer() *TypedSerializer[*big.Float] {
	return NewSerializer(KindDecimal,
		func(raw, _ string) (*big.Float, error) {
			value, ok := new(big.Float).SetPrec(decimalPrecision).SetString(strings.TrimSpace(raw))
			if !ok {
				return nil, formatError(KindDecimal, raw, nil)
			}
			return value, nil
		},
		func(v *big.Float) (string, error) {
			if v == nil {
				return "0", nil
			}
			return v.Text('g', -1), nil
		},
		func(a, b *big.Float) bool {
			if a == nil || b == nil {
				return a == b
			}
			// Operands may carry different precisions, e.g. big.NewFloat(1.1)
			// against a parsed "1.1"; compare their shortest decimal forms.
			return a.Cmp(b) == 0 || a.Text('g', -1) == b.Text('g', -1)
		},
	)
}

// BooleanSerializer accepts any strconv.ParseBool spelling, case-insensitively.
func BooleanSerializer() *TypedSerializer[bool] {
	return NewSerializer(KindBoolean,
		func(raw, _ string) (bool, error) {
			v, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw)))
			if err != nil {
				return false, formatError(KindBoolean, raw, nil)
			}
			return v, nil
		},
		func(v bool) (string, error) { return strconv.FormatBool(v), nil },
		func(a, b bool) bool { return a == b },
	)
}

// GuidSerializer stores UUIDs in dashed canonical form.
func GuidSerializer() *TypedSerializer[uuid.UUID] {
	return NewSerializer(KindGuid,
		func(raw, _ string) (uuid.UUID, error) {
			id, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				return uuid.Nil, formatError(KindGuid, raw, err)
			}
			return id, nil
		},
		func(v uuid.UUID) (string, error) { return v.String(), nil },
		func(a, b uuid.UUID) bool { return a == b },
	)
}

func formatInt32(kind string, v int) (string, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return "", overflowError(kind, strconv.Itoa(v))
	}
	return strconv.Itoa(v), nil
}

func parseInt(kind, raw string, bitSize int) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, bitSize)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, overflowError(kind, raw)
		}
		return 0, formatError(kind, raw, nil)
	}
	return v, nil
}

func parseFloat(kind, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, overflowError(kind, raw)
		}
		return 0, formatError(kind, raw, nil)
	}
	return v, nil
}

func floatEqual(a, b float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) || math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= DoubleTolerance*scale
}
