package settings

import (
	"errors"
	"math"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func mustParse(t *testing.T, s Serializer, raw, tag string) any {
	t.Helper()
	value, err := s.Parse(raw, tag)
	if err != nil {
		t.Fatalf("%s parse %q: %v", s.Kind(), raw, err)
	}
	return value
}

func mustFormat(t *testing.T, s Serializer, value any) string {
	t.Helper()
	raw, err := s.Format(value)
	if err != nil {
		t.Fatalf("%s format %v: %v", s.Kind(), value, err)
	}
	return raw
}

func TestIntegerSerializerBoundaries(t *testing.T) {
	s := IntegerSerializer()

	if got := mustParse(t, s, "2147483647", ""); got != math.MaxInt32 {
		t.Fatalf("expected max int32, got %v", got)
	}
	if got := mustParse(t, s, " -2147483648 ", ""); got != math.MinInt32 {
		t.Fatalf("expected min int32, got %v", got)
	}
	if _, err := s.Parse("2147483648", ""); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if _, err := s.Parse("twelve", ""); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if _, err := s.Format(int(math.MaxInt32) + 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow formatting out of range int, got %v", err)
	}
	if _, err := s.Format("12"); !errors.Is(err, ErrValueType) {
		t.Fatalf("expected ErrValueType, got %v", err)
	}
}

func TestLongSerializerBoundaries(t *testing.T) {
	s := LongSerializer()
	if got := mustParse(t, s, "9223372036854775807", ""); got != int64(math.MaxInt64) {
		t.Fatalf("expected max int64, got %v", got)
	}
	if _, err := s.Parse("9223372036854775808", ""); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestDoubleSerializerTolerance(t *testing.T) {
	s := DoubleSerializer()
	value := mustParse(t, s, "0.1", "")
	if raw := mustFormat(t, s, value); raw != "0.1" {
		t.Fatalf("expected 0.1, got %q", raw)
	}
	if !s.Equal(1.0, 1.0+1e-9) {
		t.Fatalf("values within tolerance should be equal")
	}
	if s.Equal(1.0, 1.001) {
		t.Fatalf("values outside tolerance should differ")
	}
	if !s.Equal(math.NaN(), math.NaN()) {
		t.Fatalf("NaN should equal NaN for change detection")
	}
	if _, err := s.Parse("1e400", ""); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestDecimalSerializerKeepsPrecision(t *testing.T) {
	s := DecimalSerializer()
	const raw = "123.45678901234567890123456789"
	value := mustParse(t, s, raw, "")
	if _, ok := value.(*big.Float); !ok {
		t.Fatalf("expected *big.Float, got %T", value)
	}
	if got := mustFormat(t, s, value); got != raw {
		t.Fatalf("expected %s, got %s", raw, got)
	}
	if _, err := s.Parse("12,5", ""); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestBooleanSerializerSpellings(t *testing.T) {
	s := BooleanSerializer()
	for raw, want := range map[string]bool{"TRUE": true, "False": false, "1": true, "0": false, " true ": true} {
		if got := mustParse(t, s, raw, ""); got != want {
			t.Fatalf("parse %q: expected %v, got %v", raw, want, got)
		}
	}
	if _, err := s.Parse("yes", ""); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if got := mustFormat(t, s, true); got != "true" {
		t.Fatalf("expected true, got %q", got)
	}
}

func TestDateTimeSerializerRoundTripUTC(t *testing.T) {
	s := DateTimeSerializer()
	const raw = "2024-01-02T03:04:05.123456789Z"
	value := mustParse(t, s, raw, "").(time.Time)
	if value.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", value.Location())
	}
	if got := mustFormat(t, s, value); got != raw {
		t.Fatalf("expected %s, got %s", raw, got)
	}
	if _, err := s.Parse("02/01/2024", ""); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestDateTimeSerializerKeepsOffset(t *testing.T) {
	s := DateTimeSerializer()
	value := mustParse(t, s, "2024-06-01T10:00:00+05:30", "").(time.Time)
	if !value.Equal(time.Date(2024, 6, 1, 4, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant %v", value)
	}
}

func TestTimeSpanSerializer(t *testing.T) {
	s := TimeSpanSerializer()
	cases := []struct {
		raw       string
		want      time.Duration
		formatted string
	}{
		{raw: "00:00:00", want: 0, formatted: "00:00:00"},
		{raw: "00:00:30", want: 30 * time.Second, formatted: "00:00:30"},
		{raw: "1.02:03:04.5", want: 26*time.Hour + 3*time.Minute + 4*time.Second + 500*time.Millisecond, formatted: "1.02:03:04.500000000"},
		{raw: "-00:00:01", want: -time.Second, formatted: "-00:00:01"},
		{raw: "106751.23:47:16.854775807", want: time.Duration(math.MaxInt64), formatted: "106751.23:47:16.854775807"},
		{raw: "-106751.23:47:16.854775808", want: time.Duration(math.MinInt64), formatted: "-106751.23:47:16.854775808"},
	}
	for _, tc := range cases {
		got := mustParse(t, s, tc.raw, "")
		if got != tc.want {
			t.Fatalf("parse %q: expected %v, got %v", tc.raw, tc.want, got)
		}
		if formatted := mustFormat(t, s, got); formatted != tc.formatted {
			t.Fatalf("format %v: expected %q, got %q", got, tc.formatted, formatted)
		}
	}

	if _, err := s.Parse("106751.23:47:16.854775808", ""); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	for _, raw := range []string{"24:00:00", "00:60:00", "1h", ""} {
		if _, err := s.Parse(raw, ""); !errors.Is(err, ErrFormat) {
			t.Fatalf("parse %q: expected ErrFormat, got %v", raw, err)
		}
	}
}

func TestGuidSerializer(t *testing.T) {
	s := GuidSerializer()
	id := uuid.New()
	value := mustParse(t, s, id.String(), "")
	if value != id {
		t.Fatalf("expected %s, got %v", id, value)
	}
	if _, err := s.Parse("not-a-guid", ""); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestEnumSerializers(t *testing.T) {
	enums := NewEnumRegistry(DefineEnum("app.Mode", "Slow", "Fast"))
	single := EnumSerializer(enums)

	for _, raw := range []string{"Fast", "fast", "1"} {
		got := mustParse(t, single, raw, "app.Mode").(EnumValue)
		if got.Name != "Fast" || got.Value != 1 {
			t.Fatalf("parse %q: unexpected %+v", raw, got)
		}
	}
	if _, err := single.Parse("Turbo", "app.Mode"); !errors.Is(err, ErrArgument) {
		t.Fatalf("expected ErrArgument for undefined member, got %v", err)
	}
	if _, err := single.Parse("Fast", "app.Unknown"); !errors.Is(err, ErrArgument) {
		t.Fatalf("expected ErrArgument for unknown type, got %v", err)
	}

	list := EnumListSerializer(enums)
	values := mustParse(t, list, "Slow, fast", "app.Mode")
	if got := mustFormat(t, list, values); got != "Slow,Fast" {
		t.Fatalf("expected Slow,Fast, got %q", got)
	}
}

func TestListSerializers(t *testing.T) {
	strs := StringListSerializer()
	if got := mustParse(t, strs, "a, b,c", ""); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected list %v", got)
	}
	if got := mustFormat(t, strs, []string{"a", "b", "c"}); got != "a,b,c" {
		t.Fatalf("unexpected format %q", got)
	}
	for _, raw := range []string{"", "null", " NULL "} {
		if got := mustParse(t, strs, raw, ""); !reflect.DeepEqual(got, []string{}) {
			t.Fatalf("parse %q: expected empty list, got %v", raw, got)
		}
	}

	ints := IntegerListSerializer()
	if got := mustParse(t, ints, "1, 2,3", ""); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("unexpected list %v", got)
	}
	if _, err := ints.Parse("1,x", ""); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}

	doubles := DoubleListSerializer()
	if !doubles.Equal([]float64{1, 2}, []float64{1 + 1e-10, 2}) {
		t.Fatalf("double lists within tolerance should be equal")
	}
}

func TestFolderSerializer(t *testing.T) {
	folders := SpecialFolders{
		{Token: "%UserProfile%", Path: "/home/ada"},
		{Token: "%AppData%", Path: "/home/ada/.config"},
	}
	s := FolderSerializer(folders)

	if got := mustParse(t, s, "%appdata%/tool", ""); got != "/home/ada/.config/tool" {
		t.Fatalf("unexpected expansion %v", got)
	}
	if got := mustFormat(t, s, "/home/ada/.config/tool"); got != "%AppData%/tool" {
		t.Fatalf("expected longest prefix collapse, got %q", got)
	}
	if got := mustFormat(t, s, "/home/ada/docs"); got != "%UserProfile%/docs" {
		t.Fatalf("unexpected collapse %q", got)
	}
	if got := mustFormat(t, s, "/home/adam"); got != "/home/adam" {
		t.Fatalf("partial segment must not collapse, got %q", got)
	}
}

func TestSerializerRegistryLastRegistrationWins(t *testing.T) {
	registry := NewSerializerRegistry()
	if err := registry.Register(BuiltinSerializers(NewEnumRegistry(), nil)...); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	upper := NewSerializer(KindString,
		func(raw, _ string) (string, error) { return raw + "!", nil },
		func(v string) (string, error) { return v, nil },
		nil,
	)
	if err := registry.Register(upper); err != nil {
		t.Fatalf("register custom: %v", err)
	}
	s, ok := registry.Lookup(KindString)
	if !ok {
		t.Fatalf("expected String serializer")
	}
	if got := mustParse(t, s, "hi", ""); got != "hi!" {
		t.Fatalf("expected custom serializer, got %v", got)
	}
	if _, ok := registry.Lookup(KindUrl); !ok {
		t.Fatalf("expected Url alias to remain registered")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected error for nil serializer")
	}
	kinds := registry.Kinds()
	if len(kinds) != 20 || kinds[0] != KindBoolean {
		t.Fatalf("unexpected kinds %v", kinds)
	}
}

func TestIntegerListSerializerRejectsOutOfRangeItems(t *testing.T) {
	ints := IntegerListSerializer()
	for _, item := range []int{math.MaxInt32 + 1, math.MinInt32 - 1} {
		if _, err := ints.Format([]int{1, item}); !errors.Is(err, ErrOverflow) {
			t.Fatalf("format %d: expected ErrOverflow, got %v", item, err)
		}
	}
	raw := mustFormat(t, ints, []int{math.MinInt32, 0, math.MaxInt32})
	if got := mustParse(t, ints, raw, ""); !reflect.DeepEqual(got, []int{math.MinInt32, 0, math.MaxInt32}) {
		t.Fatalf("boundary round trip: got %v", got)
	}
}

func TestDecimalSerializerEqualityAcrossPrecisions(t *testing.T) {
	s := DecimalSerializer()
	parsed := mustParse(t, s, "1.1", "")
	if !s.Equal(big.NewFloat(1.1), parsed) {
		t.Fatalf("big.NewFloat(1.1) should equal parsed 1.1")
	}
	if s.Equal(big.NewFloat(1.2), parsed) {
		t.Fatalf("1.2 should not equal 1.1")
	}
	if !s.Equal(mustParse(t, s, "0", ""), new(big.Float).Neg(big.NewFloat(0))) {
		t.Fatalf("signed zeros should compare equal")
	}
}
