package coerce_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/surrealdb/sitecontent/pkg/coerce"
)

func TestBool(t *testing.T) {
	t.Run("documented inputs", func(t *testing.T) {
		cases := []struct {
			in   any
			want bool
		}{
			{true, true},
			{false, false},
			{"true", true},
			{"TRUE", true},
			{"  True\n", true},
			{"false", false},
			{"1", false},
			{"0", false},
			{"yes", false},
			{"", false},
			{1, true},
			{0, false},
			{nil, false},
		}
		for _, c := range cases {
			assert.Equal(t, c.want, coerce.Bool(c.in), "coerce.Bool(%#v)", c.in)
		}
	})

	t.Run("numeric kinds from store codecs", func(t *testing.T) {
		assert.True(t, coerce.Bool(uint64(1)))
		assert.True(t, coerce.Bool(int64(-3)))
		assert.True(t, coerce.Bool(float64(0.5)))
		assert.False(t, coerce.Bool(float32(0)))
		assert.False(t, coerce.Bool(uint8(0)))
		assert.True(t, coerce.Bool(json.Number("2")))
		assert.False(t, coerce.Bool(json.Number("0")))
		assert.True(t, coerce.Bool(math.NaN()), "NaN is non-zero")
	})

	t.Run("fallback truthiness", func(t *testing.T) {
		var nilMap map[string]any
		var nilSlice []string
		var nilPtr *bool
		yes := true
		no := false

		assert.False(t, coerce.Bool(nilMap))
		assert.False(t, coerce.Bool(nilSlice))
		assert.False(t, coerce.Bool(nilPtr))
		assert.True(t, coerce.Bool(&yes))
		assert.False(t, coerce.Bool(&no))
		assert.True(t, coerce.Bool(map[string]any{}))
		assert.True(t, coerce.Bool([]any{}))
		assert.True(t, coerce.Bool(struct{}{}))
	})

	t.Run("named string types follow the string rule", func(t *testing.T) {
		type flag string
		assert.True(t, coerce.Bool(flag("TRUE")))
		assert.False(t, coerce.Bool(flag("false")))
	})
}

func TestIsCanonicalBool(t *testing.T) {
	assert.True(t, coerce.IsCanonicalBool(true))
	assert.True(t, coerce.IsCanonicalBool(false))
	assert.False(t, coerce.IsCanonicalBool("true"))
	assert.False(t, coerce.IsCanonicalBool(1))
	assert.False(t, coerce.IsCanonicalBool(nil))
}

func TestInt(t *testing.T) {
	assert.Equal(t, 3, coerce.Int(3, -1))
	assert.Equal(t, 3, coerce.Int(uint64(3), -1))
	assert.Equal(t, 3, coerce.Int(3.9, -1))
	assert.Equal(t, 7, coerce.Int("7", -1))
	assert.Equal(t, 7, coerce.Int(" 7.2 ", -1))
	assert.Equal(t, 12, coerce.Int(json.Number("12"), -1))
	assert.Equal(t, -1, coerce.Int(nil, -1))
	assert.Equal(t, -1, coerce.Int("abc", -1))
	assert.Equal(t, -1, coerce.Int(math.Inf(1), -1))
	assert.Equal(t, 1, coerce.Int(true, -1))

	t.Run("out of range values saturate", func(t *testing.T) {
		assert.Equal(t, math.MaxInt, coerce.Int(uint64(math.MaxUint64), -1))
		assert.Equal(t, math.MaxInt, coerce.Int(uint(math.MaxUint), -1))
		assert.Equal(t, math.MaxInt, coerce.Int(1e300, -1))
		assert.Equal(t, math.MinInt, coerce.Int(-1e300, -1))
		assert.Equal(t, math.MaxInt, coerce.Int(float32(1e38), -1))
		assert.Equal(t, math.MaxInt, coerce.Int("1e30", -1))
		assert.Equal(t, math.MaxInt, coerce.Int(json.Number("99999999999999999999"), -1))
		assert.Equal(t, math.MaxInt64, coerce.Int(int64(math.MaxInt64), -1))
		assert.Equal(t, -1, coerce.Int(math.NaN(), -1))
	})
}

func TestNumber(t *testing.T) {
	for _, v := range []any{int8(2), int16(2), int32(2), int64(2), uint8(2), uint16(2), uint32(2), uint64(2), float32(2), 2.0, 2} {
		f, ok := coerce.Number(v)
		assert.True(t, ok, "%T", v)
		assert.Equal(t, 2.0, f, "%T", v)
	}
	for _, v := range []any{"2", json.Number("2"), true, nil, []int{2}} {
		_, ok := coerce.Number(v)
		assert.False(t, ok, "%T", v)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "", coerce.String(nil))
	assert.Equal(t, "abc", coerce.String("abc"))
	assert.Equal(t, "42", coerce.String(uint64(42)))
	assert.Equal(t, "1.5", coerce.String(1.5))
	assert.Equal(t, "true", coerce.String(true))
	assert.Equal(t, "", coerce.String(map[string]any{"a": 1}))
}

func TestStrings(t *testing.T) {
	t.Run("list keeps order", func(t *testing.T) {
		assert.Equal(t, []string{"b", "a", "c"}, coerce.Strings([]any{"b", "a", nil, "c"}))
	})

	t.Run("typed list is copied", func(t *testing.T) {
		in := []string{"go", "sql"}
		out := coerce.Strings(in)
		out[0] = "changed"
		assert.Equal(t, "go", in[0])
	})

	t.Run("comma separated string", func(t *testing.T) {
		assert.Equal(t, []string{"React", "Go", "SQL"}, coerce.Strings("React, Go,,SQL "))
	})

	t.Run("absent and unsupported", func(t *testing.T) {
		assert.Nil(t, coerce.Strings(nil))
		assert.Nil(t, coerce.Strings(42))
	})
}

func TestTime(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, ts.Equal(coerce.Time(ts)))
	assert.True(t, ts.Equal(coerce.Time("2024-05-01T10:00:00Z")))
	assert.True(t, ts.Equal(coerce.Time(float64(ts.Unix()))))
	assert.True(t, coerce.Time("yesterday").IsZero())
	assert.True(t, coerce.Time(nil).IsZero())
}
