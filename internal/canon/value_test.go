package canon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGoAcceptedTypes(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected Value
	}{
		{"nil", nil, Null{}},
		{"bool", true, Bool(true)},
		{"string", "x", Str("x")},
		{"int", 7, Num(7)},
		{"int64", int64(7), Num(7)},
		{"float64", 2.5, Num(2.5)},
		{"slice", []any{int64(1), "a"}, List{Num(1), Str("a")}},
		{"map", map[string]any{"k": true}, Map{"k": Bool(true)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromGoRejectsOutsideTypeSet(t *testing.T) {
	type opaque struct{ X int }

	tests := []struct {
		name  string
		input any
	}{
		{"struct", opaque{X: 1}},
		{"chan", make(chan int)},
		{"func", func() {}},
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
		{"nested nan", map[string]any{"v": math.NaN()}},
		{"nested struct", []any{opaque{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromGo(tt.input)
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestValidationErrorCarriesPath(t *testing.T) {
	_, err := FromGo(map[string]any{"outer": []any{math.NaN()}})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Path, "outer")
}

func TestParseRoundTrip(t *testing.T) {
	v, err := Parse([]byte(`{"b":[1,2.5,null],"a":"text"}`))
	require.NoError(t, err)

	expected := Map{
		"a": Str("text"),
		"b": List{Num(1), Num(2.5), Null{}},
	}
	assert.Equal(t, expected, v)
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"truncated", `{"a":`},
		{"trailing", `{} {}`},
		{"bare word", `hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
		})
	}
}
