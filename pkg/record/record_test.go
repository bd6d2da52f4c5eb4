package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	r, err := Parse(`{"type":"A","value":"1.2.3.4"}`)
	require.NoError(t, err)
	assert.Equal(t, "A", r.Type)
	assert.Equal(t, Values{"1.2.3.4"}, r.Value)
	assert.Zero(t, r.TTL)

	r, err = Parse(`{"type":"AAAA","value":["::1","::2"],"ttl":60,"extra":{"a":1}}`)
	require.NoError(t, err)
	assert.Equal(t, Values{"::1", "::2"}, r.Value)
	assert.EqualValues(t, 60, r.TTL)

	r, err = Parse(`{"type":"TXT"}`)
	require.NoError(t, err)
	assert.Empty(t, r.Value)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want error
	}{
		{"not json", `{"type":`, ErrNotObject},
		{"array", `["A"]`, ErrNotObject},
		{"null", `null`, ErrNotObject},
		{"no type", `{"value":"1.2.3.4"}`, ErrMissingType},
		{"empty type", `{"type":""}`, ErrMissingType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.blob)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Parse(`{"type":1}`)
	assert.Error(t, err)
	_, err = Parse(`{"type":"A","value":1}`)
	assert.Error(t, err)
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want string
	}{
		{"plain", `{"type":"A","value":"1.2.3.4"}`, "A"},
		{"object value", `{"type":"MX","value":{"priority":10,"host":"mx.example.com"}}`, "MX"},
		{"numeric value", `{"type":"A","value":123}`, "A"},
		{"string ttl", `{"type":"A","value":"1.2.3.4","ttl":"300"}`, "A"},
		{"negative ttl", `{"type":"A","ttl":-1}`, "A"},
		{"no type", `{"value":"x"}`, ""},
		{"numeric type", `{"type":1}`, ""},
		{"array", `[1,2]`, ""},
		{"string", `"A"`, ""},
		{"null", `null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TypeOf(tt.blob)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := TypeOf(`{"type":`)
	assert.ErrorIs(t, err, ErrSyntax)
	_, err = TypeOf(``)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestValidators(t *testing.T) {
	var v Validator = JSONValidator{}
	assert.True(t, v.Validate(`{"type":"A"}`))
	assert.True(t, v.Validate(`"just a string"`))
	assert.False(t, v.Validate(`{"type":`))
	assert.False(t, v.Validate(``))

	v = TypedValidator{}
	assert.True(t, v.Validate(`{"type":"A"}`))
	assert.True(t, v.Validate(`{"type":"MX","value":{"host":"mx.example.com"}}`))
	assert.False(t, v.Validate(`"just a string"`))
	assert.False(t, v.Validate(`{"type":1}`))

	v = ValidatorFunc(func(string) bool { return false })
	assert.False(t, v.Validate(`{}`))
}
