package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"wrapped string", `{"S": "ORD-1"}`, "ORD-1"},
		{"wrapped number", `{"N": "450"}`, "450"},
		{"wrapped bool", `{"BOOL": true}`, "true"},
		{"plain string", `"Austin, USA"`, "Austin, USA"},
		{"plain number", `100`, "100"},
		{"plain float keeps precision", `1.5`, "1.5"},
		{"plain bool", `false`, "false"},
		{"null", `null`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var a Attr
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &a))
			assert.Equal(t, tc.want, a.String())
		})
	}
}

// A single-key object whose key is not a storage discriminator stays a map.
func TestAttrUnmarshal_NonWrapperObject(t *testing.T) {
	var a Attr
	require.NoError(t, json.Unmarshal([]byte(`{"length": "30"}`), &a))
	assert.Equal(t, map[string]any{"length": "30"}, a.Value)
}

func TestAttrMarshal_UnwrapsValue(t *testing.T) {
	var a Attr
	require.NoError(t, json.Unmarshal([]byte(`{"S": "450"}`), &a))
	out, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"450"`, string(out))
}

func TestAttrPresent(t *testing.T) {
	var absent Attr
	assert.False(t, absent.Present())

	var present Attr
	require.NoError(t, json.Unmarshal([]byte(`{"S": ""}`), &present))
	assert.True(t, present.Present())
}

func TestAttrBool(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{`{"S": "Yes"}`, true},
		{`{"S": "yes"}`, true},
		{`{"S": " TRUE "}`, true},
		{`{"S": "1"}`, true},
		{`{"S": "No"}`, false},
		{`{"S": "maybe"}`, false},
		{`{"BOOL": true}`, true},
		{`null`, false},
	}

	for _, tc := range cases {
		var a Attr
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &a))
		assert.Equal(t, tc.want, a.Bool(), "raw %s", tc.raw)
	}
}

func TestRecordFlatten(t *testing.T) {
	raw := `{
		"order_id": {"S": "ORD-1"},
		"product_quantity": {"N": "100"},
		"customer_prime_member": {"BOOL": true},
		"product_name": "Wireless Router"
	}`
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	flat := rec.Flatten()
	assert.Equal(t, "ORD-1", flat["order_id"])
	assert.Equal(t, "100", flat["product_quantity"])
	assert.Equal(t, true, flat["customer_prime_member"])
	assert.Equal(t, "Wireless Router", flat["product_name"])
}
