package optional

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Amount Value[int]    `json:"amount"`
	Note   Value[string] `json:"note"`
}

func TestValueUnmarshalTriState(t *testing.T) {
	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount": null}`), &p))
	assert.True(t, p.Amount.IsClear())
	assert.True(t, p.Note.IsUnset())

	require.NoError(t, json.Unmarshal([]byte(`{"amount": 12, "note": "late"}`), &p))
	amount, ok := p.Amount.Get()
	require.True(t, ok)
	assert.Equal(t, 12, amount)
	note, ok := p.Note.Get()
	require.True(t, ok)
	assert.Equal(t, "late", note)
}

func TestValueUnmarshalRejectsWrongType(t *testing.T) {
	var p payload
	require.Error(t, json.Unmarshal([]byte(`{"amount": "x"}`), &p))
}

func TestValueApply(t *testing.T) {
	existing := 7

	assert.Equal(t, &existing, Unset[int]().Apply(&existing))
	assert.Nil(t, Clear[int]().Apply(&existing))

	got := Set(9).Apply(&existing)
	require.NotNil(t, got)
	assert.Equal(t, 9, *got)
	assert.Equal(t, 7, existing)
}

func TestValueMarshal(t *testing.T) {
	raw, err := json.Marshal(payload{Amount: Set(3), Note: Clear[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":3,"note":null}`, string(raw))
}
