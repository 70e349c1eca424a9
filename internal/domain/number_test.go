package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"warrantfeed/internal/domain"
)

func TestNumberUnmarshal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want domain.Number
	}{
		{`12.5`, domain.Num(12.5)},
		{`-0.3`, domain.Num(-0.3)},
		{`"4.25"`, domain.Num(4.25)},
		{`null`, domain.Number{}},
		{`"NA"`, domain.Number{}},
		{`""`, domain.Number{}},
		{`"abc"`, domain.Number{Invalid: true}},
		{`"Inf"`, domain.Number{Invalid: true}},
		{`true`, domain.Number{Invalid: true}},
		{`{"x":1}`, domain.Number{Invalid: true}},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			var got domain.Number
			require.NoError(t, json.Unmarshal([]byte(tc.in), &got))
			require.Equal(t, tc.want, got)
		})
	}
}

func TestRawEntryMissingField(t *testing.T) {
	t.Parallel()

	var e domain.RawQuoteEntry
	require.NoError(t, json.Unmarshal([]byte(`{"code":"1234.KLSE","open":1,"volume":"NA"}`), &e))

	require.Equal(t, "1234.KLSE", e.Symbol)
	require.False(t, e.Close.Present)
	require.True(t, e.Open.OK())
	require.False(t, e.Volume.Present)
}

func TestUpdateEnvelope(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(domain.NewUpdate(nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"event":"warrant_update","data":[]}`, string(b))

	b, err = json.Marshal(domain.Quote{Symbol: "X", VWAP: 0.095, Turnover: 9.5})
	require.NoError(t, err)
	require.Contains(t, string(b), `"VWAP":0.095`)
	require.Contains(t, string(b), `"TO":9.5`)
}
