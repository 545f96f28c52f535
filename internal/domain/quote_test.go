package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQuoteDerive(t *testing.T) {
	t.Parallel()
	q := Quote{Price: 11, PreClose: 10, High: 11.5, Low: 10.5}
	q.Derive()
	require.InDelta(t, 1.0, q.Change, 1e-9)
	require.InDelta(t, 10.0, q.ChangePct, 1e-9)
	require.InDelta(t, 10.0, q.Amplitude, 1e-9)
}

func TestQuoteDerive_ZeroPreClose(t *testing.T) {
	t.Parallel()
	q := Quote{Price: 5, High: 6, Low: 4}
	q.Derive()
	require.Equal(t, 5.0, q.Change)
	require.Zero(t, q.ChangePct)
	require.Zero(t, q.Amplitude)
}

func TestQuoteValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		q    Quote
		ok   bool
	}{
		{"valid", Quote{Price: 10, High: 11, Low: 9, Volume: 100}, true},
		{"zero price", Quote{Price: 0}, false},
		{"negative volume", Quote{Price: 1, Volume: -1}, false},
		{"nan", Quote{Price: math.NaN()}, false},
		{"high below low", Quote{Price: 10, High: 9, Low: 11}, false},
		{"error sentinel", NewErrorQuote("600000", KindParse, "x", time.Now()), false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.q.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestNewErrorQuote(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	q := NewErrorQuote("999999", KindAllSourcesFailed, "boom", at)
	require.True(t, q.IsError())
	require.Equal(t, ErrorLabel, q.Name)
	require.Zero(t, q.Price)
	require.Zero(t, q.Volume)
	require.Equal(t, at, q.FetchedAt)
}

func TestKindOf(t *testing.T) {
	t.Parallel()
	require.Equal(t, KindParse, KindOf(ParseError("sina", ErrNotFound)))
	require.Equal(t, KindValidation, KindOf(ValidationError("qq", ErrNotFound)))
	require.Equal(t, KindTransport, KindOf(ErrNotFound))
}
