package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSymbolEncodings(t *testing.T) {
	t.Parallel()
	cases := []struct {
		code, sina, netease, secid string
	}{
		{"600000", "sh600000", "0600000", "1.600000"},
		{"000001", "sz000001", "1000001", "0.000001"},
		{"300750", "sz300750", "1300750", "0.300750"},
		{"900901", "sh900901", "0900901", "0.900901"},
		{"430047", "bj430047", "", "0.430047"},
		{"830799", "bj830799", "", "0.830799"},
		{"920002", "bj920002", "", "0.920002"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.sina, SinaSymbol(tc.code), tc.code)
		ne, ok := NeteaseSymbol(tc.code)
		require.Equal(t, tc.netease != "", ok, tc.code)
		require.Equal(t, tc.netease, ne, tc.code)
		require.Equal(t, tc.secid, EastmoneySecID(tc.code), tc.code)
	}
}

func TestNormalizeAndValidateSymbol(t *testing.T) {
	t.Parallel()
	require.Equal(t, "600000", NormalizeSymbol(" SH600000 "))
	require.Equal(t, "000001", NormalizeSymbol("sz000001"))
	require.Equal(t, "430047", NormalizeSymbol("BJ430047"))
	require.NoError(t, ValidateSymbol("600000"))
	require.ErrorIs(t, ValidateSymbol("60000"), ErrInvalidSymbol)
	require.ErrorIs(t, ValidateSymbol("abcdef"), ErrInvalidSymbol)
}
