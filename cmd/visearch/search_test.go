package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClamping(t *testing.T) {
	require.Equal(t, minTopK, clampInt(0, minTopK, maxTopK))
	require.Equal(t, minTopK, clampInt(-5, minTopK, maxTopK))
	require.Equal(t, maxTopK, clampInt(100, minTopK, maxTopK))
	require.Equal(t, 7, clampInt(7, minTopK, maxTopK))

	require.Equal(t, 0.0, clampFloat(-0.5, 0, 1))
	require.Equal(t, 1.0, clampFloat(1.5, 0, 1))
	require.Equal(t, 0.7, clampFloat(0.7, 0, 1))
}

func TestParseFilters(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		fs, err := parseFilters(nil)
		require.NoError(t, err)
		require.Nil(t, fs)
	})

	t.Run("valid", func(t *testing.T) {
		fs, err := parseFilters([]string{"category=footwear", "brand=acme"})
		require.NoError(t, err)
		require.Len(t, fs.Terms(), 2)
		require.Equal(t, "category", fs.Terms()[0].Field)
		require.Equal(t, "footwear", fs.Terms()[0].Value)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, arg := range []string{"category", "=footwear"} {
			_, err := parseFilters([]string{arg})
			require.Error(t, err)
		}
	})
}
