package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertWithinDimension(t *testing.T) {
	got, err := Convert(2, UnitKg, UnitGram)
	require.NoError(t, err)
	require.InDelta(t, 2000, got, 1e-9)

	got, err = Convert(1500, UnitMl, UnitLitre)
	require.NoError(t, err)
	require.InDelta(t, 1.5, got, 1e-9)

	got, err = Convert(7, UnitPcs, UnitPcs)
	require.NoError(t, err)
	require.InDelta(t, 7, got, 1e-9)
}

func TestConvertRoundTrip(t *testing.T) {
	pairs := [][2]Unit{
		{UnitGram, UnitKg},
		{UnitMl, UnitLitre},
		{UnitPcs, UnitBox},
	}
	for _, pair := range pairs {
		forward, err := Convert(3.25, pair[0], pair[1])
		require.NoError(t, err)
		back, err := Convert(forward, pair[1], pair[0])
		require.NoError(t, err)
		require.InDelta(t, 3.25, back, 1e-9)
	}
}

func TestConvertIncompatibleDimensions(t *testing.T) {
	_, err := Convert(1, UnitKg, UnitPcs)
	require.ErrorIs(t, err, ErrIncompatibleUnits)

	_, err = Convert(1, UnitLitre, UnitGram)
	require.ErrorIs(t, err, ErrIncompatibleUnits)
}

func TestConvertUnknownUnit(t *testing.T) {
	_, err := Convert(1, Unit("bucket"), UnitGram)
	require.ErrorIs(t, err, ErrUnknownUnit)

	_, err = Convert(1, Unit("bucket"), Unit("bucket"))
	require.ErrorIs(t, err, ErrUnknownUnit)
}

func TestParse(t *testing.T) {
	u, err := Parse("KG")
	require.NoError(t, err)
	require.Equal(t, UnitKg, u)

	u, err = Parse(" liter ")
	require.NoError(t, err)
	require.Equal(t, UnitLitre, u)

	_, err = Parse("barrel")
	require.ErrorIs(t, err, ErrUnknownUnit)
}
