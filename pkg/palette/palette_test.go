package palette

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	assert.Equal(t, int32(0), Hash(""))
	assert.Equal(t, int32(97), Hash("a"))
	assert.Equal(t, int32(97*31+98), Hash("ab"))
	// Wraps like a signed 32 bit integer.
	assert.Equal(t, int32(4499501), Hash("widget-identifier-long-enough-to-overflow"))
	assert.Equal(t, int32(-1079214334), Hash("section-widget-0001"))
}

func TestSelectScheme_Deterministic(t *testing.T) {
	for _, id := range []string{"", "w1", "65a0f3c2e4b0a1b2c3d4e5f6", "Região"} {
		first := SelectScheme(id)
		second := SelectScheme(id)
		assert.Equal(t, first.Index, second.Index)
		assert.Equal(t, first, second)
		assert.GreaterOrEqual(t, first.Index, 0)
		assert.Less(t, first.Index, len(schemes))
	}
}

func TestIndex_NegativeHash(t *testing.T) {
	require.Less(t, Hash("section-widget-0001"), int32(0))
	assert.Equal(t, int(1079214334%int64(len(schemes))), Index("section-widget-0001"))

	// abs(MinInt32) must not overflow.
	require.Equal(t, int32(-2147483648), Hash("polygenelubricants"))
	assert.Equal(t, int(2147483648%int64(len(schemes))), Index("polygenelubricants"))
}

func TestGenerateColors(t *testing.T) {
	s := SelectScheme("w1")

	assert.Nil(t, GenerateColors(s, 0))

	colors := GenerateColors(s, 6)
	assert.Equal(t, s.Shades[:], colors)

	colors = GenerateColors(s, 14)
	require.Len(t, colors, 14)

	base, err := colorful.Hex(s.Shades[0])
	require.NoError(t, err)
	darker, err := colorful.Hex(colors[6])
	require.NoError(t, err)
	lighter, err := colorful.Hex(colors[12])
	require.NoError(t, err)

	_, _, lBase := base.Hsl()
	_, _, lDark := darker.Hsl()
	_, _, lLight := lighter.Hsl()
	assert.Less(t, lDark, lBase)
	assert.Greater(t, lLight, lBase)
}
