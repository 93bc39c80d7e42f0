package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2HalfAwayFromZero(t *testing.T) {
	cases := map[string]string{
		"1.005":  "1.01",
		"1.004":  "1",
		"-1.005": "-1.01",
		"2.675":  "2.68",
		"10":     "10",
	}
	for in, want := range cases {
		got := Round2(MustParse(in))
		assert.True(t, got.Equal(MustParse(want)), "round2(%s) = %s, want %s", in, got, want)
	}
}

func TestPercent(t *testing.T) {
	assert.True(t, Percent(MustParse("90000"), MustParse("10")).Equal(MustParse("9000")))
	assert.True(t, Percent(MustParse("33.33"), MustParse("15")).Equal(MustParse("5")))
	assert.True(t, Percent(MustParse("0.05"), MustParse("10")).Equal(MustParse("0.01")))
}

func TestValidPercent(t *testing.T) {
	assert.True(t, ValidPercent(MustParse("0")))
	assert.True(t, ValidPercent(MustParse("100")))
	assert.False(t, ValidPercent(MustParse("100.01")))
	assert.False(t, ValidPercent(MustParse("-0.01")))
}
