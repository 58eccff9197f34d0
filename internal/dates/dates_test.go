package dates

import (
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	n := NewNormalizer("")

	tests := []struct {
		name string
		in   string
		want civil.Date
		ok   bool
	}{
		{name: "unpadded", in: "1/31/2018 22:56", want: civil.Date{Year: 2018, Month: time.January, Day: 31}, ok: true},
		{name: "padded day", in: "12/05/2017 3:07", want: civil.Date{Year: 2017, Month: time.December, Day: 5}, ok: true},
		{name: "midnight", in: "7/4/2016 0:00", want: civil.Date{Year: 2016, Month: time.July, Day: 4}, ok: true},
		{name: "surrounding space", in: "  2/1/2015 10:10 ", want: civil.Date{Year: 2015, Month: time.February, Day: 1}, ok: true},
		{name: "empty", in: "", ok: false},
		{name: "iso", in: "2018-01-31", ok: false},
		{name: "month out of range", in: "13/1/2018 10:00", ok: false},
		{name: "garbage", in: "yesterday", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := n.Normalize(tc.in)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestCustomLayout(t *testing.T) {
	t.Parallel()
	n := NewNormalizer("2006-01-02")
	got, ok := n.Normalize("2018-03-09")
	require.True(t, ok)
	assert.Equal(t, civil.Date{Year: 2018, Month: time.March, Day: 9}, got)
}

func TestDiffDaysAndMonth(t *testing.T) {
	t.Parallel()
	ref := civil.Date{Year: 2018, Month: time.January, Day: 1}
	last := civil.Date{Year: 2017, Month: time.October, Day: 2}
	assert.EqualValues(t, 91, DiffDays(ref, last))
	assert.EqualValues(t, -91, DiffDays(last, ref))
	assert.EqualValues(t, 10, Month(last))

	d, err := ParseISO("2018-01-01")
	require.NoError(t, err)
	assert.Equal(t, ref, d)
	_, err = ParseISO("01/01/2018")
	assert.Error(t, err)
}

func TestToday(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 5, 6, 23, 30, 0, 0, time.FixedZone("x", -3*3600))
	assert.Equal(t, civil.Date{Year: 2020, Month: time.May, Day: 7}, Today(now))
}
