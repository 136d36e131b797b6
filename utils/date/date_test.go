package date

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	{
		d, _ := ParseDate("2018-01-02")
		if !(d.Day == 2 && d.Year == 2018 && d.Month == time.January) {
			t.FailNow()
		}
		if d.String() != "2018-01-02" {
			t.FailNow()
		}
	}

	{
		// now not supported
		_, err := ParseDate("2018/01/02")
		if err == nil {
			t.FailNow()
		}
	}
}

func TestDaysSince(t *testing.T) {
	issued := New(2023, time.January, 1)
	asOf := New(2024, time.January, 1)
	assert.Equal(t, 365, asOf.DaysSince(issued))
	assert.Equal(t, -365, issued.DaysSince(asOf))

	// leap year
	assert.Equal(t, 366, New(2025, time.January, 1).DaysSince(asOf))
}

func TestScan(t *testing.T) {
	var d Date
	require.Nil(t, d.Scan("2020-02-29"))
	assert.Equal(t, "2020-02-29", d.String())

	require.Nil(t, d.Scan([]byte("2021-03-01T00:00:00Z")))
	assert.Equal(t, "2021-03-01", d.String())

	require.Nil(t, d.Scan(time.Date(2019, 5, 4, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2019-05-04", d.String())

	assert.NotNil(t, d.Scan(42))
}

func TestText(t *testing.T) {
	var d Date
	require.Nil(t, d.UnmarshalText([]byte("2022-07-15")))
	buf, err := d.MarshalText()
	require.Nil(t, err)
	assert.Equal(t, "2022-07-15", string(buf))
}
