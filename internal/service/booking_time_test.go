package service

import (
	"testing"
	"time"
	_ "time/tzdata"

	"rootedinspeech/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestCombineLocal(t *testing.T) {
	newYork := mustLocation(t, "America/New_York")

	tests := []struct {
		name    string
		date    string
		clock   string
		loc     *time.Location
		want    string
		wantErr string
	}{
		{"Summer", "2024-05-01", "14:00", newYork, "2024-05-01T18:00:00.000Z", ""},
		{"Winter", "2024-01-15", "09:30", newYork, "2024-01-15T14:30:00.000Z", ""},
		{"WithSeconds", "2024-05-01", "14:00:30", newYork, "2024-05-01T18:00:30.000Z", ""},
		{"UTC", "2024-05-01", "00:00", time.UTC, "2024-05-01T00:00:00.000Z", ""},
		{"CrossesMidnight", "2024-12-31", "22:00", newYork, "2025-01-01T03:00:00.000Z", ""},
		{"AmbiguousPicksEarlier", "2024-11-03", "01:30", newYork, "2024-11-03T05:30:00.000Z", ""},
		{"SkippedByDST", "2024-03-10", "02:30", newYork, "", "time"},
		{"BadDate", "2024-13-01", "10:00", newYork, "", "date"},
		{"BadClock", "2024-05-01", "25:00", newYork, "", "time"},
		{"EmptyClock", "2024-05-01", "", newYork, "", "time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CombineLocal(tt.date, tt.clock, tt.loc)
			if tt.wantErr != "" {
				var vErr *domain.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantErr, vErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatInstant(got))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestCombineLocal_RoundTripsWallClock(t *testing.T) {
	tokyo := mustLocation(t, "Asia/Tokyo")

	got, err := CombineLocal("2024-07-04", "08:15", tokyo)
	require.NoError(t, err)

	local := got.In(tokyo)
	assert.Equal(t, "2024-07-04 08:15", local.Format("2006-01-02 15:04"))
}

func TestFormatInstant(t *testing.T) {
	loc := time.FixedZone("X", 2*60*60)
	ts := time.Date(2024, 5, 1, 14, 0, 0, 123456789, loc)
	assert.Equal(t, "2024-05-01T12:00:00.123Z", FormatInstant(ts))
}
