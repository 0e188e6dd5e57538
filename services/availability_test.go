package services

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2030-05-01 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		oStart     string
		oEnd       string
		want       bool
	}{
		{"identical", "10:00", "12:00", "10:00", "12:00", true},
		{"partial", "10:00", "12:00", "11:00", "13:00", true},
		{"contained", "10:00", "14:00", "11:00", "12:00", true},
		{"adjacent after", "10:00", "12:00", "12:00", "13:00", false},
		{"adjacent before", "12:00", "13:00", "10:00", "12:00", false},
		{"disjoint", "10:00", "11:00", "15:00", "16:00", false},
		{"zero length inside", "11:00", "11:00", "10:00", "12:00", false},
		{"other zero length", "10:00", "12:00", "11:00", "11:00", false},
		{"inverted", "12:00", "10:00", "10:00", "12:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(at(tt.start), at(tt.end), at(tt.oStart), at(tt.oEnd))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanerPoolVacationBoundaries(t *testing.T) {
	db := setupTestDB(t)
	working := seedCleaner(t, db, "working@clean.pro", nil, nil)
	away := seedCleaner(t, db, "away@clean.pro", strPtr("2030-05-10"), strPtr("2030-05-12"))
	openEnded := seedCleaner(t, db, "open@clean.pro", strPtr("2030-05-11"), nil)
	seedCustomer(t, db, "client@clean.pro")

	svc := NewAvailabilityService(db)

	ids := func(date string) []uint {
		pool, err := svc.CleanerPool(date)
		require.NoError(t, err)
		out := make([]uint, 0, len(pool))
		for _, c := range pool {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []uint{working.ID, away.ID, openEnded.ID}, ids("2030-05-09"))
	assert.Equal(t, []uint{working.ID, openEnded.ID}, ids("2030-05-10"), "first vacation day counts as vacation")
	assert.Equal(t, []uint{working.ID}, ids("2030-05-12"), "last vacation day counts as vacation")
	assert.Equal(t, []uint{working.ID, away.ID}, ids("2030-05-13"))
	assert.Equal(t, []uint{working.ID}, ids("2031-01-01"), "vacation without end never finishes")

	_, err := svc.CleanerPool("13.05.2030")
	assert.Error(t, err)
}

func TestAvailableCleanersExcludesBusy(t *testing.T) {
	db := setupTestDB(t)
	first := seedCleaner(t, db, "first@clean.pro", nil, nil)
	second := seedCleaner(t, db, "second@clean.pro", nil, nil)
	client := seedCustomer(t, db, "client@clean.pro")
	seedBooking(t, db, client.ID, first.ID, "2030-05-01", "10:00", 120)

	svc := NewAvailabilityService(db)

	free, err := svc.AvailableCleaners("2030-05-01", "11:00", 60)
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID}, free)

	free, err = svc.AvailableCleaners("2030-05-01", "12:00", 60)
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID, second.ID}, free, "an order ending at 12:00 does not block 12:00")

	free, err = svc.AvailableCleaners("2030-05-02", "10:00", 60)
	require.NoError(t, err)
	assert.Len(t, free, 2, "orders on other dates are ignored")

	_, err = svc.AvailableCleaners("2030-05-01", "25:00", 60)
	assert.Error(t, err)
}

func TestAvailableCleanersEmptyPool(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAvailabilityService(db)

	free, err := svc.AvailableCleaners("2030-05-01", "10:00", 60)
	require.NoError(t, err)
	assert.Empty(t, free)
}

func newCalendarService(t *testing.T) *AvailabilityService {
	t.Helper()
	db := setupTestDB(t)
	svc := NewAvailabilityService(db)
	svc.Location = time.UTC
	svc.Now = func() time.Time { return time.Date(2030, 5, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestAvailableTimeWorkingHours(t *testing.T) {
	svc := newCalendarService(t)
	seedCleaner(t, svc.DB, "solo@clean.pro", nil, nil)

	cal, err := svc.AvailableTime("2030-05-01", 60)
	require.NoError(t, err)

	assert.False(t, cal.Available("08:30"), "before opening")
	assert.True(t, cal.Available("09:00"))
	assert.True(t, cal.Available("20:30"), "ends 21:30, end hour is still 21")
	assert.False(t, cal.Available("21:00"), "ends 22:00, past closing")
	assert.False(t, cal.Available("23:30"))
}

func TestAvailableTimeBusyCleaner(t *testing.T) {
	svc := newCalendarService(t)
	cleaner := seedCleaner(t, svc.DB, "solo@clean.pro", nil, nil)
	client := seedCustomer(t, svc.DB, "client@clean.pro")
	seedBooking(t, svc.DB, client.ID, cleaner.ID, "2030-05-01", "10:00", 120)

	cal, err := svc.AvailableTime("2030-05-01", 60)
	require.NoError(t, err)

	assert.True(t, cal.Available("09:00"), "09:00-10:00 touches the order")
	assert.False(t, cal.Available("09:30"))
	assert.False(t, cal.Available("11:30"))
	assert.True(t, cal.Available("12:00"))
}

func TestAvailableTimeNoCleaners(t *testing.T) {
	svc := newCalendarService(t)

	cal, err := svc.AvailableTime("2030-05-01", 30)
	require.NoError(t, err)
	for _, key := range cal.Keys() {
		assert.False(t, cal.Available(key), key)
	}
}

func TestAvailableTimePastDate(t *testing.T) {
	svc := newCalendarService(t)
	seedCleaner(t, svc.DB, "solo@clean.pro", nil, nil)

	cal, err := svc.AvailableTime("2030-04-30", 60)
	require.NoError(t, err)
	for _, key := range cal.Keys() {
		assert.False(t, cal.Available(key), key)
	}

	cal, err = svc.AvailableTime("2030-05-01", 60)
	require.NoError(t, err)
	assert.True(t, cal.Available("10:00"), "today is not in the past")
}

func TestAvailableTimeLongOrderNeverFits(t *testing.T) {
	svc := newCalendarService(t)
	seedCleaner(t, svc.DB, "solo@clean.pro", nil, nil)

	cal, err := svc.AvailableTime("2030-05-01", 14*60)
	require.NoError(t, err)
	for _, key := range cal.Keys() {
		assert.False(t, cal.Available(key), key)
	}
}

func TestCalendarJSONKeepsSlotOrder(t *testing.T) {
	svc := newCalendarService(t)
	seedCleaner(t, svc.DB, "solo@clean.pro", nil, nil)

	cal, err := svc.AvailableTime("2030-05-01", 60)
	require.NoError(t, err)

	keys := cal.Keys()
	require.Len(t, keys, SlotsPerDay)
	assert.Equal(t, "00:00", keys[0])
	assert.Equal(t, "09:30", keys[19])
	assert.Equal(t, "23:30", keys[47])

	raw, err := json.Marshal(cal)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), `{"00:00":false,"00:30":false,`))
	assert.True(t, strings.HasSuffix(string(raw), `"23:00":false,"23:30":false}`))

	var decoded map[string]bool
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded, SlotsPerDay)
	assert.True(t, decoded["09:00"])
	assert.False(t, decoded["21:00"])

	var prev int
	for i, key := range keys[1:] {
		idx := strings.Index(string(raw), `"`+key+`"`)
		assert.Greater(t, idx, prev, "key %d out of order", i+1)
		prev = idx
	}
}
