package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Clean-PRO/backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SlotsPerDay = 48
	SlotMinutes = 30

	DefaultWorkStartHour = 9
	DefaultWorkStopHour  = 21
)

// AvailabilityService answers "which cleaners are free" for a date and window.
type AvailabilityService struct {
	DB            *gorm.DB
	Now           func() time.Time
	Location      *time.Location
	WorkStartHour int
	WorkStopHour  int
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{
		DB:            db,
		Now:           time.Now,
		Location:      time.Local,
		WorkStartHour: DefaultWorkStartHour,
		WorkStopHour:  DefaultWorkStopHour,
	}
}

// Overlaps reports whether [start, end) and [otherStart, otherEnd) intersect.
// Empty windows never overlap anything, and touching windows do not overlap.
func Overlaps(start, end, otherStart, otherEnd time.Time) bool {
	if !start.Before(end) || !otherStart.Before(otherEnd) {
		return false
	}
	return start.Before(otherEnd) && otherStart.Before(end)
}

type busyWindow struct {
	cleanerID uint
	start     time.Time
	end       time.Time
}

// AvailableCleaners returns the ids of cleaners who are not on vacation on
// date and have no order overlapping [start, start+duration).
func (s *AvailabilityService) AvailableCleaners(date, start string, durationMinutes uint) ([]uint, error) {
	return s.availableCleaners(s.DB, date, start, durationMinutes, false)
}

// availableCleaners runs on tx. With lock set, the cleaner rows are read
// FOR UPDATE so concurrent bookings over the same pool are serialised.
func (s *AvailabilityService) availableCleaners(tx *gorm.DB, date, start string, durationMinutes uint, lock bool) ([]uint, error) {
	day, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	from, err := time.ParseInLocation(models.TimeFormat, start, s.location())
	if err != nil {
		return nil, fmt.Errorf("invalid cleaning time %q: %w", start, err)
	}
	windowStart := time.Date(day.Year(), day.Month(), day.Day(), from.Hour(), from.Minute(), 0, 0, s.location())
	windowEnd := windowStart.Add(time.Duration(durationMinutes) * time.Minute)

	pool, busy, err := s.loadDay(tx, date, lock)
	if err != nil {
		return nil, err
	}
	return freeCleaners(pool, busy, windowStart, windowEnd), nil
}

// AvailableTime builds the half-hour calendar for date. A slot is true when
// at least one cleaner can take an order of durationMinutes starting there.
func (s *AvailabilityService) AvailableTime(date string, durationMinutes uint) (*Calendar, error) {
	cal := &Calendar{}

	day, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	now := s.now().In(s.location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location())
	if day.Before(today) {
		return cal, nil
	}

	pool, busy, err := s.loadDay(s.DB, date, false)
	if err != nil {
		return nil, err
	}

	for i := 0; i < SlotsPerDay; i++ {
		startMinute := i * SlotMinutes
		if startMinute/60 < s.WorkStartHour {
			continue
		}
		// Slots are ascending, so once one overruns closing every later one does.
		endMinute := startMinute + int(durationMinutes)
		if endMinute/60 > s.WorkStopHour {
			break
		}
		windowStart := time.Date(day.Year(), day.Month(), day.Day(), startMinute/60, startMinute%60, 0, 0, s.location())
		windowEnd := windowStart.Add(time.Duration(durationMinutes) * time.Minute)
		cal.slots[i] = len(freeCleaners(pool, busy, windowStart, windowEnd)) > 0
	}
	return cal, nil
}

// CleanerPool lists the cleaners not on vacation on date. Both vacation
// boundary dates count as on vacation.
func (s *AvailabilityService) CleanerPool(date string) ([]models.User, error) {
	if _, err := s.parseDate(date); err != nil {
		return nil, err
	}
	return cleanerPool(s.DB, date, false)
}

func cleanerPool(tx *gorm.DB, date string, lock bool) ([]models.User, error) {
	q := tx.Model(&models.User{}).
		Where("is_cleaner = ?", true).
		Where("(on_vacation_from IS NULL OR on_vacation_from > ? OR on_vacation_to < ?)", date, date).
		Order("id")
	if lock && tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var cleaners []models.User
	if err := q.Find(&cleaners).Error; err != nil {
		return nil, fmt.Errorf("load cleaner pool: %w", err)
	}
	return cleaners, nil
}

func (s *AvailabilityService) loadDay(tx *gorm.DB, date string, lock bool) ([]uint, []busyWindow, error) {
	cleaners, err := cleanerPool(tx, date, lock)
	if err != nil {
		return nil, nil, err
	}
	pool := make([]uint, 0, len(cleaners))
	for _, c := range cleaners {
		pool = append(pool, c.ID)
	}

	var orders []models.Order
	if err := tx.Where("cleaning_date = ? AND cleaner_id IS NOT NULL", date).Find(&orders).Error; err != nil {
		return nil, nil, fmt.Errorf("load orders for %s: %w", date, err)
	}

	busy := make([]busyWindow, 0, len(orders))
	for _, o := range orders {
		start, end, err := o.Window(s.location())
		if err != nil {
			return nil, nil, fmt.Errorf("order %d: %w", o.ID, err)
		}
		busy = append(busy, busyWindow{cleanerID: *o.CleanerID, start: start, end: end})
	}
	return pool, busy, nil
}

func freeCleaners(pool []uint, busy []busyWindow, start, end time.Time) []uint {
	taken := make(map[uint]bool)
	for _, w := range busy {
		if Overlaps(start, end, w.start, w.end) {
			taken[w.cleanerID] = true
		}
	}

	free := make([]uint, 0, len(pool))
	for _, id := range pool {
		if !taken[id] {
			free = append(free, id)
		}
	}
	return free
}

func (s *AvailabilityService) parseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(models.DateFormat, date, s.location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cleaning date %q: %w", date, err)
	}
	return d, nil
}

func (s *AvailabilityService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *AvailabilityService) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

// Calendar is the availability of every half-hour slot of a day.
// It marshals to a JSON object whose keys keep slot order.
type Calendar struct {
	slots [SlotsPerDay]bool
}

// SlotKey formats slot i as "HH:MM".
func SlotKey(i int) string {
	minutes := i * SlotMinutes
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func (c *Calendar) Keys() []string {
	keys := make([]string, SlotsPerDay)
	for i := range keys {
		keys[i] = SlotKey(i)
	}
	return keys
}

// Available reports the slot for an "HH:MM" key. Unknown keys are false.
func (c *Calendar) Available(key string) bool {
	for i := 0; i < SlotsPerDay; i++ {
		if SlotKey(i) == key {
			return c.slots[i]
		}
	}
	return false
}

func (c *Calendar) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, free := range c.slots {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%t", SlotKey(i), free)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
