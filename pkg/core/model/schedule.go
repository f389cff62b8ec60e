package model

// Day holds the entries for both slots of one calendar day
type Day struct {
	Date         Date         `json:"date"`
	DayEntries   []ShiftEntry `json:"dayEntries"`
	NightEntries []ShiftEntry `json:"nightEntries"`
}

// Entries returns the entries for the given slot of this day
func (d Day) Entries(shiftType ShiftType) []ShiftEntry {
	if shiftType == ShiftDay {
		return d.DayEntries
	}
	return d.NightEntries
}

// WeeklySchedule is the aggregate the rule engine evaluates: one package's
// Monday-to-Sunday rota together with the competency-scoped roster.
// It is rebuilt wholesale on every fetch; nothing patches it in place.
type WeeklySchedule struct {
	PackageID     string  `json:"packageId"`
	WeekStart     Date    `json:"weekStart"`
	Days          [7]Day  `json:"days"`
	PackageCarers []Carer `json:"packageCarers"`
	OtherCarers   []Carer `json:"otherCarers"`
}

// NewWeeklySchedule builds an empty schedule for the week containing the
// given date. The week start is always normalized to Monday.
func NewWeeklySchedule(packageID string, anyDayOfWeek Date) *WeeklySchedule {
	start := MondayOf(anyDayOfWeek)
	s := &WeeklySchedule{PackageID: packageID, WeekStart: start}
	for i := range s.Days {
		s.Days[i].Date = start.AddDays(i)
	}
	return s
}

// Contains reports whether the date falls within this schedule's week
func (s *WeeklySchedule) Contains(date Date) bool {
	return !date.Before(s.WeekStart) && !date.After(s.WeekStart.AddDays(6))
}

// AddEntry places an entry into its day slot. Entries outside the week are
// ignored rather than silently mis-filed.
func (s *WeeklySchedule) AddEntry(entry ShiftEntry) bool {
	if !s.Contains(entry.Date) {
		return false
	}
	idx := entry.Date.DaysSince(s.WeekStart)
	if entry.ShiftType == ShiftDay {
		s.Days[idx].DayEntries = append(s.Days[idx].DayEntries, entry)
	} else {
		s.Days[idx].NightEntries = append(s.Days[idx].NightEntries, entry)
	}
	return true
}

// SlotEntries returns the entries occupying one slot
func (s *WeeklySchedule) SlotEntries(date Date, shiftType ShiftType) []ShiftEntry {
	if !s.Contains(date) {
		return nil
	}
	return s.Days[date.DaysSince(s.WeekStart)].Entries(shiftType)
}

// AllEntries returns every entry in the week in day order, day slot before
// night slot within each day.
func (s *WeeklySchedule) AllEntries() []ShiftEntry {
	var entries []ShiftEntry
	for _, day := range s.Days {
		entries = append(entries, day.DayEntries...)
		entries = append(entries, day.NightEntries...)
	}
	return entries
}

// CarerEntries returns all of one carer's entries in the week, in day order
func (s *WeeklySchedule) CarerEntries(carerID string) []ShiftEntry {
	var entries []ShiftEntry
	for _, e := range s.AllEntries() {
		if e.CarerID == carerID {
			entries = append(entries, e)
		}
	}
	return entries
}

// CarerMinutes returns the carer's total scheduled minutes for the week
func (s *WeeklySchedule) CarerMinutes(carerID string) int {
	total := 0
	for _, e := range s.CarerEntries(carerID) {
		total += e.DurationMinutes()
	}
	return total
}

// FindEntry looks up an entry by id
func (s *WeeklySchedule) FindEntry(entryID string) (ShiftEntry, bool) {
	for _, e := range s.AllEntries() {
		if e.ID == entryID {
			return e, true
		}
	}
	return ShiftEntry{}, false
}

// Carer resolves a carer from the package roster first, then the rest of
// the organisation.
func (s *WeeklySchedule) Carer(carerID string) (Carer, bool) {
	for _, c := range s.PackageCarers {
		if c.ID == carerID {
			return c, true
		}
	}
	for _, c := range s.OtherCarers {
		if c.ID == carerID {
			return c, true
		}
	}
	return Carer{}, false
}

// WorkedWeekend reports whether the carer has any Saturday or Sunday entry
// in this week.
func (s *WeeklySchedule) WorkedWeekend(carerID string) bool {
	for _, e := range s.CarerEntries(carerID) {
		if e.Date.IsWeekend() {
			return true
		}
	}
	return false
}
