package model

import "time"

// ShiftType identifies the slot within a day
type ShiftType string

const (
	ShiftDay   ShiftType = "DAY"
	ShiftNight ShiftType = "NIGHT"
)

// IsValid reports whether the shift type is one of the known values
func (s ShiftType) IsValid() bool {
	return s == ShiftDay || s == ShiftNight
}

// Opposite returns the other shift type
func (s ShiftType) Opposite() ShiftType {
	if s == ShiftDay {
		return ShiftNight
	}
	return ShiftDay
}

// CompetencyLevel is a carer's assessed level for one task
type CompetencyLevel string

const (
	LevelNotAssessed      CompetencyLevel = "NOT_ASSESSED"
	LevelNotCompetent     CompetencyLevel = "NOT_COMPETENT"
	LevelAdvancedBeginner CompetencyLevel = "ADVANCED_BEGINNER"
	LevelCompetent        CompetencyLevel = "COMPETENT"
	LevelProficient       CompetencyLevel = "PROFICIENT"
	LevelExpert           CompetencyLevel = "EXPERT"
)

// MeetsCompetent reports whether the level is COMPETENT or above
func (l CompetencyLevel) MeetsCompetent() bool {
	switch l {
	case LevelCompetent, LevelProficient, LevelExpert:
		return true
	}
	return false
}

// CompetencyRating is one carer's level for one package task
type CompetencyRating struct {
	TaskID string          `json:"taskId"`
	Level  CompetencyLevel `json:"level"`
}

// PackageCompetency summarises a carer's competency for one package
type PackageCompetency struct {
	CompetentTaskCount int  `json:"competentTaskCount"`
	TotalTaskCount     int  `json:"totalTaskCount"`
	IsPackageCompetent bool `json:"isPackageCompetent"`
	HasNoTasks         bool `json:"hasNoTasks"`
}

// Carer is a staff member eligible to work shifts. Carer records are owned
// by the user-management collaborator; the engine only reads them.
type Carer struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	Ratings           []CompetencyRating `json:"ratings,omitempty"`
	PackageCompetency *PackageCompetency `json:"packageCompetency,omitempty"`
}

// IsPackageCompetent reports whether the carer counts as competent for the
// package this record was scoped to. The precomputed summary wins when
// present; otherwise every rated task must be COMPETENT or above and at
// least one task must have been assessed.
func (c Carer) IsPackageCompetent() bool {
	if c.PackageCompetency != nil {
		return c.PackageCompetency.IsPackageCompetent
	}
	if len(c.Ratings) == 0 {
		return false
	}
	for _, r := range c.Ratings {
		if !r.Level.MeetsCompetent() {
			return false
		}
	}
	return true
}

// CompetencyFloor returns the lowest rating level held by the carer,
// treating an unassessed carer as NOT_ASSESSED.
func (c Carer) CompetencyFloor() CompetencyLevel {
	if len(c.Ratings) == 0 {
		return LevelNotAssessed
	}
	order := map[CompetencyLevel]int{
		LevelNotAssessed:      0,
		LevelNotCompetent:     1,
		LevelAdvancedBeginner: 2,
		LevelCompetent:        3,
		LevelProficient:       4,
		LevelExpert:           5,
	}
	floor := LevelExpert
	for _, r := range c.Ratings {
		if order[r.Level] < order[floor] {
			floor = r.Level
		}
	}
	return floor
}

// NeedsSupervision reports whether the carer may only work alongside a
// package-competent colleague (the competency pairing rule).
func (c Carer) NeedsSupervision() bool {
	if c.IsPackageCompetent() {
		return false
	}
	floor := c.CompetencyFloor()
	return floor == LevelNotAssessed || floor == LevelNotCompetent
}

// CarePackage is a client location that needs scheduled care cover.
// ScheduledHours is the sum of all scheduled entries; TotalHours is the
// weekly staffing target (36 unless the package record says otherwise).
type CarePackage struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Postcode       string  `json:"postcode"`
	IsActive       bool    `json:"isActive"`
	CarerCount     int     `json:"carerCount"`
	ScheduledHours float64 `json:"scheduledHours"`
	TotalHours     float64 `json:"totalHours"`
}

// ShiftEntry is one carer working one shift on one date for one package.
// Entries are immutable once created except for the IsConfirmed flag.
type ShiftEntry struct {
	ID          string    `json:"id"`
	PackageID   string    `json:"packageId"`
	CarerID     string    `json:"carerId"`
	Date        Date      `json:"date"`
	ShiftType   ShiftType `json:"shiftType"`
	StartTime   TimeOfDay `json:"startTime"`
	EndTime     TimeOfDay `json:"endTime"`
	IsConfirmed bool      `json:"isConfirmed"`
}

// DurationMinutes returns the worked length of the entry in minutes
func (e ShiftEntry) DurationMinutes() int {
	return ShiftMinutes(e.StartTime, e.EndTime)
}

// StartAt returns the instant the shift begins
func (e ShiftEntry) StartAt() time.Time {
	return e.Date.At(e.StartTime)
}

// EndAt returns the instant the shift ends, rolling into the next day for
// shifts that cross midnight.
func (e ShiftEntry) EndAt() time.Time {
	return e.StartAt().Add(time.Duration(e.DurationMinutes()) * time.Minute)
}

// SameSlot reports whether two entries occupy the same slot (date x shift type)
func (e ShiftEntry) SameSlot(other ShiftEntry) bool {
	return e.Date.Equal(other.Date) && e.ShiftType == other.ShiftType
}
