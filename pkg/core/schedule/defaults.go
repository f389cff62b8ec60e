package schedule

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// SlotTimes is the default start and end wall-clock time for one slot
type SlotTimes struct {
	Start model.TimeOfDay
	End   model.TimeOfDay
}

// Override changes the default times for dates matched by a recurrence
// rule, e.g. shorter weekend day shifts or bank holiday cover.
type Override struct {
	Rule      *rrule.RRule
	ShiftType model.ShiftType
	Times     SlotTimes
}

// ShiftTimes resolves the times a drag-and-drop placement implies for a
// slot when the operator has not picked explicit times.
type ShiftTimes struct {
	Day       SlotTimes
	Night     SlotTimes
	Overrides []Override
}

// DefaultShiftTimes returns the standard 12-hour day/night split
func DefaultShiftTimes() ShiftTimes {
	return ShiftTimes{
		Day:   SlotTimes{Start: model.TimeOfDay(8 * 60), End: model.TimeOfDay(20 * 60)},
		Night: SlotTimes{Start: model.TimeOfDay(20 * 60), End: model.TimeOfDay(8 * 60)},
	}
}

// For returns the slot times for the given date and shift type, applying
// the first matching override.
func (st ShiftTimes) For(date model.Date, shiftType model.ShiftType) SlotTimes {
	for _, o := range st.Overrides {
		if o.ShiftType != shiftType || o.Rule == nil {
			continue
		}
		dayStart := date.At(0)
		dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)
		if len(o.Rule.Between(dayStart, dayEnd, true)) > 0 {
			return o.Times
		}
	}
	if shiftType == model.ShiftDay {
		return st.Day
	}
	return st.Night
}
