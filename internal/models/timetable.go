package models

import "time"

// Weekdays enumerates the school days a slot may be placed on.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// ValidWeekday reports whether the given day is a school day.
func ValidWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// TimetableSlot is one recurring lesson in the weekly timetable.
type TimetableSlot struct {
	ID        string    `db:"id" json:"id"`
	Day       string    `db:"day" json:"day"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Subject   string    `db:"subject" json:"subject"`
	Room      string    `db:"room" json:"room"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
