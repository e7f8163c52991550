package models

import "time"

// TransportModes enumerates how a student travels to school.
var TransportModes = []string{"Bus", "Taxi", "Foot", "Car", "Other"}

// ValidTransportMode reports whether the mode is one of the known options.
func ValidTransportMode(mode string) bool {
	for _, m := range TransportModes {
		if m == mode {
			return true
		}
	}
	return false
}

// Transport is the one-to-one transport record of a student. Position is
// overwritten in place by periodic updates, last writer wins.
type Transport struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Mode      string    `db:"mode" json:"mode"`
	Driver    string    `db:"driver" json:"driver,omitempty"`
	BusNumber string    `db:"bus_number" json:"bus_number,omitempty"`
	Latitude  *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64  `db:"longitude" json:"longitude,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TransportDetail joins a transport record with the student identity.
type TransportDetail struct {
	Transport
	StudentFirstName string `db:"student_first_name" json:"student_first_name"`
	StudentLastName  string `db:"student_last_name" json:"student_last_name"`
	ClassLevel       string `db:"class_level" json:"class_level"`
}
