package models

import (
	"time"
)

// SystemHostID marks attendance records written by the completed-event sweep.
const SystemHostID = "system"

type AttendanceRecord struct {
	ID       string    `json:"id"`
	TicketID string    `json:"ticket_id"`
	EventID  string    `json:"event_id"`
	HostID   string    `json:"host_id"`
	Status   string    `json:"status"` // present, absent
	Notes    string    `json:"notes,omitempty"`
	MarkedAt time.Time `json:"marked_at"`
}

type AttendanceSummary struct {
	EventID        string  `json:"event_id"`
	TotalTickets   int     `json:"total_tickets"`
	PresentCount   int     `json:"present_count"`
	AbsentCount    int     `json:"absent_count"`
	UnmarkedCount  int     `json:"unmarked_count"`
	AttendanceRate float64 `json:"attendance_rate"`
}

type CityAttendance struct {
	City           string  `json:"city"`
	Events         int     `json:"events"`
	TotalTickets   int     `json:"total_tickets"`
	PresentCount   int     `json:"present_count"`
	AbsentCount    int     `json:"absent_count"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// Rate returns present/total, or 0 with no tickets.
func Rate(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(present) / float64(total)
}
