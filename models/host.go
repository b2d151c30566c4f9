package models

type Host struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	IsVerified bool   `json:"is_verified"`
	IsActive   bool   `json:"is_active"`
}

// HostEvent is one host-to-event assignment with its capability flags.
type HostEvent struct {
	ID             string `json:"id"`
	HostID         string `json:"host_id"`
	EventID        string `json:"event_id"`
	MarkAttendance bool   `json:"mark_attendance"`
	ViewBookings   bool   `json:"view_bookings"`
	CreateEvents   bool   `json:"create_events"`
}

// Session identifies the caller of a host-scoped operation. It is passed
// explicitly to every call instead of being read from ambient state.
type Session struct {
	UserID  string `json:"user_id"`
	HostID  string `json:"host_id,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

// Has reports whether the assignment grants the named capability flag.
func (h HostEvent) Has(capability string) bool {
	switch capability {
	case "mark_attendance":
		return h.MarkAttendance
	case "view_bookings":
		return h.ViewBookings
	case "create_events":
		return h.CreateEvents
	}
	return false
}
