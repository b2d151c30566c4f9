package services

import (
	"context"
	"errors"
	"fmt"

	"booking-engine/internal/repository"
	"booking-engine/internal/status"
	"booking-engine/models"
)

// Capability names a host_events flag.
type Capability string

const (
	CapMarkAttendance Capability = "mark_attendance"
	CapViewBookings   Capability = "view_bookings"
)

// Authorizer answers host capability questions for an explicit session.
type Authorizer struct {
	hosts repository.HostRepository
}

func NewAuthorizer(hosts repository.HostRepository) *Authorizer {
	return &Authorizer{hosts: hosts}
}

// Require returns nil when the session may use capability on eventID.
// Admins may do everything; hosts need an active host row and an assignment
// with the capability set.
func (a *Authorizer) Require(ctx context.Context, session models.Session, eventID string, capability Capability) error {
	if session.IsAdmin {
		return nil
	}
	if session.UserID == "" {
		return status.ErrUnauthorized
	}

	hostID := session.HostID
	if hostID == "" {
		host, err := a.hosts.FindHostByUser(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, status.ErrForbidden) {
				return fmt.Errorf("%w: user %s is not a host", status.ErrForbidden, session.UserID)
			}
			return err
		}
		if !host.IsActive {
			return fmt.Errorf("%w: host %s is inactive", status.ErrForbidden, host.ID)
		}
		hostID = host.ID
	}

	assignment, err := a.hosts.GetAssignment(ctx, hostID, eventID)
	if err != nil {
		return err
	}
	if assignment == nil || !assignment.Has(string(capability)) {
		return fmt.Errorf("%w: %s on event %s", status.ErrForbidden, capability, eventID)
	}
	return nil
}

// ResolveHost fills in session.HostID for a host user. Admin sessions and
// users without a host row are returned unchanged.
func (a *Authorizer) ResolveHost(ctx context.Context, session models.Session) models.Session {
	if session.HostID != "" || session.UserID == "" {
		return session
	}
	if host, err := a.hosts.FindHostByUser(ctx, session.UserID); err == nil {
		session.HostID = host.ID
	}
	return session
}
