package services

import (
	"context"

	"booking-engine/internal/repository"
	"booking-engine/models"
)

// ReportService derives read-only attendance views for dashboards.
type ReportService struct {
	store repository.ReportRepository
}

func NewReportService(store repository.ReportRepository) *ReportService {
	return &ReportService{store: store}
}

func (s *ReportService) EventSummary(ctx context.Context, eventID string) (models.AttendanceSummary, error) {
	counts, err := s.store.CountAttendance(ctx, eventID)
	if err != nil {
		return models.AttendanceSummary{}, err
	}

	return models.AttendanceSummary{
		EventID:        eventID,
		TotalTickets:   counts.Total,
		PresentCount:   counts.Present,
		AbsentCount:    counts.Absent,
		UnmarkedCount:  counts.Total - counts.Present - counts.Absent,
		AttendanceRate: models.Rate(counts.Present, counts.Total),
	}, nil
}

func (s *ReportService) CityRollups(ctx context.Context) ([]models.CityAttendance, error) {
	rows, err := s.store.CountAttendanceByCity(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.CityAttendance, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.CityAttendance{
			City:           row.City,
			Events:         row.Events,
			TotalTickets:   row.Total,
			PresentCount:   row.Present,
			AbsentCount:    row.Absent,
			AttendanceRate: models.Rate(row.Present, row.Total),
		})
	}
	return out, nil
}
