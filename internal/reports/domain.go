package reports

import "time"

// DailyReport is the field crew's end-of-day record for a project. The
// report number is a per-project sequence assigned at creation.
type DailyReport struct {
	ID                int64
	ProjectID         int64
	ReportNumber      int
	SubmittedByID     int64
	ReportDate        time.Time
	CrewCount         int
	WorkCompleted     string
	DelaysConstraints string
	SafetyIncidents   string
	WeatherConditions string
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
