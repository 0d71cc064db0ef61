package rfis

import "time"

// Status tracks the RFI workflow from field draft to closed answer.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusRouted    Status = "routed"
	StatusAnswered  Status = "answered"
	StatusClosed    Status = "closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusRouted, StatusAnswered, StatusClosed:
		return true
	}
	return false
}

// RFI is a request for information raised from the field. The RFI number
// is a per-project sequence assigned at creation.
type RFI struct {
	ID                  int64
	ProjectID           int64
	RFINumber           int
	Question            string
	Location            string
	WhatNeededToProceed string
	Status              Status
	RoutedTo            string
	Answer              string
	AnsweredByID        int64
	AnsweredAt          *time.Time
	SubmittedByID       int64
	CostImpact          float64
	ScheduleImpactDays  int
	DueDate             *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
