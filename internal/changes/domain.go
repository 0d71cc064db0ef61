package changes

import "time"

// Status tracks a change order from field discovery to approval.
type Status string

const (
	StatusPotential Status = "potential"
	StatusPriced    Status = "priced"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPotential, StatusPriced, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ChangeOrder captures scope changes: the field records what changed and
// why, the office prices and submits it. The change number is a
// per-project sequence assigned at creation.
type ChangeOrder struct {
	ID                      int64
	ProjectID               int64
	ChangeNumber            int
	WhatChanged             string
	WhyChanged              string
	Location                string
	TimeMaterialImpact      string
	Status                  Status
	PricedAmount            float64
	ScheduleImpactDays      int
	ScheduleImpactStatement string
	ApprovedAmount          float64
	ApprovedAt              *time.Time
	SubmittedByID           int64
	PricedByID              int64
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
