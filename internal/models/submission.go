package models

import "time"

type SubmissionStatus string

const (
	SubmissionSubmitted   SubmissionStatus = "Submitted"
	SubmissionUnderReview SubmissionStatus = "UnderReview"
	SubmissionAccepted    SubmissionStatus = "Accepted"
	SubmissionRejected    SubmissionStatus = "Rejected"
)

func ParseSubmissionStatus(s string) (SubmissionStatus, bool) {
	switch SubmissionStatus(s) {
	case SubmissionSubmitted, SubmissionUnderReview, SubmissionAccepted, SubmissionRejected:
		return SubmissionStatus(s), true
	}
	return "", false
}

// Submission is a filed tax form awaiting review.
type Submission struct {
	ID              string           `json:"submissionId"`
	OwnerID         string           `json:"userId"`
	FormType        string           `json:"formType"`
	Status          SubmissionStatus `json:"status"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// SubmissionFilter narrows admin submission listings. Zero values mean "any".
type SubmissionFilter struct {
	Status   SubmissionStatus
	OwnerID  string
	FormType string
	Page     int
	Limit    int
}

// SubmissionStat is one row of the by-status submission aggregation.
type SubmissionStat struct {
	Status SubmissionStatus `json:"status"`
	Count  int              `json:"count"`
}

// MonthlyStat is one row of the monthly-activity aggregation.
type MonthlyStat struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}
