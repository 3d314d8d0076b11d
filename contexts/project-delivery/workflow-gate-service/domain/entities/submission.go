package entities

import (
	"strings"
	"time"

	domainerrors "groundwork/contexts/project-delivery/workflow-gate-service/domain/errors"
)

type PermitSubmissionStatus string

const (
	PermitSubmissionStatusSubmitted PermitSubmissionStatus = "submitted"
)

// PermitSubmission records a permit package handoff that passed the gate.
type PermitSubmission struct {
	SubmissionID string
	ProjectID    string
	SubmittedBy  string
	Status       PermitSubmissionStatus
	SubmittedAt  time.Time
}

func NewPermitSubmission(submissionID, projectID, submittedBy string, submittedAt time.Time) (PermitSubmission, error) {
	if strings.TrimSpace(submissionID) == "" ||
		strings.TrimSpace(projectID) == "" ||
		strings.TrimSpace(submittedBy) == "" {
		return PermitSubmission{}, domainerrors.ErrInvalidInput
	}
	return PermitSubmission{
		SubmissionID: submissionID,
		ProjectID:    projectID,
		SubmittedBy:  submittedBy,
		Status:       PermitSubmissionStatusSubmitted,
		SubmittedAt:  submittedAt.UTC(),
	}, nil
}

// Review is a client review recorded after project closeout.
type Review struct {
	ReviewID   string
	ProjectID  string
	ReviewerID string
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

func NewReview(reviewID, projectID, reviewerID string, rating int, comment string, createdAt time.Time) (Review, error) {
	if strings.TrimSpace(reviewID) == "" ||
		strings.TrimSpace(projectID) == "" ||
		strings.TrimSpace(reviewerID) == "" {
		return Review{}, domainerrors.ErrInvalidInput
	}
	if rating < 1 || rating > 5 {
		return Review{}, domainerrors.ErrInvalidInput
	}
	return Review{
		ReviewID:   reviewID,
		ProjectID:  projectID,
		ReviewerID: reviewerID,
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
		CreatedAt:  createdAt.UTC(),
	}, nil
}
