package httptransport

type BlockingReasonDTO struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type GateResultResponse struct {
	Allowed         bool                `json:"allowed"`
	BlockingReasons []BlockingReasonDTO `json:"blocking_reasons"`
}

type PermitSubmissionDTO struct {
	SubmissionID string `json:"submission_id"`
	ProjectID    string `json:"project_id"`
	SubmittedBy  string `json:"submitted_by"`
	Status       string `json:"status"`
	SubmittedAt  string `json:"submitted_at"`
}

type SubmitPermitResponse struct {
	Item PermitSubmissionDTO `json:"item"`
}

type ListPermitSubmissionsResponse struct {
	Items []PermitSubmissionDTO `json:"items"`
}

type SubmitReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

type ReviewDTO struct {
	ReviewID   string `json:"review_id"`
	ProjectID  string `json:"project_id"`
	ReviewerID string `json:"reviewer_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type SubmitReviewResponse struct {
	Item ReviewDTO `json:"item"`
}

type ListReviewsResponse struct {
	Items []ReviewDTO `json:"items"`
}

type ErrorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Reasons []BlockingReasonDTO `json:"reasons,omitempty"`
}
