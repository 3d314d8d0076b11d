package entities

import "time"

type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusCompleted  MilestoneStatus = "completed"
	MilestoneStatusPaid       MilestoneStatus = "paid"
)

// Milestone is a contract deliverable gating one release transaction.
// Amount is a pointer because unpriced milestones exist on some contracts
// and must be rejected as release targets, not defaulted to zero.
type Milestone struct {
	MilestoneID string
	ContractID  string
	Title       string
	Amount      *float64
	Status      MilestoneStatus
	UpdatedAt   time.Time
}

func (m Milestone) Priced() bool {
	return m.Amount != nil && *m.Amount > 0
}
