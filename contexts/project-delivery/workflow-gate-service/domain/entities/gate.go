package entities

// BlockingReasonType identifies one category of unmet gate precondition.
type BlockingReasonType string

const (
	ReasonContractNotSigned             BlockingReasonType = "contract_not_signed"
	ReasonDesignNotApproved             BlockingReasonType = "design_not_approved"
	ReasonReadinessIncomplete           BlockingReasonType = "readiness_incomplete"
	ReasonProjectNotCompleted           BlockingReasonType = "project_not_completed"
	ReasonCloseoutIncomplete            BlockingReasonType = "closeout_incomplete"
	ReasonFinalPaymentPending           BlockingReasonType = "final_payment_pending"
	ReasonVerificationIncomplete        BlockingReasonType = "verification_incomplete"
	ReasonTransactionNotPendingApproval BlockingReasonType = "transaction_not_pending_approval"
	ReasonTransactionNotFound           BlockingReasonType = "transaction_not_found"
)

type Reason struct {
	Type    BlockingReasonType
	Message string
}

// Result is a gate verdict. BlockingReasons carries every unmet condition,
// never just the first.
type Result struct {
	Allowed         bool
	BlockingReasons []Reason
}

// Upstream state snapshots. Read models load these fresh per evaluation;
// a missing upstream entity is Found=false, never an error.

const (
	ContractStatusFullySigned     = "fully_signed"
	DesignStatusApprovedForPermit = "approved_for_permit"
	ProjectStatusCompleted        = "completed"
	CloseoutStatusCompleted       = "completed"
)

type ContractState struct {
	Found  bool
	Status string
}

type DesignState struct {
	Found  bool
	Status string
}

type ReadinessState struct {
	RequiredTotal     int
	RequiredCompleted int
}

type ProjectState struct {
	Found  bool
	Status string
}

type CloseoutState struct {
	Found  bool
	Status string
}

type PaymentState struct {
	FinalPaymentReleased bool
}

type ReleaseState struct {
	Found                bool
	Status               string
	VerificationComplete bool
}
