package itinerary

// Mode tells whether a proof made it onto the ledger.
type Mode string

const (
	ModeOnChain  Mode = "ONCHAIN"
	ModeFallback Mode = "FALLBACK"
)

// Proof binds a subject to a trip. Value is the hex digest of the other
// four fields.
type Proof struct {
	SubjectID   string
	DisplayName string
	TripStart   string
	TripEnd     string
	Value       string
}

// Registration is a Proof plus the ledger outcome. TransactionRef is set
// iff Mode is ModeOnChain.
type Registration struct {
	Proof
	Mode           Mode
	TransactionRef *string
	ExplorerURL    string
	Stage          Stage
	Attempts       int
}

// Stage is a step of the ledger protocol.
type Stage string

const (
	StageEstimating     Stage = "ESTIMATING"
	StageQuoting        Stage = "QUOTING"
	StageSequencing     Stage = "SEQUENCING"
	StageSubmitting     Stage = "SUBMITTING"
	StageConfirmed      Stage = "CONFIRMED"
	StageFailedFallback Stage = "FAILED_FALLBACK"
)

// GenerateRequest is the inbound identity request.
type GenerateRequest struct {
	SubjectID   string
	DisplayName string
	TripStart   string
	TripEnd     string
}
