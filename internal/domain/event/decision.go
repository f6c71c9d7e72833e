package event

// Benefit types on partner-decision events.
const (
	BenefitTransitional = "OVERGANGSSTØNAD"
	LegacyBenefitEF     = "EF"
)

// DecisionRecord is a decision from the partner system.
type DecisionRecord struct {
	DecisionID  int64  `json:"behandlingId"`
	PersonIdent string `json:"personIdent"`
	BenefitType string `json:"stønadType"`
}

// LegacyDecisionRecord is a partner decision relayed from the legacy system.
type LegacyDecisionRecord struct {
	EventID     string  `json:"hendelseId"`
	PersonIdent string  `json:"personIdent"`
	BenefitType string  `json:"typeYtelse"`
	Rate        float64 `json:"sats"`
}
