// Package casesystem holds the contracts of the external systems the
// routers consult, and REST clients for them.
package casesystem

import (
	"context"
	"errors"

	"intake/internal/domain/event"
)

// ErrUnavailable signals that a system could not answer. It is never the
// same as "the subject has no case".
var ErrUnavailable = errors.New("case system unavailable")

type ModernCaseStatus string

const (
	ModernOpen       ModernCaseStatus = "OPEN"
	ModernActivePaid ModernCaseStatus = "ACTIVE_PAID"
	ModernClosed     ModernCaseStatus = "CLOSED"
)

// Reasons the last finished step of a closed modern case can carry.
const (
	StepWithdrawn         = "WITHDRAWN"
	StepTechnicalReversal = "TECHNICAL_REVERSAL"
)

type ModernCase struct {
	ID               int64            `json:"id"`
	Status           ModernCaseStatus `json:"status"`
	LastFinishedStep string           `json:"last_finished_step,omitempty"`
}

// ModernStatus is the answer of the modern system for one subject.
type ModernStatus struct {
	Cases          []ModernCase `json:"cases"`
	RelatedParties []string     `json:"related_parties"`
}

// Legacy status codes and termination reasons.
const (
	LegacyStatusFinished = "FB"
	ReasonMigrated       = "5"
)

type LegacyDecision struct {
	Date              event.Date `json:"date"`
	TerminationReason string     `json:"termination_reason,omitempty"`
}

type LegacyCase struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Decision *LegacyDecision `json:"decision,omitempty"`
}

// LegacyStatus is the answer of the legacy system for one subject.
type LegacyStatus struct {
	Cases []LegacyCase `json:"cases"`
}

type ModernCases interface {
	QueryModernCaseStatus(ctx context.Context, subject string) (ModernStatus, error)
}

type LegacyCases interface {
	QueryLegacyCaseStatus(ctx context.Context, subject string) (LegacyStatus, error)
}

// Document types, statuses and subject id types from the archive.
const (
	DocumentIncoming = "I"
	DocumentReceived = "MOTTATT"

	SubjectPersonIdent = "FNR"
	SubjectActorID     = "AKTOERID"
	SubjectOrgNumber   = "ORGNR"

	ChannelScanPrefix = "SKAN_"
	ChannelDigital    = "NAV_NO"
)

type DocumentSubject struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type Document struct {
	ID      string           `json:"id"`
	Type    string           `json:"type"`
	Status  string           `json:"status"`
	Theme   string           `json:"theme"`
	Channel string           `json:"channel"`
	Subject *DocumentSubject `json:"subject,omitempty"`
	Forms   []string         `json:"forms,omitempty"`
}

// PersonSubject returns the subject's identifier unless the document was
// sent by an organisation.
func (d Document) PersonSubject() (string, bool) {
	if d.Subject == nil || d.Subject.ID == "" || d.Subject.Type == SubjectOrgNumber {
		return "", false
	}
	return d.Subject.ID, true
}

type Documents interface {
	FetchDocument(ctx context.Context, documentID string) (Document, error)
}
