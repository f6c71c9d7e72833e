package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"intake/internal/classify"
	"intake/internal/domain/event"
	"intake/internal/domain/ledger"
	"intake/internal/domain/workitem"
	"intake/internal/emitter"
	ownershipresolver "intake/internal/ownership"
)

const (
	FamilyPartnerDecision       = "partner-decision"
	FamilyLegacyPartnerDecision = "legacy-partner-decision"
)

// PartnerDecisionWork is the payload of a partner decision notification.
type PartnerDecisionWork struct {
	EventID     string `json:"event_id"`
	Source      string `json:"source"`
	DecisionID  int64  `json:"decision_id,omitempty"`
	PersonIdent string `json:"person_ident"`
	BenefitType string `json:"benefit_type"`
	Ownership   string `json:"ownership"`
}

// decidePartner is shared by both partner decision sources: only a case
// in the modern system leads to a notification.
func decidePartner(ctx context.Context, resolver OwnershipResolver, consumer ledger.Consumer, ident string, base Decision, work PartnerDecisionWork) (Decision, error) {
	base.Subject = &ident
	res, err := resolver.Resolve(ctx, ownershipresolver.Subject{Ident: ident})
	if err != nil {
		return Decision{}, err
	}
	dec := base
	dec.Action = byOwnership(res.Combined, Ignore)
	dec.Reason = res.Combined.String()
	dec.Metadata["verdict"] = res.Combined.String()
	if dec.Action != Act {
		return dec, nil
	}
	work.Ownership = res.Marking()
	dec.Work = &emitter.Request{
		Type:          workitem.TypeNotifyPartnerDecision,
		Payload:       work,
		CorrelationID: work.EventID,
		Metadata:      map[string]string{"consumer": string(consumer)},
	}
	return dec, nil
}

// PartnerDecisionStrategy routes decisions made in the partner system.
type PartnerDecisionStrategy struct {
	resolver OwnershipResolver
}

func NewPartnerDecisionStrategy(resolver OwnershipResolver) *PartnerDecisionStrategy {
	return &PartnerDecisionStrategy{resolver: resolver}
}

func (s *PartnerDecisionStrategy) Family() string { return FamilyPartnerDecision }
func (s *PartnerDecisionStrategy) Consumer() ledger.Consumer {
	return ledger.ConsumerPartnerDecision
}

func (s *PartnerDecisionStrategy) Decode(msg event.Message) (event.Event[event.DecisionRecord], error) {
	var rec event.DecisionRecord
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return event.Event[event.DecisionRecord]{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rec.DecisionID == 0 {
		return event.Event[event.DecisionRecord]{}, fmt.Errorf("%w: missing decision id", ErrMalformed)
	}
	return event.Event[event.DecisionRecord]{
		ID:           strconv.FormatInt(rec.DecisionID, 10),
		PartitionKey: string(msg.Key),
		Category:     event.CategoryPartnerDecision,
		Subtype:      event.SubtypeTransitionalBenefitDecision,
		Offset:       msg.Offset,
		OccurredAt:   msg.Time,
		Payload:      rec,
	}, nil
}

func (s *PartnerDecisionStrategy) Classify(ev event.Event[event.DecisionRecord]) bool {
	return classify.PartnerDecision(ev)
}

func (s *PartnerDecisionStrategy) Decide(ctx context.Context, ev event.Event[event.DecisionRecord]) (Decision, error) {
	rec := ev.Payload
	base := Decision{Metadata: map[string]string{
		"decision_id":  ev.ID,
		"benefit_type": rec.BenefitType,
	}}
	return decidePartner(ctx, s.resolver, s.Consumer(), rec.PersonIdent, base, PartnerDecisionWork{
		EventID:     ev.ID,
		Source:      "partner",
		DecisionID:  rec.DecisionID,
		PersonIdent: rec.PersonIdent,
		BenefitType: rec.BenefitType,
	})
}

// LegacyPartnerDecisionStrategy routes partner decisions relayed from the
// legacy system.
type LegacyPartnerDecisionStrategy struct {
	resolver OwnershipResolver
}

func NewLegacyPartnerDecisionStrategy(resolver OwnershipResolver) *LegacyPartnerDecisionStrategy {
	return &LegacyPartnerDecisionStrategy{resolver: resolver}
}

func (s *LegacyPartnerDecisionStrategy) Family() string { return FamilyLegacyPartnerDecision }
func (s *LegacyPartnerDecisionStrategy) Consumer() ledger.Consumer {
	return ledger.ConsumerLegacyPartnerDecision
}

func (s *LegacyPartnerDecisionStrategy) Decode(msg event.Message) (event.Event[event.LegacyDecisionRecord], error) {
	var rec event.LegacyDecisionRecord
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return event.Event[event.LegacyDecisionRecord]{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rec.EventID == "" {
		return event.Event[event.LegacyDecisionRecord]{}, fmt.Errorf("%w: missing event id", ErrMalformed)
	}
	return event.Event[event.LegacyDecisionRecord]{
		ID:           rec.EventID,
		PartitionKey: string(msg.Key),
		Category:     event.CategoryPartnerDecision,
		Subtype:      event.SubtypeLegacyBenefitDecision,
		Offset:       msg.Offset,
		OccurredAt:   msg.Time,
		Payload:      rec,
	}, nil
}

func (s *LegacyPartnerDecisionStrategy) Classify(ev event.Event[event.LegacyDecisionRecord]) bool {
	return classify.LegacyPartnerDecision(ev)
}

func (s *LegacyPartnerDecisionStrategy) Decide(ctx context.Context, ev event.Event[event.LegacyDecisionRecord]) (Decision, error) {
	rec := ev.Payload
	benefit := strings.TrimSpace(rec.BenefitType)
	base := Decision{Metadata: map[string]string{
		"benefit_type": benefit,
		"rate":         strconv.FormatFloat(rec.Rate, 'f', -1, 64),
	}}
	return decidePartner(ctx, s.resolver, s.Consumer(), rec.PersonIdent, base, PartnerDecisionWork{
		EventID:     ev.ID,
		Source:      "legacy",
		PersonIdent: rec.PersonIdent,
		BenefitType: benefit,
	})
}

var (
	_ Strategy[event.DecisionRecord]       = (*PartnerDecisionStrategy)(nil)
	_ Strategy[event.LegacyDecisionRecord] = (*LegacyPartnerDecisionStrategy)(nil)
)
