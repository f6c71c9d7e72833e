package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intake/internal/classify"
	"intake/internal/domain/event"
	"intake/internal/domain/ledger"
	"intake/internal/domain/ownership"
	"intake/internal/domain/workitem"
	"intake/internal/emitter"
	ownershipresolver "intake/internal/ownership"
)

const FamilyLifeEvent = "life-event"

// Scheduler computes the earliest execution time of life-event work.
type Scheduler interface {
	LifeEventNotBefore(occurredAt time.Time) time.Time
}

type LifeEventConfig struct {
	BirthAgeLimitMonths int
	HomeCountry         string
	// Location is the home-country zone; today's date is read in it.
	Location *time.Location
}

// LifeEventWork is the payload of work items caused by a life event.
type LifeEventWork struct {
	EventID        string      `json:"event_id"`
	Subtype        string      `json:"subtype"`
	ChangeType     string      `json:"change_type"`
	PersonIdent    string      `json:"person_ident"`
	BirthDate      *event.Date `json:"birth_date,omitempty"`
	DeathDate      *event.Date `json:"death_date,omitempty"`
	EmigrationDate *event.Date `json:"emigration_date,omitempty"`
	MaritalStatus  string      `json:"marital_status,omitempty"`
	Municipality   string      `json:"municipality,omitempty"`
	Ownership      string      `json:"ownership"`
}

// LifeEventStrategy routes population registry events.
type LifeEventStrategy struct {
	cfg       LifeEventConfig
	resolver  OwnershipResolver
	scheduler Scheduler
	now       func() time.Time
}

func NewLifeEventStrategy(cfg LifeEventConfig, resolver OwnershipResolver, scheduler Scheduler) *LifeEventStrategy {
	if cfg.BirthAgeLimitMonths <= 0 {
		cfg.BirthAgeLimitMonths = 6
	}
	if cfg.HomeCountry == "" {
		cfg.HomeCountry = event.HomeCountry
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &LifeEventStrategy{
		cfg:       cfg,
		resolver:  resolver,
		scheduler: scheduler,
		now:       time.Now,
	}
}

func (s *LifeEventStrategy) Family() string            { return FamilyLifeEvent }
func (s *LifeEventStrategy) Consumer() ledger.Consumer { return ledger.ConsumerPDL }

func (s *LifeEventStrategy) Decode(msg event.Message) (event.Event[event.PersonRecord], error) {
	var rec event.PersonRecord
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return event.Event[event.PersonRecord]{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rec.EventID == "" {
		return event.Event[event.PersonRecord]{}, fmt.Errorf("%w: missing event id", ErrMalformed)
	}
	return event.Event[event.PersonRecord]{
		ID:           rec.EventID,
		PartitionKey: string(msg.Key),
		Category:     event.CategoryPersonLifecycle,
		Subtype:      event.LifeSubtype(rec.InfoType),
		Offset:       msg.Offset,
		OccurredAt:   msg.Time,
		Payload:      rec,
	}, nil
}

func (s *LifeEventStrategy) Classify(ev event.Event[event.PersonRecord]) bool {
	return classify.LifeEvent(ev)
}

func (s *LifeEventStrategy) Decide(ctx context.Context, ev event.Event[event.PersonRecord]) (Decision, error) {
	rec := ev.Payload
	ident, ok := rec.SubjectIdent()
	if !ok {
		return Decision{}, fmt.Errorf("%w: no national identity number among person idents", ErrMalformed)
	}
	base := Decision{Subject: &ident, Metadata: lifeEventMetadata(rec)}

	if rec.ChangeType == event.ChangeAnnulled {
		return s.annul(ev, base)
	}

	switch ev.Subtype {
	case event.SubtypeBirth:
		if rec.ChangeType != event.ChangeCreated && rec.ChangeType != event.ChangeCorrected {
			return ignore(base, "change type not handled"), nil
		}
		if reason, err := s.birthGate(rec); err != nil || reason != "" {
			return ignore(base, reason), err
		}
	case event.SubtypeResidenceChange:
		if rec.ChangeType != event.ChangeCreated && rec.ChangeType != event.ChangeCorrected {
			return ignore(base, "change type not handled"), nil
		}
	case event.SubtypeStayAddressChange:
		if rec.ChangeType != event.ChangeCreated {
			return ignore(base, "change type not handled"), nil
		}
	case event.SubtypeDeath:
		if rec.ChangeType != event.ChangeCreated {
			return ignore(base, "change type not handled"), nil
		}
		if rec.DeathDate == nil {
			return ignore(base, "death date missing"), nil
		}
	case event.SubtypeMaritalChange:
		if rec.ChangeType != event.ChangeCreated {
			return ignore(base, "change type not handled"), nil
		}
		if rec.MaritalStatus == nil || *rec.MaritalStatus != event.MaritalStatusMarried {
			return ignore(base, "marital status not handled"), nil
		}
	case event.SubtypeEmigration:
		if rec.ChangeType != event.ChangeCreated {
			return ignore(base, "change type not handled"), nil
		}
	default:
		return ignore(base, "subtype not handled"), nil
	}

	res, err := s.resolver.Resolve(ctx, ownershipresolver.Subject{Ident: ident, RelatedParties: rec.RelatedParties})
	if err != nil {
		return Decision{}, err
	}

	// A newborn without any case anywhere is a new application.
	whenNone := Ignore
	if ev.Subtype == event.SubtypeBirth {
		whenNone = Act
	}
	dec := base
	dec.Action = byOwnership(res.Combined, whenNone)
	dec.Reason = res.Combined.String()
	dec.Metadata["verdict"] = res.Combined.String()
	if dec.Action != Act {
		return dec, nil
	}

	dec.Work = &emitter.Request{
		Type:          lifeEventWorkType(ev.Subtype),
		Payload:       lifeEventWork(ev, ident, res),
		CorrelationID: ev.ID,
		Metadata:      map[string]string{"consumer": string(ledger.ConsumerPDL), "subtype": string(ev.Subtype)},
	}
	notBefore := s.scheduler.LifeEventNotBefore(ev.OccurredAt)
	dec.Work.NotBefore = &notBefore
	return dec, nil
}

func (s *LifeEventStrategy) annul(ev event.Event[event.PersonRecord], base Decision) (Decision, error) {
	prior := ev.Payload.PriorEventID
	if prior == nil || *prior == "" {
		return ignore(base, "annulment without prior event"), nil
	}
	if *prior == ev.ID {
		return Decision{}, fmt.Errorf("%w: annulment %s references itself", ErrInvariant, ev.ID)
	}
	dec := base
	dec.Action = Void
	dec.Reason = "annulled"
	dec.VoidCorrelationID = *prior
	dec.VoidTypes = []string{lifeEventWorkType(ev.Subtype)}
	dec.Metadata["prior_event_id"] = *prior
	return dec, nil
}

// birthGate returns a reason when the birth is out of scope.
func (s *LifeEventStrategy) birthGate(rec event.PersonRecord) (string, error) {
	if rec.BirthDate == nil {
		return "birth date missing", nil
	}
	today := event.DateIn(s.now(), s.cfg.Location)
	if rec.BirthDate.After(today.Time) {
		return "", fmt.Errorf("%w: birth date %s is in the future", ErrInvariant, rec.BirthDate)
	}
	if !today.Before(rec.BirthDate.AddDate(0, s.cfg.BirthAgeLimitMonths, 0)) {
		return "child above age limit", nil
	}
	if !rec.BornIn(s.cfg.HomeCountry) {
		return "born abroad", nil
	}
	return "", nil
}

func lifeEventWorkType(subtype event.Subtype) string {
	switch subtype {
	case event.SubtypeBirth:
		return workitem.TypeEvaluateBenefitEligibility
	case event.SubtypeResidenceChange, event.SubtypeStayAddressChange:
		return workitem.TypeEvaluateRegionalSupplement
	}
	return workitem.TypeEvaluateLifeEvent
}

func lifeEventWork(ev event.Event[event.PersonRecord], ident string, res ownership.Resolution) LifeEventWork {
	rec := ev.Payload
	w := LifeEventWork{
		EventID:        ev.ID,
		Subtype:        string(ev.Subtype),
		ChangeType:     rec.ChangeType,
		PersonIdent:    ident,
		BirthDate:      rec.BirthDate,
		DeathDate:      rec.DeathDate,
		EmigrationDate: rec.EmigrationDate,
		Ownership:      res.Marking(),
	}
	if rec.MaritalStatus != nil {
		w.MaritalStatus = *rec.MaritalStatus
	}
	if rec.Municipality != nil {
		w.Municipality = *rec.Municipality
	}
	return w
}

func lifeEventMetadata(rec event.PersonRecord) map[string]string {
	m := map[string]string{
		"actor_id":    rec.ActorID,
		"info_type":   rec.InfoType,
		"change_type": rec.ChangeType,
	}
	if rec.BirthCountry != nil {
		m["birth_country"] = *rec.BirthCountry
	}
	return m
}

func ignore(base Decision, reason string) Decision {
	base.Action = Ignore
	base.Reason = reason
	return base
}

var _ Strategy[event.PersonRecord] = (*LifeEventStrategy)(nil)
