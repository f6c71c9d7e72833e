package routing

import (
	"context"
	"encoding/json"
	"fmt"

	"intake/internal/casesystem"
	"intake/internal/classify"
	"intake/internal/domain/event"
	"intake/internal/domain/ledger"
	"intake/internal/domain/workitem"
	"intake/internal/emitter"
	ownershipresolver "intake/internal/ownership"
)

const FamilyDocument = "document"

// DocumentWork is the payload of a document routing work item. Ownership
// tells the routing step which systems already hold a case.
type DocumentWork struct {
	EventID    string   `json:"event_id"`
	DocumentID string   `json:"document_id"`
	Theme      string   `json:"theme"`
	Channel    string   `json:"channel"`
	Forms      []string `json:"forms,omitempty"`
	Ownership  string   `json:"ownership"`
}

// DocumentStrategy routes document registrations. Documents are always
// routed when they qualify; ownership only marks them.
type DocumentStrategy struct {
	documents casesystem.Documents
	resolver  OwnershipResolver
}

func NewDocumentStrategy(documents casesystem.Documents, resolver OwnershipResolver) *DocumentStrategy {
	return &DocumentStrategy{documents: documents, resolver: resolver}
}

func (s *DocumentStrategy) Family() string            { return FamilyDocument }
func (s *DocumentStrategy) Consumer() ledger.Consumer { return ledger.ConsumerJournal }

func (s *DocumentStrategy) Decode(msg event.Message) (event.Event[event.DocumentRecord], error) {
	var rec event.DocumentRecord
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return event.Event[event.DocumentRecord]{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rec.EventID == "" {
		return event.Event[event.DocumentRecord]{}, fmt.Errorf("%w: missing event id", ErrMalformed)
	}
	return event.Event[event.DocumentRecord]{
		ID:           rec.EventID,
		PartitionKey: string(msg.Key),
		Category:     event.CategoryDocumentRegistration,
		Subtype:      classify.DocumentSubtype(rec.EventType),
		Offset:       msg.Offset,
		OccurredAt:   msg.Time,
		Payload:      rec,
	}, nil
}

func (s *DocumentStrategy) Classify(ev event.Event[event.DocumentRecord]) bool {
	return classify.Document(ev)
}

func (s *DocumentStrategy) Decide(ctx context.Context, ev event.Event[event.DocumentRecord]) (Decision, error) {
	rec := ev.Payload
	base := Decision{Metadata: map[string]string{
		"document_id": rec.DocumentID,
		"event_type":  rec.EventType,
	}}

	doc, err := s.documents.FetchDocument(ctx, rec.DocumentID)
	if err != nil {
		return Decision{}, fmt.Errorf("fetch document: %w", err)
	}
	if ok, reason := classify.RoutableDocument(doc); !ok {
		return ignore(base, reason), nil
	}

	marking := ""
	if ident, ok := doc.PersonSubject(); ok {
		base.Subject = &ident
		res, err := s.resolver.Resolve(ctx, ownershipresolver.Subject{Ident: ident})
		if err != nil {
			return Decision{}, err
		}
		marking = res.Marking()
		base.Metadata["verdict"] = res.Combined.String()
	}

	dec := base
	dec.Action = Act
	dec.Reason = "route " + doc.Theme
	dec.Work = &emitter.Request{
		Type: documentWorkType(doc.Theme),
		Payload: DocumentWork{
			EventID:    ev.ID,
			DocumentID: doc.ID,
			Theme:      doc.Theme,
			Channel:    doc.Channel,
			Forms:      doc.Forms,
			Ownership:  marking,
		},
		CorrelationID: ev.ID,
		Metadata:      map[string]string{"consumer": string(ledger.ConsumerJournal), "document_id": doc.ID},
	}
	return dec, nil
}

func documentWorkType(theme string) string {
	if theme == event.ThemeCashForCare {
		return workitem.TypeRouteCashForCareDocument
	}
	return workitem.TypeRouteChildBenefitDocument
}

var _ Strategy[event.DocumentRecord] = (*DocumentStrategy)(nil)
