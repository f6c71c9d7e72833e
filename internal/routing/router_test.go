package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"intake/internal/casesystem"
	"intake/internal/domain/event"
	"intake/internal/domain/ledger"
	"intake/internal/domain/ownership"
	"intake/internal/domain/workitem"
	"intake/internal/emitter"
	"intake/internal/infrastructure/memory"
	"intake/internal/metrics"
	ownershipresolver "intake/internal/ownership"
)

const (
	child  = "01022412345"
	parent = "12128512345"
)

var testNow = time.Date(2024, 4, 10, 9, 30, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fixedResolver struct {
	res   ownership.Resolution
	err   error
	calls int
}

func (f *fixedResolver) Resolve(context.Context, ownershipresolver.Subject) (ownership.Resolution, error) {
	f.calls++
	return f.res, f.err
}

func resolved(modern, legacy ownership.Kind) *fixedResolver {
	return &fixedResolver{res: ownership.Combine(modern, legacy)}
}

func newEmitter(store *memory.Store) *emitter.Emitter {
	return emitter.New(store, time.Hour, testLogger())
}

func setupRouter[T any](t *testing.T, strategy Strategy[T]) (*Router[T], *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewRouter[T](strategy, store, newEmitter(store), store, metrics.Nop{}, testLogger()), store
}

type fixedDelay time.Duration

func (d fixedDelay) LifeEventNotBefore(occurredAt time.Time) time.Time {
	return occurredAt.Add(time.Duration(d)).UTC()
}

func lifeStrategy(resolver OwnershipResolver) *LifeEventStrategy {
	s := NewLifeEventStrategy(LifeEventConfig{}, resolver, fixedDelay(time.Hour))
	s.now = func() time.Time { return testNow }
	return s
}

func message(t *testing.T, offset int64, v any) event.Message {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return event.Message{Topic: "test", Offset: offset, Key: []byte("key"), Value: b, Time: testNow}
}

func ptr[T any](v T) *T { return &v }

func dateOf(t time.Time) *event.Date {
	d := event.NewDate(t.Year(), t.Month(), t.Day())
	return &d
}

func birth(id string, born time.Time) event.PersonRecord {
	return event.PersonRecord{
		EventID:        id,
		ActorID:        "2000000000001",
		InfoType:       event.InfoTypeBirth,
		ChangeType:     event.ChangeCreated,
		PersonIdents:   []string{"2000000000001", child},
		RelatedParties: []string{parent},
		BirthDate:      dateOf(born),
		BirthCountry:   ptr("NOR"),
	}
}

// Modern system: the child has no case, the parent has an open one.
type modernByIdent map[string]casesystem.ModernStatus

func (m modernByIdent) QueryModernCaseStatus(_ context.Context, ident string) (casesystem.ModernStatus, error) {
	return m[ident], nil
}

type noLegacy struct{}

func (noLegacy) QueryLegacyCaseStatus(context.Context, string) (casesystem.LegacyStatus, error) {
	return casesystem.LegacyStatus{}, nil
}

func TestBirthOfChildWithParentCaseSchedulesEligibilityCheck(t *testing.T) {
	resolver := ownershipresolver.NewResolver(
		modernByIdent{
			child:  {RelatedParties: []string{parent}},
			parent: {Cases: []casesystem.ModernCase{{ID: 1, Status: casesystem.ModernOpen}}},
		},
		noLegacy{},
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		metrics.Nop{},
		testLogger(),
	)
	router, store := setupRouter[event.PersonRecord](t, lifeStrategy(resolver))

	res := router.Route(context.Background(), message(t, 7, birth("e-1", testNow.AddDate(0, -2, 0))))
	if res.Kind != Handled || res.Outcome != "act" {
		t.Fatalf("expected handled act, got %v %q (%v)", res.Kind, res.Outcome, res.Err)
	}

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 work item, got %d", len(items))
	}
	item := items[0]
	if item.Type != workitem.TypeEvaluateBenefitEligibility {
		t.Errorf("unexpected type %s", item.Type)
	}
	if item.ScheduledNotBefore == nil || !item.ScheduledNotBefore.Equal(testNow.Add(time.Hour)) {
		t.Errorf("expected not before %s, got %v", testNow.Add(time.Hour), item.ScheduledNotBefore)
	}
	if item.CorrelationID != "e-1" || item.AttemptsAllowed != 3 {
		t.Errorf("unexpected item %+v", item)
	}

	var work LifeEventWork
	if err := json.Unmarshal(item.Payload, &work); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if work.PersonIdent != child || work.Ownership != "modern" {
		t.Errorf("unexpected payload %+v", work)
	}

	entries := store.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].Consumer != ledger.ConsumerPDL || entries[0].Offset != 7 {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if entries[0].Subject == nil || *entries[0].Subject != child {
		t.Errorf("expected subject %s, got %v", child, entries[0].Subject)
	}
}

func TestRedeliveryIsNoOp(t *testing.T) {
	resolver := resolved(ownership.SubjectIsApplicant, ownership.None)
	router, store := setupRouter[event.PersonRecord](t, lifeStrategy(resolver))
	msg := message(t, 1, birth("e-1", testNow.AddDate(0, -1, 0)))

	first := router.Route(context.Background(), msg)
	second := router.Route(context.Background(), msg)

	if first.Kind != Handled {
		t.Fatalf("first delivery: %v %v", first.Kind, first.Err)
	}
	if second.Kind != Ignored || second.Outcome != OutcomeDuplicate {
		t.Fatalf("second delivery: %v %q", second.Kind, second.Outcome)
	}
	if !second.Acknowledge() {
		t.Error("duplicate must be acknowledged")
	}
	if n := len(store.Items()); n != 1 {
		t.Errorf("expected 1 work item, got %d", n)
	}
	if n := len(store.Entries()); n != 1 {
		t.Errorf("expected 1 ledger entry, got %d", n)
	}
	if resolver.calls != 1 {
		t.Errorf("expected ownership resolved once, got %d", resolver.calls)
	}
}

func TestUnrecognisedLifeEventsLeaveNoTrace(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *event.PersonRecord)
	}{
		{"unknown info type", func(r *event.PersonRecord) { r.InfoType = "NAVN_V1" }},
		{"unknown change type", func(r *event.PersonRecord) { r.ChangeType = "SLETTET" }},
		{"empty info type", func(r *event.PersonRecord) { r.InfoType = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := resolved(ownership.SubjectIsApplicant, ownership.None)
			router, store := setupRouter[event.PersonRecord](t, lifeStrategy(resolver))
			rec := birth("e-1", testNow.AddDate(0, -1, 0))
			tt.modify(&rec)

			res := router.Route(context.Background(), message(t, 1, rec))
			if res.Kind != Ignored || res.Outcome != OutcomeIrrelevant {
				t.Fatalf("expected irrelevant, got %v %q", res.Kind, res.Outcome)
			}
			if len(store.Entries()) != 0 || len(store.Items()) != 0 {
				t.Error("irrelevant event left a ledger entry or work item")
			}
			if resolver.calls != 0 {
				t.Error("ownership resolved for irrelevant event")
			}
		})
	}
}

func TestLifeEventGates(t *testing.T) {
	tests := []struct {
		name     string
		rec      event.PersonRecord
		resolver *fixedResolver
		outcome  string
		recorded bool
		items    int
	}{
		{
			name: "born abroad with parent case",
			rec: func() event.PersonRecord {
				r := birth("e-1", testNow.AddDate(0, -1, 0))
				r.BirthCountry = ptr("SWE")
				return r
			}(),
			resolver: resolved(ownership.SubjectIsRelatedParty, ownership.None),
			outcome:  "ignore",
			recorded: true,
		},
		{
			name:     "seven months old",
			rec:      birth("e-1", testNow.AddDate(0, -7, 0)),
			resolver: resolved(ownership.SubjectIsRelatedParty, ownership.None),
			outcome:  "ignore",
			recorded: true,
		},
		{
			name:     "born in the future",
			rec:      birth("e-1", testNow.AddDate(0, 0, 3)),
			resolver: resolved(ownership.None, ownership.None),
			outcome:  OutcomeDropped,
		},
		{
			name:     "greenfield birth",
			rec:      birth("e-1", testNow.AddDate(0, -5, 0)),
			resolver: resolved(ownership.None, ownership.None),
			outcome:  "act",
			recorded: true,
			items:    1,
		},
		{
			name:     "birth with legacy case",
			rec:      birth("e-1", testNow.AddDate(0, -5, 0)),
			resolver: resolved(ownership.None, ownership.SubjectIsRelatedParty),
			outcome:  "delegate",
			recorded: true,
		},
		{
			name: "death without date",
			rec: event.PersonRecord{
				EventID: "e-2", InfoType: event.InfoTypeDeath, ChangeType: event.ChangeCreated,
				PersonIdents: []string{parent},
			},
			resolver: resolved(ownership.SubjectIsApplicant, ownership.None),
			outcome:  "ignore",
			recorded: true,
		},
		{
			name: "death in modern case",
			rec: event.PersonRecord{
				EventID: "e-2", InfoType: event.InfoTypeDeath, ChangeType: event.ChangeCreated,
				PersonIdents: []string{parent}, DeathDate: dateOf(testNow),
			},
			resolver: resolved(ownership.SubjectIsApplicant, ownership.None),
			outcome:  "act",
			recorded: true,
			items:    1,
		},
		{
			name: "death without any case",
			rec: event.PersonRecord{
				EventID: "e-2", InfoType: event.InfoTypeDeath, ChangeType: event.ChangeCreated,
				PersonIdents: []string{parent}, DeathDate: dateOf(testNow),
			},
			resolver: resolved(ownership.None, ownership.None),
			outcome:  "ignore",
			recorded: true,
		},
		{
			name: "divorce",
			rec: event.PersonRecord{
				EventID: "e-3", InfoType: event.InfoTypeMarital, ChangeType: event.ChangeCreated,
				PersonIdents: []string{parent}, MaritalStatus: ptr("SKILT"),
			},
			resolver: resolved(ownership.SubjectIsApplicant, ownership.None),
			outcome:  "ignore",
			recorded: true,
		},
		{
			name: "marriage",
			rec: event.PersonRecord{
				EventID: "e-3", InfoType: event.InfoTypeMarital, ChangeType: event.ChangeCreated,
				PersonIdents: []string{parent}, MaritalStatus: ptr(event.MaritalStatusMarried),
			},
			resolver: resolved(ownership.SubjectIsApplicant, ownership.None),
			outcome:  "act",
			recorded: true,
			items:    1,
		},
		{
			name: "emigration in legacy case",
			rec: event.PersonRecord{
				EventID: "e-4", InfoType: event.InfoTypeEmigration, ChangeType: event.ChangeCreated,
				PersonIdents: []string{parent},
			},
			resolver: resolved(ownership.None, ownership.SubjectIsApplicant),
			outcome:  "delegate",
			recorded: true,
		},
		{
			name: "corrected emigration",
			rec: event.PersonRecord{
				EventID: "e-4", InfoType: event.InfoTypeEmigration, ChangeType: event.ChangeCorrected,
				PersonIdents: []string{parent},
			},
			resolver: resolved(ownership.SubjectIsApplicant, ownership.None),
			outcome:  "ignore",
			recorded: true,
		},
		{
			name: "stay address registered",
			rec: event.PersonRecord{
				EventID: "e-6", InfoType: event.InfoTypeStay, ChangeType: event.ChangeCreated,
				PersonIdents: []string{parent},
			},
			resolver: resolved(ownership.SubjectIsApplicant, ownership.None),
			outcome:  "act",
			recorded: true,
			items:    1,
		},
		{
			name: "stay address corrected",
			rec: event.PersonRecord{
				EventID: "e-6", InfoType: event.InfoTypeStay, ChangeType: event.ChangeCorrected,
				PersonIdents: []string{parent},
			},
			resolver: resolved(ownership.SubjectIsApplicant, ownership.None),
			outcome:  "ignore",
			recorded: true,
		},
		{
			name: "moved within the country",
			rec: event.PersonRecord{
				EventID: "e-5", InfoType: event.InfoTypeResidence, ChangeType: event.ChangeCorrected,
				PersonIdents: []string{parent}, Municipality: ptr("5401"),
			},
			resolver: resolved(ownership.SubjectIsRelatedParty, ownership.None),
			outcome:  "act",
			recorded: true,
			items:    1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, store := setupRouter[event.PersonRecord](t, lifeStrategy(tt.resolver))

			res := router.Route(context.Background(), message(t, 1, tt.rec))
			if res.Outcome != tt.outcome {
				t.Fatalf("expected %q, got %q (%v)", tt.outcome, res.Outcome, res.Err)
			}
			if !res.Acknowledge() {
				t.Errorf("expected acknowledgement, got %v", res.Kind)
			}
			if got := len(store.Entries()) == 1; got != tt.recorded {
				t.Errorf("recorded = %v, want %v", got, tt.recorded)
			}
			if n := len(store.Items()); n != tt.items {
				t.Errorf("expected %d work items, got %d", tt.items, n)
			}
		})
	}
}

func TestAnnulment(t *testing.T) {
	annul := func(id string, prior *string) event.PersonRecord {
		r := birth(id, testNow.AddDate(0, -1, 0))
		r.ChangeType = event.ChangeAnnulled
		r.BirthDate = nil
		r.PriorEventID = prior
		return r
	}

	t.Run("voids work of the prior event", func(t *testing.T) {
		router, store := setupRouter[event.PersonRecord](t, lifeStrategy(resolved(ownership.SubjectIsApplicant, ownership.None)))
		if res := router.Route(context.Background(), message(t, 1, birth("e-1", testNow.AddDate(0, -1, 0)))); res.Kind != Handled {
			t.Fatalf("birth: %v %v", res.Kind, res.Err)
		}

		res := router.Route(context.Background(), message(t, 2, annul("e-2", ptr("e-1"))))
		if res.Kind != Handled || res.Outcome != "void" {
			t.Fatalf("expected handled void, got %v %q (%v)", res.Kind, res.Outcome, res.Err)
		}
		items := store.Items()
		if len(items) != 1 {
			t.Fatalf("annulment emitted work: %d items", len(items))
		}
		if items[0].Status != workitem.StatusVoided {
			t.Errorf("expected voided, got %s", items[0].Status)
		}
		if n := len(store.Entries()); n != 2 {
			t.Errorf("expected 2 ledger entries, got %d", n)
		}
	})

	t.Run("unknown prior event", func(t *testing.T) {
		router, store := setupRouter[event.PersonRecord](t, lifeStrategy(resolved(ownership.None, ownership.None)))
		res := router.Route(context.Background(), message(t, 2, annul("e-2", ptr("e-404"))))
		if res.Kind != Handled {
			t.Fatalf("expected handled, got %v (%v)", res.Kind, res.Err)
		}
		if len(store.Items()) != 0 {
			t.Error("unexpected work item")
		}
		if len(store.Entries()) != 1 {
			t.Error("annulment was not recorded")
		}
	})

	t.Run("refers to itself", func(t *testing.T) {
		router, store := setupRouter[event.PersonRecord](t, lifeStrategy(resolved(ownership.None, ownership.None)))
		res := router.Route(context.Background(), message(t, 2, annul("e-2", ptr("e-2"))))
		if res.Kind != Ignored || res.Outcome != OutcomeDropped || !errors.Is(res.Err, ErrInvariant) {
			t.Fatalf("expected dropped invariant violation, got %v %q %v", res.Kind, res.Outcome, res.Err)
		}
		if len(store.Entries()) != 0 {
			t.Error("dropped event was recorded")
		}
	})
}

func TestResolverFailurePreventsAcknowledgement(t *testing.T) {
	resolver := &fixedResolver{err: casesystem.ErrUnavailable}
	router, store := setupRouter[event.PersonRecord](t, lifeStrategy(resolver))
	msg := message(t, 1, birth("e-1", testNow.AddDate(0, -1, 0)))

	res := router.Route(context.Background(), msg)
	if res.Kind != Retryable || res.Acknowledge() {
		t.Fatalf("expected retryable, got %v", res.Kind)
	}
	if !errors.Is(res.Err, casesystem.ErrUnavailable) {
		t.Errorf("expected unavailable, got %v", res.Err)
	}
	if len(store.Entries()) != 0 || len(store.Items()) != 0 {
		t.Fatal("failed delivery left state behind")
	}

	resolver.err = nil
	resolver.res = ownership.Combine(ownership.SubjectIsApplicant, ownership.None)
	if res := router.Route(context.Background(), msg); res.Kind != Handled {
		t.Fatalf("redelivery: %v %v", res.Kind, res.Err)
	}
	if len(store.Items()) != 1 {
		t.Error("expected work after redelivery")
	}
}

func TestMalformedPayloadIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not json", "{not json"},
		{"missing event id", `{"info_type":"DOEDSFALL_V1","change_type":"OPPRETTET"}`},
		{"no person ident", `{"event_id":"e-1","info_type":"DOEDSFALL_V1","change_type":"OPPRETTET","person_idents":["2000000000001"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, store := setupRouter[event.PersonRecord](t, lifeStrategy(resolved(ownership.None, ownership.None)))
			res := router.Route(context.Background(), event.Message{Value: []byte(tt.value)})
			if res.Kind != Fatal || res.Acknowledge() {
				t.Fatalf("expected fatal, got %v", res.Kind)
			}
			if !errors.Is(res.Err, ErrMalformed) {
				t.Errorf("expected malformed, got %v", res.Err)
			}
			if len(store.Entries()) != 0 {
				t.Error("malformed event was recorded")
			}
		})
	}
}

// blindLedger never reports an entry, as when two deliveries race past
// the existence check.
type blindLedger struct {
	*memory.Store
}

func (blindLedger) Exists(context.Context, string, ledger.Consumer) (bool, error) {
	return false, nil
}

func TestConcurrentCompletionRollsBackEmission(t *testing.T) {
	store := memory.NewStore()
	strategy := lifeStrategy(resolved(ownership.SubjectIsApplicant, ownership.None))
	router := NewRouter[event.PersonRecord](strategy, blindLedger{store}, newEmitter(store), store, metrics.Nop{}, testLogger())
	msg := message(t, 1, birth("e-1", testNow.AddDate(0, -1, 0)))

	if res := router.Route(context.Background(), msg); res.Kind != Handled {
		t.Fatalf("first delivery: %v %v", res.Kind, res.Err)
	}
	res := router.Route(context.Background(), msg)
	if res.Kind != Ignored || res.Outcome != OutcomeConflict {
		t.Fatalf("expected conflict, got %v %q (%v)", res.Kind, res.Outcome, res.Err)
	}
	if n := len(store.Items()); n != 1 {
		t.Errorf("expected the losing emission rolled back, got %d items", n)
	}
	if n := len(store.Entries()); n != 1 {
		t.Errorf("expected 1 ledger entry, got %d", n)
	}
}

func TestStayAddressSchedulesRegionalSupplement(t *testing.T) {
	router, store := setupRouter[event.PersonRecord](t, lifeStrategy(resolved(ownership.None, ownership.SubjectIsApplicant)))
	rec := event.PersonRecord{
		EventID: "e-6", InfoType: event.InfoTypeStay, ChangeType: event.ChangeCreated,
		PersonIdents: []string{parent},
	}
	if res := router.Route(context.Background(), message(t, 1, rec)); res.Outcome != "delegate" {
		t.Fatalf("legacy owned stay address: expected delegate, got %q (%v)", res.Outcome, res.Err)
	}

	router, store = setupRouter[event.PersonRecord](t, lifeStrategy(resolved(ownership.SubjectIsApplicant, ownership.None)))
	if res := router.Route(context.Background(), message(t, 1, rec)); res.Kind != Handled {
		t.Fatalf("expected handled, got %v (%v)", res.Kind, res.Err)
	}
	items := store.Items()
	if len(items) != 1 || items[0].Type != workitem.TypeEvaluateRegionalSupplement {
		t.Fatalf("unexpected work items %+v", items)
	}
	if items[0].Metadata["subtype"] != string(event.SubtypeStayAddressChange) {
		t.Errorf("unexpected metadata %v", items[0].Metadata)
	}
}

func TestBirthGateUsesHomeCountryDate(t *testing.T) {
	// 00:30 on 10 April in the home zone, still 9 April in UTC.
	home := time.FixedZone("CEST", 2*60*60)
	now := time.Date(2024, 4, 10, 0, 30, 0, 0, home)

	tests := []struct {
		name    string
		born    event.Date
		outcome string
	}{
		{"born today", event.NewDate(2024, 4, 10), "act"},
		{"exactly six months old", event.NewDate(2023, 10, 10), "ignore"},
		{"one day short of six months", event.NewDate(2023, 10, 11), "act"},
		{"born tomorrow", event.NewDate(2024, 4, 11), OutcomeDropped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewLifeEventStrategy(LifeEventConfig{Location: home}, resolved(ownership.None, ownership.None), fixedDelay(time.Hour))
			s.now = func() time.Time { return now }
			router, _ := setupRouter[event.PersonRecord](t, s)

			rec := birth("e-1", now)
			rec.BirthDate = &tt.born
			res := router.Route(context.Background(), message(t, 1, rec))
			if res.Outcome != tt.outcome {
				t.Fatalf("expected %q, got %q (%v)", tt.outcome, res.Outcome, res.Err)
			}
		})
	}
}

func TestDecodeFailureDoesNotLogKey(t *testing.T) {
	var buf bytes.Buffer
	store := memory.NewStore()
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	router := NewRouter[event.PersonRecord](lifeStrategy(resolved(ownership.None, ownership.None)), store, newEmitter(store), store, metrics.Nop{}, logger)

	res := router.Route(context.Background(), event.Message{Topic: "test", Key: []byte("2000000000001"), Value: []byte("{not json")})
	if res.Kind != Fatal {
		t.Fatalf("expected fatal, got %v", res.Kind)
	}
	if buf.Len() == 0 {
		t.Fatal("expected a log line")
	}
	if strings.Contains(buf.String(), "2000000000001") {
		t.Errorf("log leaks message key: %s", buf.String())
	}
}

type countingSink struct {
	metrics.Nop
	emitted map[string]int
	voided  int
}

func (c *countingSink) WorkItemEmitted(itemType string) { c.emitted[itemType]++ }
func (c *countingSink) WorkItemsVoided(n int)           { c.voided += n }

func TestWorkItemsCountedOnlyAfterCommit(t *testing.T) {
	store := memory.NewStore()
	sink := &countingSink{emitted: map[string]int{}}
	strategy := lifeStrategy(resolved(ownership.SubjectIsApplicant, ownership.None))
	router := NewRouter[event.PersonRecord](strategy, blindLedger{store}, newEmitter(store), store, sink, testLogger())
	msg := message(t, 1, birth("e-1", testNow.AddDate(0, -1, 0)))

	router.Route(context.Background(), msg)
	if res := router.Route(context.Background(), msg); res.Outcome != OutcomeConflict {
		t.Fatalf("expected conflict, got %q (%v)", res.Outcome, res.Err)
	}
	if got := sink.emitted[workitem.TypeEvaluateBenefitEligibility]; got != 1 {
		t.Errorf("expected 1 counted emission, got %d", got)
	}

	annul := birth("e-2", testNow)
	annul.ChangeType = event.ChangeAnnulled
	annul.PriorEventID = ptr("e-1")
	if res := router.Route(context.Background(), message(t, 2, annul)); res.Outcome != "void" {
		t.Fatalf("expected void, got %q (%v)", res.Outcome, res.Err)
	}
	if sink.voided != 1 {
		t.Errorf("expected 1 counted void, got %d", sink.voided)
	}
}
