package event

import "time"

// Message is a single raw delivery from the transport.
// Offset is monotonic per partition and only used for observability.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Time      time.Time
}

type Category string

const (
	CategoryDocumentRegistration Category = "document-registration"
	CategoryPersonLifecycle      Category = "person-lifecycle"
	CategoryPartnerDecision      Category = "partner-decision"
)

type Subtype string

const (
	SubtypeBirth             Subtype = "birth"
	SubtypeDeath             Subtype = "death"
	SubtypeEmigration        Subtype = "emigration"
	SubtypeMaritalChange     Subtype = "marital-change"
	SubtypeResidenceChange   Subtype = "residence-change"
	SubtypeStayAddressChange Subtype = "stay-address-change"

	SubtypeDocumentReceived Subtype = "document-received"
	SubtypeThemeChanged     Subtype = "theme-changed"

	SubtypeTransitionalBenefitDecision Subtype = "transitional-benefit-decision"
	SubtypeLegacyBenefitDecision       Subtype = "legacy-benefit-decision"
)

// Event is a decoded delivery. ID is only unique together with the
// consumer identity that handles it.
type Event[T any] struct {
	ID           string
	PartitionKey string
	Category     Category
	Subtype      Subtype
	Offset       int64
	OccurredAt   time.Time
	Payload      T
}
