// Package classify holds the relevance predicates of each event family.
// They are allow-lists: anything not named here is rejected.
package classify

import (
	"strings"

	"intake/internal/casesystem"
	"intake/internal/domain/event"
)

var lifeSubtypes = map[event.Subtype]bool{
	event.SubtypeBirth:             true,
	event.SubtypeDeath:             true,
	event.SubtypeEmigration:        true,
	event.SubtypeMaritalChange:     true,
	event.SubtypeResidenceChange:   true,
	event.SubtypeStayAddressChange: true,
}

var lifeChangeTypes = map[string]bool{
	event.ChangeCreated:   true,
	event.ChangeCorrected: true,
	event.ChangeAnnulled:  true,
	event.ChangeCeased:    true,
}

// LifeEvent accepts population registry events of a known subtype and
// change type.
func LifeEvent(ev event.Event[event.PersonRecord]) bool {
	return ev.Category == event.CategoryPersonLifecycle &&
		lifeSubtypes[ev.Subtype] &&
		lifeChangeTypes[ev.Payload.ChangeType]
}

var documentSubtypes = map[event.Subtype]bool{
	event.SubtypeDocumentReceived: true,
	event.SubtypeThemeChanged:     true,
}

var documentThemes = map[string]bool{
	event.ThemeChildBenefit: true,
	event.ThemeCashForCare:  true,
}

// DocumentSubtype maps an archive event type to a subtype, or "".
func DocumentSubtype(eventType string) event.Subtype {
	switch eventType {
	case event.DocumentEventReceived:
		return event.SubtypeDocumentReceived
	case event.DocumentEventThemeChanged:
		return event.SubtypeThemeChanged
	}
	return ""
}

// Document accepts registrations of a handled event type under one of the
// handled themes.
func Document(ev event.Event[event.DocumentRecord]) bool {
	return ev.Category == event.CategoryDocumentRegistration &&
		documentSubtypes[ev.Subtype] &&
		documentThemes[ev.Payload.Theme] &&
		ev.Payload.DocumentID != ""
}

// RoutableDocument checks the fetched document. The reason is empty when
// the document should be routed.
func RoutableDocument(doc casesystem.Document) (bool, string) {
	switch {
	case !documentThemes[doc.Theme]:
		return false, "theme not handled"
	case doc.Type != casesystem.DocumentIncoming:
		return false, "not an incoming document"
	case doc.Status != casesystem.DocumentReceived:
		return false, "document status " + doc.Status
	case strings.HasPrefix(doc.Channel, casesystem.ChannelScanPrefix), doc.Channel == casesystem.ChannelDigital:
		return true, ""
	}
	return false, "channel not routed"
}

// PartnerDecision accepts transitional benefit decisions from the partner
// system.
func PartnerDecision(ev event.Event[event.DecisionRecord]) bool {
	return ev.Category == event.CategoryPartnerDecision &&
		ev.Subtype == event.SubtypeTransitionalBenefitDecision &&
		ev.Payload.BenefitType == event.BenefitTransitional &&
		ev.Payload.PersonIdent != ""
}

// LegacyPartnerDecision accepts decisions relayed from the legacy system
// for the partner benefit.
func LegacyPartnerDecision(ev event.Event[event.LegacyDecisionRecord]) bool {
	return ev.Category == event.CategoryPartnerDecision &&
		ev.Subtype == event.SubtypeLegacyBenefitDecision &&
		strings.TrimSpace(ev.Payload.BenefitType) == event.LegacyBenefitEF &&
		ev.Payload.PersonIdent != ""
}
