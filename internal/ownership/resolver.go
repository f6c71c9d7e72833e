// Package ownership decides which case-owning system, if any, holds a case
// for the subject of an event.
package ownership

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"intake/internal/casesystem"
	domain "intake/internal/domain/ownership"
	"intake/internal/metrics"
)

// Subject is the person an event concerns, with any related parties
// (e.g. the parents of a newborn) known from the event itself.
type Subject struct {
	Ident          string
	RelatedParties []string
}

// Resolver queries the modern and the legacy system and combines their
// answers. Nothing is cached between calls.
type Resolver struct {
	modern  casesystem.ModernCases
	legacy  casesystem.LegacyCases
	cutover time.Time
	metrics metrics.Sink
	logger  *slog.Logger
}

func NewResolver(modern casesystem.ModernCases, legacy casesystem.LegacyCases, cutover time.Time, sink metrics.Sink, logger *slog.Logger) *Resolver {
	return &Resolver{
		modern:  modern,
		legacy:  legacy,
		cutover: cutover,
		metrics: sink,
		logger:  logger,
	}
}

// Resolve returns the per-system and combined verdicts. Any failed query
// aborts the resolution with an error.
func (r *Resolver) Resolve(ctx context.Context, s Subject) (domain.Resolution, error) {
	ms, err := r.modern.QueryModernCaseStatus(ctx, s.Ident)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("query modern case status: %w", err)
	}
	ls, err := r.legacy.QueryLegacyCaseStatus(ctx, s.Ident)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("query legacy case status: %w", err)
	}

	modern, legacy := domain.None, domain.None
	if HasOpenModernCase(ms.Cases) {
		modern = domain.SubjectIsApplicant
	}
	if HasLegacyCase(ls.Cases, r.cutover) {
		legacy = domain.SubjectIsApplicant
	}

	// Related parties only matter while the subject has no case of its own.
	var parties []string
	if modern == domain.None && legacy == domain.None {
		parties = relatedParties(s, ms.RelatedParties)
	}
	for _, party := range parties {
		if modern != domain.None && legacy != domain.None {
			break
		}
		if modern == domain.None {
			pm, err := r.modern.QueryModernCaseStatus(ctx, party)
			if err != nil {
				return domain.Resolution{}, fmt.Errorf("query modern case status of related party: %w", err)
			}
			if HasOpenModernCase(pm.Cases) {
				modern = domain.SubjectIsRelatedParty
			}
		}
		if legacy == domain.None {
			pl, err := r.legacy.QueryLegacyCaseStatus(ctx, party)
			if err != nil {
				return domain.Resolution{}, fmt.Errorf("query legacy case status of related party: %w", err)
			}
			if HasLegacyCase(pl.Cases, r.cutover) {
				legacy = domain.SubjectIsRelatedParty
			}
		}
	}

	res := domain.Combine(modern, legacy)
	r.metrics.Verdict(res.Combined.String())
	r.logger.Debug("ownership resolved", "verdict", res.Combined.String(), "modern", modern.String(), "legacy", legacy.String())
	return res, nil
}

// relatedParties merges the parties from the event and the modern system,
// drops the subject itself and sorts them so resolution is order independent.
func relatedParties(s Subject, fromModern []string) []string {
	seen := map[string]bool{s.Ident: true}
	var out []string
	for _, list := range [][]string{s.RelatedParties, fromModern} {
		for _, p := range list {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// HasOpenModernCase reports whether any case is open or paid. A closed
// case still counts unless its last step was a withdrawal or a technical
// reversal.
func HasOpenModernCase(cases []casesystem.ModernCase) bool {
	for _, c := range cases {
		switch c.Status {
		case casesystem.ModernOpen, casesystem.ModernActivePaid:
			return true
		case casesystem.ModernClosed:
			if c.LastFinishedStep != casesystem.StepWithdrawn && c.LastFinishedStep != casesystem.StepTechnicalReversal {
				return true
			}
		}
	}
	return false
}

// HasLegacyCase reports whether the legacy system owns a case. Decided
// cases are discarded when any of them marks the subject as migrated on or
// after the cut-over date; undecided cases count unless finished.
func HasLegacyCase(cases []casesystem.LegacyCase, cutover time.Time) bool {
	var decided, undecided []casesystem.LegacyCase
	for _, c := range cases {
		if c.Decision != nil {
			decided = append(decided, c)
		} else {
			undecided = append(undecided, c)
		}
	}

	if len(decided) > 0 && !migrated(decided, cutover) {
		return true
	}
	for _, c := range undecided {
		if c.Status != casesystem.LegacyStatusFinished {
			return true
		}
	}
	return false
}

func migrated(decided []casesystem.LegacyCase, cutover time.Time) bool {
	for _, c := range decided {
		if c.Decision.TerminationReason == casesystem.ReasonMigrated && !c.Decision.Date.Before(cutover) {
			return true
		}
	}
	return false
}
