package ownership

// System is a case-owning system of record.
type System string

const (
	SystemModern System = "modern"
	SystemLegacy System = "legacy"
)

// Kind is the ternary ownership answer for one system.
type Kind int

const (
	None Kind = iota
	SubjectIsRelatedParty
	SubjectIsApplicant
)

func (k Kind) String() string {
	switch k {
	case SubjectIsApplicant:
		return "SUBJECT_IS_APPLICANT"
	case SubjectIsRelatedParty:
		return "SUBJECT_IS_RELATED_PARTY"
	default:
		return "NONE"
	}
}

// Verdict is the combined answer. System is empty when Kind is None.
type Verdict struct {
	Kind   Kind
	System System
}

func (v Verdict) String() string {
	if v.Kind == None {
		return v.Kind.String()
	}
	return v.Kind.String() + "(" + string(v.System) + ")"
}

// Resolution holds the per-system verdicts and their combination.
type Resolution struct {
	Modern   Kind
	Legacy   Kind
	Combined Verdict
}

// Combine reduces per-system verdicts by precedence: subject in modern,
// subject in legacy, related party in modern, related party in legacy.
func Combine(modern, legacy Kind) Resolution {
	r := Resolution{Modern: modern, Legacy: legacy}
	switch {
	case modern == SubjectIsApplicant:
		r.Combined = Verdict{Kind: SubjectIsApplicant, System: SystemModern}
	case legacy == SubjectIsApplicant:
		r.Combined = Verdict{Kind: SubjectIsApplicant, System: SystemLegacy}
	case modern == SubjectIsRelatedParty:
		r.Combined = Verdict{Kind: SubjectIsRelatedParty, System: SystemModern}
	case legacy == SubjectIsRelatedParty:
		r.Combined = Verdict{Kind: SubjectIsRelatedParty, System: SystemLegacy}
	}
	return r
}

// Marking describes which systems hold a case, for manual routing.
func (r Resolution) Marking() string {
	switch {
	case r.Modern != None && r.Legacy != None:
		return "both"
	case r.Modern != None:
		return string(SystemModern)
	case r.Legacy != None:
		return string(SystemLegacy)
	}
	return ""
}
