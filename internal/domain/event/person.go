package event

// Change types carried by person life-events.
const (
	ChangeCreated   = "OPPRETTET"
	ChangeCorrected = "KORRIGERT"
	ChangeAnnulled  = "ANNULLERT"
	ChangeCeased    = "OPPHOERT"
)

// Information types as published by the population registry.
const (
	InfoTypeDeath      = "DOEDSFALL_V1"
	InfoTypeBirth      = "FOEDSELSDATO_V1"
	InfoTypeEmigration = "UTFLYTTING_FRA_NORGE"
	InfoTypeMarital    = "SIVILSTAND_V1"
	InfoTypeResidence  = "BOSTEDSADRESSE_V1"
	InfoTypeStay       = "OPPHOLDSADRESSE_V1"
)

const (
	MaritalStatusMarried = "GIFT"
	HomeCountry          = "NOR"
)

var lifeSubtypes = map[string]Subtype{
	InfoTypeDeath:      SubtypeDeath,
	InfoTypeBirth:      SubtypeBirth,
	InfoTypeEmigration: SubtypeEmigration,
	InfoTypeMarital:    SubtypeMaritalChange,
	InfoTypeResidence:  SubtypeResidenceChange,
	InfoTypeStay:       SubtypeStayAddressChange,
}

// LifeSubtype maps a registry information type to a subtype, or "" when
// the type is unknown.
func LifeSubtype(infoType string) Subtype {
	return lifeSubtypes[infoType]
}

// PersonRecord is the life-event record on the population registry topic.
type PersonRecord struct {
	EventID           string   `json:"event_id"`
	ActorID           string   `json:"actor_id"`
	InfoType          string   `json:"info_type"`
	ChangeType        string   `json:"change_type"`
	PersonIdents      []string `json:"person_idents"`
	RelatedParties    []string `json:"related_parties,omitempty"`
	DeathDate         *Date    `json:"death_date,omitempty"`
	BirthDate         *Date    `json:"birth_date,omitempty"`
	BirthCountry      *string  `json:"birth_country,omitempty"`
	EmigrationDate    *Date    `json:"emigration_date,omitempty"`
	PriorEventID      *string  `json:"prior_event_id,omitempty"`
	MaritalStatus     *string  `json:"marital_status,omitempty"`
	MaritalStatusDate *Date    `json:"marital_status_date,omitempty"`
	Municipality      *string  `json:"municipality,omitempty"`
	MunicipalityFrom  *Date    `json:"municipality_from,omitempty"`
}

// SubjectIdent returns the first national identity number (11 digits)
// among the person's identifiers.
func (r PersonRecord) SubjectIdent() (string, bool) {
	for _, id := range r.PersonIdents {
		if len(id) == 11 {
			return id, true
		}
	}
	return "", false
}

// SubjectIdents returns every national identity number of the person.
func (r PersonRecord) SubjectIdents() []string {
	var ids []string
	for _, id := range r.PersonIdents {
		if len(id) == 11 {
			ids = append(ids, id)
		}
	}
	return ids
}

// BornIn treats an unknown birth country as the given home country.
func (r PersonRecord) BornIn(homeCountry string) bool {
	return r.BirthCountry == nil || *r.BirthCountry == homeCountry
}
