package event

// Document-registration event types and themes accepted by this system.
const (
	DocumentEventReceived     = "JournalpostMottatt"
	DocumentEventThemeChanged = "TemaEndret"

	ThemeChildBenefit = "BAR"
	ThemeCashForCare  = "KON"
)

// DocumentRecord is the registration record published by the archive.
type DocumentRecord struct {
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	DocumentID   string `json:"document_id"`
	Theme        string `json:"theme"`
	ChannelRefID string `json:"channel_ref_id,omitempty"`
}
