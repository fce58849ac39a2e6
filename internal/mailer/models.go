package mailer

// ListenerID is the webhook listener identity this service registers with
// the portal. Event acknowledgments are scoped to it.
const ListenerID = "mailer"

// Event is one upstream lifecycle notification, delivered in webhook
// batches. Events are consumed exactly once and never mutated.
type Event struct {
	ID     string    `json:"id"`
	Entity string    `json:"entity"`
	Action string    `json:"action"`
	Data   EventData `json:"data"`
}

// EventData is the event payload the mailer cares about. Link, when present,
// is a mustache template expecting the event data ID.
type EventData struct {
	UserID string `json:"userId"`
	ID     string `json:"id"`
	Link   string `json:"link,omitempty"`
}

// Recipient selects who an email intent addresses.
type Recipient string

const (
	RecipientUser  Recipient = "user"
	RecipientAdmin Recipient = "admin"
)

// Intent describes the email an interesting event calls for. It is derived
// deterministically from the event's (entity, action) pair.
type Intent struct {
	Template  string
	Subject   string
	Recipient Recipient
}

// Email is a fully addressed, rendered message ready for the transport.
type Email struct {
	From    string
	To      string
	Subject string
	Text    string
}
