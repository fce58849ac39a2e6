package portal

// User is the portal API's user record, reduced to the fields the mailer
// renders into templates and envelopes.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// Globals is the portal-wide configuration served by GET globals. It is
// fetched once at init and shared read-only afterwards.
type Globals struct {
	Title   string        `json:"title"`
	Mailer  MailerConfig  `json:"mailer"`
	Network NetworkConfig `json:"network"`
}

// MailerConfig carries the sender and admin identities plus the master
// switch for outbound email.
type MailerConfig struct {
	UseMailer   bool   `json:"useMailer"`
	SenderName  string `json:"senderName"`
	SenderEmail string `json:"senderEmail"`
	AdminName   string `json:"adminName"`
	AdminEmail  string `json:"adminEmail"`
}

// NetworkConfig carries the pieces needed to build absolute portal links.
type NetworkConfig struct {
	Schema     string `json:"schema"`
	PortalHost string `json:"portalHost"`
}

// ListenerRegistration is the payload for PUT webhooks/listeners/{id}.
type ListenerRegistration struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
