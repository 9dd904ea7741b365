package domain

// AccountConfig is one mailbox account loaded from the user sheet.
// Loaded once per run and shared read-only by all workers.
type AccountConfig struct {
	Email        string
	Password     string
	IMAPHost     string // empty means resolve from the address
	IMAPPassword string // falls back to Password

	ClientName        string
	NotifySettingName string
	Instant           bool

	Notify *NotifySettings // nil when no setting row matched
}

// LoginPassword is the secret used for the IMAP login.
func (a AccountConfig) LoginPassword() string {
	if a.IMAPPassword != "" {
		return a.IMAPPassword
	}
	return a.Password
}

// NotifySettings is one row of the notification settings sheet.
type NotifySettings struct {
	Name string

	IsTest bool

	ChatworkEnabled    bool
	ChatworkToken      string
	ChatworkRoomID     string
	ChatworkTestRoomID string

	LineEnabled         bool
	LineAccessToken     string
	LineTestAccessToken string
}

// ChatworkRoom returns the room to post to, honoring test mode.
func (n NotifySettings) ChatworkRoom() string {
	if n.IsTest && n.ChatworkTestRoomID != "" {
		return n.ChatworkTestRoomID
	}
	return n.ChatworkRoomID
}

// Mapping is one category with its trigger keywords.
type Mapping struct {
	Category string
	Keywords []string
}

// MappingTable keeps categories in sheet order; classification depends on it.
type MappingTable []Mapping
