package pipeline

// HostStrategy picks the IMAP host for an account.
type HostStrategy string

const (
	// HostStatic always connects to Profile.StaticHost.
	HostStatic HostStrategy = "static"
	// HostDomain uses the account's IMAP column or infers a host from its domain.
	HostDomain HostStrategy = "domain"
)

// Profile is the single knob set that distinguishes the scheduled, instant
// and notify-only deployments.
type Profile struct {
	Name          string
	FreshnessDays int
	Instant       bool
	HostStrategy  HostStrategy
	StaticHost    string
}

func NormalProfile(staticHost string) Profile {
	return Profile{Name: "normal", FreshnessDays: 7, HostStrategy: HostStatic, StaticHost: staticHost}
}

func InstantProfile(staticHost string) Profile {
	return Profile{Name: "instant", FreshnessDays: 7, Instant: true, HostStrategy: HostStatic, StaticHost: staticHost}
}

// NotifyOnlyProfile looks back one day and resolves hosts per account.
func NotifyOnlyProfile(instant bool) Profile {
	return Profile{Name: "notify", FreshnessDays: 1, Instant: instant, HostStrategy: HostDomain}
}
