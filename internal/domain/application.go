package domain

import "time"

// JST is the zone every received timestamp is normalized to.
var JST = time.FixedZone("JST", 9*60*60)

// ApplicationRecord is one Engage application notification turned into a row.
// It is built once per message and never mutated after that.
type ApplicationRecord struct {
	ReceivedAt time.Time // JST
	JobTitle   string
	ApplyID    string
	ApplyURL   string

	JobTypes           []string
	FacilityType       string
	FacilityTypeDetail string

	Prefecture   string
	Region       string
	LocationText string
	CompanyName  string

	SourceAccount string // client display name
	SenderAddress string
}

// ToJST converts t into JST. Header dates without a zone are parsed as UTC,
// so this is a plain In.
func ToJST(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(JST)
}
