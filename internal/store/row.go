package store

import (
	"strings"

	"engage-engine/internal/domain"
)

const (
	mediaEngage   = "ENG"
	statusPending = "送信待ち"
)

// RowFor lays rec out in header order. Headers the engine does not know get "".
func RowFor(header []string, rec domain.ApplicationRecord) []string {
	values := map[string]string{
		domain.ColReceivedAt:   formatTime(rec),
		domain.ColSender:       rec.SenderAddress,
		domain.ColName:         "", // Engage mails never carry the applicant name
		domain.ColJobTypes:     strings.Join(rec.JobTypes, ", "),
		domain.ColFacility:     rec.FacilityType,
		domain.ColFacilityWord: rec.FacilityTypeDetail,
		domain.ColPrefecture:   rec.Prefecture,
		domain.ColLocation:     rec.LocationText,
		domain.ColRegion:       rec.Region,
		domain.ColTitle:        rec.JobTitle,
		domain.ColClient:       rec.SourceAccount,
		domain.ColMedia:        mediaEngage,
		domain.ColCompany:      rec.CompanyName,
		domain.ColApplyID:      rec.ApplyID,
		domain.ColApplyURL:     rec.ApplyURL,
		domain.ColMailStatus:   statusPending,
	}

	row := make([]string, len(header))
	for i, h := range header {
		row[i] = values[strings.TrimSpace(h)]
	}
	return row
}

func formatTime(rec domain.ApplicationRecord) string {
	if rec.ReceivedAt.IsZero() {
		return ""
	}
	return rec.ReceivedAt.In(domain.JST).Format(domain.TimeLayout)
}
