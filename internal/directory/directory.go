// Package directory loads accounts, notification settings and keyword
// mappings from the configuration spreadsheets.
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"engage-engine/internal/classify"
	"engage-engine/internal/domain"
)

// MediaEngage is the 媒体名 value of accounts this engine handles.
const MediaEngage = "engage"

// Source yields sheet rows keyed by header. gsheets.Reader implements it.
type Source interface {
	Records(ctx context.Context, spreadsheetID, sheet string) ([]map[string]string, error)
}

type Sheets struct {
	ConfigSpreadsheetID  string
	MappingSpreadsheetID string

	Users           string
	NotifySettings  string
	JobMapping      string
	FacilityMapping string
}

type Directory struct {
	Src    Source
	Sheets Sheets
	Log    zerolog.Logger
}

// NotifySettings returns the settings rows keyed by 通知設定名.
func (d *Directory) NotifySettings(ctx context.Context) (map[string]*domain.NotifySettings, error) {
	rows, err := d.Src.Records(ctx, d.Sheets.ConfigSpreadsheetID, d.Sheets.NotifySettings)
	if err != nil {
		return nil, fmt.Errorf("load notification settings: %w", err)
	}

	out := make(map[string]*domain.NotifySettings, len(rows))
	for _, r := range rows {
		name := r["通知設定名"]
		if name == "" {
			continue
		}
		out[name] = &domain.NotifySettings{
			Name:                name,
			IsTest:              truthy(r["is_test"]),
			ChatworkEnabled:     truthy(r["chatwork_notify_enabled"]),
			ChatworkToken:       r["chatwork_api_token"],
			ChatworkRoomID:      r["chatwork_room_id"],
			ChatworkTestRoomID:  r["chatwork_test_room_id"],
			LineEnabled:         truthy(r["line_notify_enabled"]),
			LineAccessToken:     r["line_notify_access_token"],
			LineTestAccessToken: r["line_test_notify_access_token"],
		}
	}
	d.Log.Info().Int("count", len(out)).Msg("notification settings loaded")
	return out, nil
}

// Accounts returns active Engage accounts of the requested partition:
// instant runs take only 即時反応 accounts, normal runs only the others.
func (d *Directory) Accounts(ctx context.Context, instant bool, settings map[string]*domain.NotifySettings) ([]domain.AccountConfig, error) {
	rows, err := d.Src.Records(ctx, d.Sheets.ConfigSpreadsheetID, d.Sheets.Users)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	var out []domain.AccountConfig
	for _, r := range rows {
		acct, ok := accountFrom(r)
		if !ok || acct.Instant != instant {
			continue
		}
		acct.Notify = settings[acct.NotifySettingName]
		out = append(out, acct)
	}
	d.Log.Info().Int("count", len(out)).Bool("instant", instant).Msg("accounts loaded")
	return out, nil
}

func accountFrom(r map[string]string) (domain.AccountConfig, bool) {
	a := domain.AccountConfig{
		Email:             r["メール"],
		Password:          r["パス"],
		IMAPHost:          r["IMAP"],
		IMAPPassword:      r["IMAPパス"],
		ClientName:        r["クライアント名"],
		NotifySettingName: r["通知設定名"],
		Instant:           truthy(r["即時反応"]),
	}
	if a.Email == "" || a.Password == "" {
		return a, false
	}
	if r["媒体名"] != MediaEngage || !truthy(r["is_active"]) {
		return a, false
	}
	return a, true
}

// Mappings loads the job type and facility keyword tables.
func (d *Directory) Mappings(ctx context.Context) (jobs, facilities domain.MappingTable, err error) {
	rows, err := d.Src.Records(ctx, d.Sheets.MappingSpreadsheetID, d.Sheets.JobMapping)
	if err != nil {
		return nil, nil, fmt.Errorf("load job mapping: %w", err)
	}
	jobs = classify.MappingFromRows(rows, "職業カテゴリー", "判別ワード")

	rows, err = d.Src.Records(ctx, d.Sheets.MappingSpreadsheetID, d.Sheets.FacilityMapping)
	if err != nil {
		return jobs, nil, fmt.Errorf("load facility mapping: %w", err)
	}
	facilities = classify.MappingFromRows(rows, "施設カテゴリー", "判別ワード")

	d.Log.Info().Int("job_categories", len(jobs)).Int("facility_categories", len(facilities)).Msg("mappings loaded")
	return jobs, facilities, nil
}

// truthy accepts the sheet's checkbox rendering ("TRUE") in any case.
func truthy(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}
