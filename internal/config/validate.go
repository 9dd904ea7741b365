package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a trimmed copy of cfg along with what is wrong
// with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trim := func(ps ...*string) {
		for _, p := range ps {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(&out.Sheets.ConfigSpreadsheetID, &out.Sheets.OutputSpreadsheetID, &out.Sheets.MappingSpreadsheetID,
		&out.Sheets.Users, &out.Sheets.NotifySettings, &out.Sheets.Output, &out.Sheets.JobMapping, &out.Sheets.FacilityMapping,
		&out.Mail.Sender, &out.Mail.Host, &out.Store.Backend, &out.Store.SQLitePath, &out.Log.Level)
	out.Store.Backend = strings.ToLower(out.Store.Backend)
	out.Log.Level = strings.ToLower(out.Log.Level)

	required := []struct{ name, val string }{
		{"sheets.config_spreadsheet_id", out.Sheets.ConfigSpreadsheetID},
		{"sheets.mapping_spreadsheet_id", out.Sheets.MappingSpreadsheetID},
		{"sheets.users", out.Sheets.Users},
		{"sheets.output", out.Sheets.Output},
		{"sheets.job_mapping", out.Sheets.JobMapping},
		{"sheets.facility_mapping", out.Sheets.FacilityMapping},
		{"mail.sender", out.Mail.Sender},
		{"mail.host", out.Mail.Host},
	}
	for _, r := range required {
		if r.val == "" {
			res.addErr("%s is required", r.name)
		}
	}

	if out.Mail.Port <= 0 || out.Mail.Port > 65535 {
		res.addErr("mail.port must be 1..65535")
	}
	if out.Mail.Timeout <= 0 {
		res.addErr("mail.timeout must be > 0")
	}

	if out.Run.Workers <= 0 {
		res.addErr("run.workers must be > 0")
	} else if out.Run.Workers > 8 {
		res.addWarn("run.workers is %d; the shared sheet serializes writes and may rate limit", out.Run.Workers)
	}
	if out.Run.AccountTimeout <= 0 {
		res.addErr("run.account_timeout must be > 0")
	} else if out.Mail.Timeout > out.Run.AccountTimeout {
		res.addWarn("mail.timeout (%s) exceeds run.account_timeout (%s)", out.Mail.Timeout, out.Run.AccountTimeout)
	}
	if out.Run.FreshnessDays < 0 || out.Run.NotifyOnlyDays < 0 {
		res.addErr("run freshness windows must be >= 0 days")
	}

	switch out.Store.Backend {
	case StoreSheets:
		if out.Sheets.OutputSpreadsheetID == "" {
			res.addErr("sheets.output_spreadsheet_id is required when store.backend=sheets")
		}
	case StoreSQLite:
		if out.Store.SQLitePath == "" {
			res.addErr("store.sqlite_path is required when store.backend=sqlite")
		}
		res.addWarn("store.backend=sqlite: applications are not written to the shared sheet")
	default:
		res.addErr("store.backend must be %q or %q, got %q", StoreSheets, StoreSQLite, out.Store.Backend)
	}

	if _, err := zerolog.ParseLevel(out.Log.Level); err != nil {
		res.addErr("log.level %q: %v", out.Log.Level, err)
	}

	if out.Watch.Interval <= 0 {
		res.addErr("watch.interval must be > 0")
	} else if out.Watch.Interval < 30*time.Second {
		res.addWarn("watch.interval is very low (%s) and may cause IMAP throttling", out.Watch.Interval)
	}

	return out, res
}
