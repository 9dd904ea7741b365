package mailbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ErrUnsupportedHost means the domain's mail cannot be read over IMAP.
var ErrUnsupportedHost = errors.New("mailbox host not supported")

// knownHosts maps mail domains straight to their IMAP host. A "*" marks a
// per-contract server number, so the IMAP column must be filled in.
var knownHosts = map[string]string{
	"muumuu-mail.com": "imap4.muumuu-mail.com",
	"lolipop.jp":      "imap4.lolipop.jp",
	"xserver.jp":      "sv*.xserver.jp",
	"sakura.ne.jp":    "www*.sakura.ne.jp",
	"yahoo.co.jp":     "imap.mail.yahoo.co.jp",
	"outlook.jp":      "outlook.office365.com",
	"gmail.com":       "imap.gmail.com",
	"googlemail.com":  "imap.gmail.com",
}

// LookupMX matches net.Resolver.LookupMX.
type LookupMX func(ctx context.Context, domain string) ([]*net.MX, error)

// Resolver infers an IMAP host from an account's address.
type Resolver struct {
	Lookup LookupMX // nil uses net.DefaultResolver
	Log    zerolog.Logger
}

// Resolve returns explicit when set, otherwise it guesses from the domain.
func (r Resolver) Resolve(ctx context.Context, explicit, email string) (string, error) {
	if h := strings.TrimSpace(explicit); h != "" {
		return h, nil
	}
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "", fmt.Errorf("resolve imap host: no domain in %q", email)
	}
	domain := strings.ToLower(email[at+1:])
	log := r.Log.With().Str("domain", domain).Logger()

	if h, ok := knownHosts[domain]; ok {
		if strings.Contains(h, "*") {
			return "", fmt.Errorf("resolve imap host: %s needs an explicit IMAP host (%s)", domain, h)
		}
		log.Debug().Str("host", h).Msg("known domain")
		return h, nil
	}

	lookup := r.Lookup
	if lookup == nil {
		lookup = net.DefaultResolver.LookupMX
	}
	mxs, err := lookup(ctx, domain)
	if err != nil || len(mxs) == 0 {
		fallback := "imap." + domain
		log.Debug().Err(err).Str("host", fallback).Msg("no MX records, using fallback")
		return fallback, nil
	}
	sort.SliceStable(mxs, func(i, j int) bool { return mxs[i].Pref < mxs[j].Pref })

	hosts := make([]string, 0, len(mxs))
	for _, mx := range mxs {
		hosts = append(hosts, strings.ToLower(strings.TrimSuffix(mx.Host, ".")))
	}
	for _, mx := range hosts {
		switch {
		case strings.Contains(mx, "google.com"), strings.Contains(mx, "googlemail.com"):
			return "imap.gmail.com", nil
		case strings.Contains(mx, "amazonaws.com"):
			return "", fmt.Errorf("%w: %s receives mail via AWS SES (%s)", ErrUnsupportedHost, domain, mx)
		case strings.Contains(mx, "outlook.com"):
			return "outlook.office365.com", nil
		case strings.Contains(mx, "muumuu-mail.com"), strings.Contains(mx, "lolipop.jp"):
			return "imap4.muumuu-mail.com", nil
		}
	}

	log.Debug().Str("host", hosts[0]).Msg("using MX host as IMAP host")
	return hosts[0], nil
}
