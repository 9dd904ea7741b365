// Package gsheets opens the Google Sheets client and reads sheets as rows.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Host is the API host used as the rate-limit bucket.
const Host = "sheets.googleapis.com"

var scopes = []string{
	sheets.SpreadsheetsScope,
	"https://www.googleapis.com/auth/drive",
}

// Credentials locates the service account key. A file on disk is preferred
// over the inline JSON (local runs keep credentials.json; CI sets the env).
type Credentials struct {
	File string
	JSON string
}

var ErrNoCredentials = errors.New("google credentials not found (credentials.json or GOOGLE_CREDENTIALS)")

func (c Credentials) load() ([]byte, string, error) {
	if f := strings.TrimSpace(c.File); f != "" {
		b, err := os.ReadFile(f)
		if err == nil {
			return b, f, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("read %s: %w", f, err)
		}
	}
	if j := strings.TrimSpace(c.JSON); j != "" {
		return []byte(j), "GOOGLE_CREDENTIALS", nil
	}
	return nil, "", ErrNoCredentials
}

// NewService authenticates with a service account and returns a client.
func NewService(ctx context.Context, creds Credentials) (*sheets.Service, string, error) {
	raw, source, err := creds.load()
	if err != nil {
		return nil, "", err
	}
	gc, err := google.CredentialsFromJSON(ctx, raw, scopes...)
	if err != nil {
		return nil, "", fmt.Errorf("parse google credentials from %s: %w", source, err)
	}
	svc, err := sheets.NewService(ctx, option.WithCredentials(gc))
	if err != nil {
		return nil, "", fmt.Errorf("sheets client: %w", err)
	}
	return svc, source, nil
}
