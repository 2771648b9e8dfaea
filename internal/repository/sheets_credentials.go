package repository

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/noah-isme/datecheck-bot/pkg/config"
)

// SheetsServiceProvider produces an authenticated Google Sheets client. The
// concrete provider is chosen from configuration.
type SheetsServiceProvider interface {
	SheetsService(ctx context.Context) (*sheets.Service, error)
	// Describe names the credential source without revealing it.
	Describe() string
}

// NewSheetsServiceProvider prefers inline JSON over a credential file.
func NewSheetsServiceProvider(cfg config.LedgerConfig) (SheetsServiceProvider, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return InlineCredentials{JSON: cfg.CredentialsJSON}, nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		return FileCredentials{Path: cfg.CredentialsFile}, nil
	default:
		return nil, fmt.Errorf("no service account credentials configured")
	}
}

// InlineCredentials reads a service account key from a JSON string, usually an environment secret.
type InlineCredentials struct {
	JSON string
}

func (c InlineCredentials) SheetsService(ctx context.Context) (*sheets.Service, error) {
	return newSheetsService(ctx, []byte(c.JSON))
}

func (c InlineCredentials) Describe() string { return "inline" }

// FileCredentials reads a service account key file from disk.
type FileCredentials struct {
	Path string
}

func (c FileCredentials) SheetsService(ctx context.Context) (*sheets.Service, error) {
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return newSheetsService(ctx, raw)
}

func (c FileCredentials) Describe() string { return "file" }

func newSheetsService(ctx context.Context, raw []byte) (*sheets.Service, error) {
	creds, err := google.CredentialsFromJSON(ctx, raw, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	return sheets.NewService(ctx, option.WithCredentials(creds))
}
