package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lehigh-university-libraries/cardscan/internal/config"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/storage/v1"
)

// serviceAccount mirrors the JSON key file Google issues for a service account
type serviceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id,omitempty"`
	PrivateKeyID string `json:"private_key_id,omitempty"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id,omitempty"`
	TokenURI     string `json:"token_uri"`
}

// CredentialsJSON builds a service account key document from inline credentials
func CredentialsJSON(g config.Google) ([]byte, error) {
	if !g.HasServiceAccount() {
		return nil, fmt.Errorf("service account email and private key are required")
	}
	return json.Marshal(serviceAccount{
		Type:         "service_account",
		ProjectID:    g.ProjectID,
		PrivateKeyID: g.PrivateKeyID,
		PrivateKey:   g.PrivateKey,
		ClientEmail:  g.ClientEmail,
		ClientID:     g.ClientID,
		TokenURI:     "https://oauth2.googleapis.com/token",
	})
}

// ClientOptions returns the authentication options for Google API clients.
// Inline credentials win over a credentials file; with neither, the client
// library falls back to application default credentials.
func ClientOptions(g config.Google, scopes ...string) ([]option.ClientOption, error) {
	opts := []option.ClientOption{option.WithScopes(scopes...)}
	switch {
	case g.HasServiceAccount():
		creds, err := CredentialsJSON(g)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	case g.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(g.CredentialsFile))
	}
	return opts, nil
}

func NewSheets(ctx context.Context, g config.Google) (*sheets.Service, error) {
	opts, err := ClientOptions(g, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return svc, nil
}

func NewDrive(ctx context.Context, g config.Google) (*drive.Service, error) {
	opts, err := ClientOptions(g, drive.DriveScope)
	if err != nil {
		return nil, err
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return svc, nil
}

func NewStorage(ctx context.Context, g config.Google) (*storage.Service, error) {
	opts, err := ClientOptions(g, storage.DevstorageFullControlScope)
	if err != nil {
		return nil, err
	}
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return svc, nil
}
