package googleauth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/api/idtoken"

	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
)

// Identity is the subset of Google ID-token claims the login flow needs.
type Identity struct {
	Email    string
	FullName string
	Picture  string
}

// Verifier checks Google ID tokens against the configured OAuth client.
type Verifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewVerifier returns a Verifier bound to the given OAuth client ID.
func NewVerifier(clientID string) (*Verifier, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, errors.New("google client id is required")
	}
	return &Verifier{clientID: clientID, validate: idtoken.Validate}, nil
}

// Verify validates the raw ID token and extracts the identity claims.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "google id token is required")
	}

	payload, err := v.validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid google id token")
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "google token carries no email claim")
	}

	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &Identity{Email: email, FullName: name, Picture: picture}, nil
}
