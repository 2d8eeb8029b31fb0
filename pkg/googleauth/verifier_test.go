package googleauth

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/idtoken"
)

func TestVerifyExtractsIdentity(t *testing.T) {
	v := &Verifier{
		clientID: "client-id",
		validate: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			if audience != "client-id" {
				t.Fatalf("unexpected audience %q", audience)
			}
			return &idtoken.Payload{Claims: map[string]any{
				"email":   "driver@example.com",
				"name":    "Nguyen Van A",
				"picture": "https://example.com/p.png",
			}}, nil
		},
	}

	id, err := v.Verify(context.Background(), "raw-token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Email != "driver@example.com" || id.FullName != "Nguyen Van A" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestVerifyRejectsInvalidToken(t *testing.T) {
	v := &Verifier{
		clientID: "client-id",
		validate: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			return nil, errors.New("bad token")
		},
	}
	if _, err := v.Verify(context.Background(), "raw-token"); err == nil {
		t.Fatal("expected error for invalid token")
	}
}

func TestVerifyRejectsMissingEmail(t *testing.T) {
	v := &Verifier{
		clientID: "client-id",
		validate: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			return &idtoken.Payload{Claims: map[string]any{}}, nil
		},
	}
	if _, err := v.Verify(context.Background(), "raw-token"); err == nil {
		t.Fatal("expected error for missing email claim")
	}
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	v, err := NewVerifier("client-id")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	if _, err := v.Verify(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty token")
	}
}
