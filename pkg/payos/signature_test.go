package payos

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestSignSortsKeys(t *testing.T) {
	key := "checksum-secret"
	got := Sign(key, map[string]string{
		"returnUrl":   "http://localhost:3000/success",
		"amount":      "15000",
		"orderCode":   "1712345678901234",
		"description": "AutoParts Checkout",
		"cancelUrl":   "http://localhost:3000/cancel",
	})

	payload := "amount=15000&cancelUrl=http://localhost:3000/cancel&description=AutoParts Checkout&orderCode=1712345678901234&returnUrl=http://localhost:3000/success"
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(payload))
	want := hex.EncodeToString(mac.Sum(nil))

	if got != want {
		t.Fatalf("signature mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestSignDeterministic(t *testing.T) {
	fields := map[string]string{"b": "2", "a": "1"}
	first := Sign("k", fields)
	second := Sign("k", fields)
	if first != second {
		t.Fatalf("signature should be deterministic")
	}
	if Sign("other", fields) == first {
		t.Fatalf("different keys should produce different signatures")
	}
}
