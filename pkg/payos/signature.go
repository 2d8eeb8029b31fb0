package payos

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Sign computes the gateway request signature: HMAC-SHA256 over the
// fields serialized as key=value pairs joined with '&', keys sorted
// alphabetically.
func Sign(checksumKey string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, fields[k]))
	}
	payload := strings.Join(pairs, "&")

	mac := hmac.New(sha256.New, []byte(checksumKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func signPaymentRequest(checksumKey string, orderCode int64, amount int64, description, cancelURL, returnURL string) string {
	return Sign(checksumKey, map[string]string{
		"amount":      fmt.Sprintf("%d", amount),
		"cancelUrl":   cancelURL,
		"description": description,
		"orderCode":   fmt.Sprintf("%d", orderCode),
		"returnUrl":   returnURL,
	})
}
