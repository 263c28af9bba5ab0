package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// SignCallback computes Shopify's OAuth callback signature: hex(HMAC-SHA256) over
// the sorted key=value pairs joined with "&", excluding the hmac key itself.
func SignCallback(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "hmac" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallbackHMAC reports whether params carries a valid hmac for secret.
// A missing hmac is a failed verification, not an error.
func VerifyCallbackHMAC(params map[string]string, secret string) bool {
	given := params["hmac"]
	if given == "" || secret == "" {
		return false
	}
	expected := SignCallback(params, secret)
	// Signature length is fixed and public; only the content comparison is constant time.
	if len(expected) != len(given) {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(given))
}

// flattenQuery keeps the last value of repeated keys.
func flattenQuery(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[len(vs)-1]
		}
	}
	return out
}
