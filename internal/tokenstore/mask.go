package tokenstore

// Mask shows the first 8 and last 4 characters of a token. Tokens too short to
// keep a hidden middle are fully redacted.
func Mask(token string) string {
	if len(token) < 13 {
		return "***"
	}
	return token[:8] + "..." + token[len(token)-4:]
}
