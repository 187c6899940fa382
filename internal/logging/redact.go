package logging

import "strings"

// secretKeys are argument names whose values are never logged or audited.
var secretKeys = []string{
	"api_key", "apikey", "password", "secret", "token", "authorization",
	"jwt", "credential", "access_key", "secret_key",
}

const redactedValue = "[REDACTED]"

// RedactArgs returns a copy of args with secret-bearing values replaced.
// Nested maps are redacted recursively. The input map is not modified.
func RedactArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if isSecretKey(k) {
			out[k] = redactedValue
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = RedactArgs(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
