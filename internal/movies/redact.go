package movies

// Mask replaces sensitive values in logged payloads.
const Mask = "***"

var sensitiveKeys = map[string]bool{
	"password":    true,
	"ssn":         true,
	"credit_card": true,
}

// Redact returns a shallow copy of payload with sensitive values masked.
// payload itself is left untouched.
func Redact(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if sensitiveKeys[k] {
			v = Mask
		}
		out[k] = v
	}
	return out
}
