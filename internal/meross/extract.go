package meross

import (
	"fmt"
	"strings"
)

// credentialFields defines the snapshot whitelist: the canonical key and the
// accepted source aliases, in preference order. Nothing outside this table is
// ever copied out of a vendor credential object.
var credentialFields = []struct {
	canonical string
	aliases   []string
}{
	{"token", []string{"token"}},
	{"key", []string{"key"}},
	{"userid", []string{"userid", "userId", "user_id"}},
	{"email", []string{"email"}},
	{"domain", []string{"domain"}},
	{"region", []string{"region"}},
	{"mqttDomain", []string{"mqttDomain", "mqtt_domain"}},
	{"mqttPort", []string{"mqttPort", "mqtt_port"}},
}

// cloudTokenField is optional and copied only when truthy.
const cloudTokenField = "cloudToken"

// residualSnapshot is returned when no known credential shape matches, so
// stored accounts always carry a traceable structure instead of an empty map.
func residualSnapshot() map[string]any {
	return map[string]any{"session": "unknown"}
}

// ExtractSnapshot converts an opaque vendor session into a flat JSON-safe
// mapping. It never fails:
//  1. modern sessions expose credential fields, which go through the whitelist
//  2. legacy sessions expose a bare token
//  3. anything else degrades to {"session": "unknown"}
//
// The session object itself is never serialized.
func ExtractSnapshot(session Session) map[string]any {
	if provider, ok := session.(CredentialProvider); ok {
		if fields := provider.CredentialFields(); len(fields) > 0 {
			return whitelistCredentials(fields)
		}
	}

	if holder, ok := session.(TokenHolder); ok {
		if token := holder.Token(); token != "" {
			return map[string]any{"token": token}
		}
	}

	return residualSnapshot()
}

// whitelistCredentials copies only whitelisted fields, folding aliases to
// their canonical names. Byte slices are decoded to text with invalid bytes
// dropped.
func whitelistCredentials(fields map[string]any) map[string]any {
	out := make(map[string]any)

	for _, field := range credentialFields {
		for _, alias := range field.aliases {
			value, ok := fields[alias]
			if !ok || value == nil {
				continue
			}
			out[field.canonical] = jsonSafeValue(value)
			break
		}
	}

	if value, ok := fields[cloudTokenField]; ok && truthy(value) {
		out[cloudTokenField] = jsonSafeValue(value)
	}

	if len(out) == 0 {
		return residualSnapshot()
	}
	return out
}

func jsonSafeValue(value any) any {
	if b, ok := value.([]byte); ok {
		return strings.ToValidUTF8(string(b), "")
	}
	return value
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []byte:
		return len(v) > 0
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

// Sanitize produces a JSON-safe copy of an arbitrary vendor value for
// diagnostics. Persisted snapshots go through ExtractSnapshot instead; this
// exists so log payloads can never smuggle a live vendor object. It never
// fails: anything unrecognized becomes its string form, and keys with a
// leading underscore (the vendor library's private-attribute convention) are
// skipped.
func Sanitize(value any) any {
	return sanitize(value, 0)
}

const sanitizeMaxDepth = 16

func sanitize(value any, depth int) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("%v", value)
		}
	}()

	if depth > sanitizeMaxDepth {
		return fmt.Sprintf("%v", value)
	}

	switch v := value.(type) {
	case nil, bool, string, int, int32, int64, float32, float64:
		return v
	case []byte:
		return strings.ToValidUTF8(string(v), "")
	case map[string]any:
		m := make(map[string]any, len(v))
		for key, item := range v {
			if strings.HasPrefix(key, "_") {
				continue
			}
			m[key] = sanitize(item, depth+1)
		}
		return m
	case []any:
		s := make([]any, 0, len(v))
		for _, item := range v {
			s = append(s, sanitize(item, depth+1))
		}
		return s
	case FieldProvider:
		return sanitize(v.Fields(), depth+1)
	default:
		return fmt.Sprintf("%v", v)
	}
}
