package manifest

import (
	"fmt"
	"os"
	"strings"
)

// expandString performs a single left-to-right pass over s, replacing
// ${VAR}, ${VAR:-default}, and ${VAR:?message} references against env.
// Any other ${...} body is looked up as a plain variable name, so an
// unsupported form such as ${VAR:+x} fails as an unset variable. Bare $VAR
// and an unterminated ${ are left untouched.
func expandString(s string, env map[string]string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end == -1 {
				out.WriteByte(s[i])
				i++
				continue
			}
			expr := s[i+2 : i+2+end]
			val, err := resolveExpr(expr, env)
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i = i + 2 + end + 1
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String(), nil
}

func resolveExpr(expr string, env map[string]string) (string, error) {
	if idx := strings.Index(expr, ":-"); idx != -1 {
		name, def := expr[:idx], expr[idx+2:]
		if v, ok := lookup(name, env); ok && v != "" {
			return v, nil
		}
		return def, nil
	}
	if idx := strings.Index(expr, ":?"); idx != -1 {
		name, msg := expr[:idx], expr[idx+2:]
		if v, ok := lookup(name, env); ok && v != "" {
			return v, nil
		}
		if msg == "" {
			msg = fmt.Sprintf("required variable %s is not set", name)
		}
		return "", fmt.Errorf("%s: %s", name, msg)
	}
	v, ok := lookup(expr, env)
	if !ok {
		return "", fmt.Errorf("%s: required variable %s is not set", expr, expr)
	}
	return v, nil
}

func lookup(name string, env map[string]string) (string, bool) {
	if env != nil {
		if v, ok := env[name]; ok {
			return v, true
		}
	}
	return os.LookupEnv(name)
}

// expandMap expands every value in m, leaving keys untouched.
func expandMap(m map[string]string, env map[string]string) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		ev, err := expandString(v, env)
		if err != nil {
			return nil, err
		}
		out[k] = ev
	}
	return out, nil
}

// secretKeyMarkers are substrings whose presence in a lowercased config key
// flags the value as a secret for masking purposes.
var secretKeyMarkers = []string{"secret", "password", "token", "key", "credential", "auth"}

// IsSecretKey reports whether key looks like it holds sensitive material.
func IsSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range secretKeyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// MaskSecrets returns a copy of m with values of secret-looking keys
// replaced by a fixed redaction marker, for safe logging/rendering.
func MaskSecrets(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if IsSecretKey(k) {
			out[k] = "***"
			continue
		}
		out[k] = v
	}
	return out
}
