package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

type action int

const (
	keep action = iota
	drop
	hash
)

// keyRules are matched as substrings of the normalized key, first hit wins.
// Session and user ids are hashed so a single browser can still be followed
// through the logs without exposing the cookie value.
var keyRules = []struct {
	frag string
	act  action
}{
	{"access_token", drop},
	{"refresh", drop},
	{"token", drop},
	{"authorization", drop},
	{"cookie", drop},
	{"password", drop},
	{"secret", drop},
	{"api_key", drop},
	{"apikey", drop},
	{"anon_key", drop},
	{"email", drop},
	{"user_id", hash},
	{"session_id", hash},
}

var redaction struct {
	once sync.Once
	on   bool
	salt string
}

func redactionOn() bool {
	redaction.once.Do(func() {
		switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
		case "0", "false", "no", "off":
		default:
			redaction.on = true
		}
		redaction.salt = strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))
	})
	return redaction.on
}

func sanitizeKVs(kv []interface{}) []interface{} {
	if len(kv) == 0 || !redactionOn() {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		k := toString(kv[i])
		out = append(out, k, sanitizeValue(normalizeKey(k), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

// normalizeKey folds header-style keys ("X-User-Id") into snake_case.
func normalizeKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "-", "_")
}

func ruleFor(key string) action {
	for _, r := range keyRules {
		if strings.Contains(key, r.frag) {
			return r.act
		}
	}
	return keep
}

func sanitizeValue(key string, val interface{}) interface{} {
	if key == "" {
		return val
	}
	switch ruleFor(key) {
	case drop:
		return redacted
	case hash:
		return hashValue(val)
	}
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = sanitizeValue(normalizeKey(k), inner)
		}
		return out
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = sanitizeValue(normalizeKey(k), inner)
		}
		return out
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
	}
	return val
}

func hashValue(val interface{}) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(redaction.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
