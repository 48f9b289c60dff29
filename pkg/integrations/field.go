package integrations

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// Int reads the number at path in a JSON body. Missing, null or non-numeric
// values yield def; accessors never fail on absent fields.
func Int(body []byte, path string, def int64) int64 {
	r := gjson.GetBytes(body, path)
	switch r.Type {
	case gjson.Number:
		return r.Int()
	case gjson.String:
		if n, err := strconv.ParseInt(r.Str, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// String reads the string at path in a JSON body, or def if it is missing or null.
func String(body []byte, path, def string) string {
	r := gjson.GetBytes(body, path)
	if !r.Exists() || r.Type == gjson.Null {
		return def
	}
	return r.String()
}

// Bool reads the boolean at path in a JSON body, or def if it is missing.
func Bool(body []byte, path string, def bool) bool {
	r := gjson.GetBytes(body, path)
	if r.Type != gjson.True && r.Type != gjson.False {
		return def
	}
	return r.Bool()
}
