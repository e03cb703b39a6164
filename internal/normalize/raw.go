package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// flexInt decodes a JSON number, a numeric string or null into an int.
// Fractions are rounded; negatives are kept so callers can clamp them.
type flexInt struct {
	v   int
	set bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Non-numeric values are treated as missing.
		return nil
	}
	f.v = int(math.Round(n))
	f.set = true
	return nil
}

// firstInt returns the first set value, clamped at zero.
func firstInt(vals ...flexInt) (int, bool) {
	for _, v := range vals {
		if v.set {
			return max(v.v, 0), true
		}
	}
	return 0, false
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts the layouts the upstream has been seen to emit and
// returns the instant in UTC. Unparseable values yield the zero time.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// jsonKind reports the first significant byte of a JSON document, or 0 when
// the document is empty.
func jsonKind(b []byte) byte {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

func isNull(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

// objectField returns the first of keys present in the JSON object b.
func objectField(b []byte, keys ...string) (json.RawMessage, string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, "", err
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v, k, nil
		}
	}
	return nil, "", nil
}
