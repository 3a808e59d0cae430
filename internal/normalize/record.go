package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// record flattens the envelopes the CMS has used over time into one object:
// {data: {...}}, {id, attributes: {...}} and plain objects.
func record(raw any) map[string]any {
	obj, ok := raw.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	for depth := 0; depth < maxDepth; depth++ {
		data, wrapped := obj["data"].(map[string]any)
		if !wrapped || !envelopeOnly(obj) {
			break
		}
		obj = data
	}
	attrs, nested := obj["attributes"].(map[string]any)
	if !nested {
		return obj
	}
	merged := make(map[string]any, len(attrs)+2)
	for k, v := range attrs {
		merged[k] = v
	}
	for _, key := range []string{"id", "_id"} {
		if v, ok := obj[key]; ok {
			if _, exists := merged[key]; !exists {
				merged[key] = v
			}
		}
	}
	return merged
}

func envelopeOnly(obj map[string]any) bool {
	for k := range obj {
		if k != "data" && k != "meta" {
			return false
		}
	}
	return true
}

// decode parses JSON into any, yielding nil for unreadable input.
func decode(b []byte) any {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(str(obj[k])); s != "" {
			return s
		}
	}
	return ""
}

func boolean(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	return false
}

func integer(v any) int {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(t)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(t))
		return i
	}
	return 0
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func timestamp(obj map[string]any, keys ...string) time.Time {
	for _, k := range keys {
		s := strings.TrimSpace(str(obj[k]))
		if s == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
