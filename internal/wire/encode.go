package wire

// encode.go contains the outbound half of the client codec: ordered
// key/value objects and lists rendered as strict JSON or, in legacy mode,
// as the Python-literal form expected by historical clients.

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field is one key/value pair of an outbound object.
// Values may be strings or ints; anything else is rendered via fmt.
type Field struct {
	Key   string
	Value any
}

// Object is an ordered outbound response payload. Order is preserved on the
// wire so responses stay byte-stable and easy to assert on in tests.
type Object []Field

// Obj is a small constructor helper for building response objects inline.
func Obj(fields ...Field) Object { return Object(fields) }

// F builds a single field.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// decodeObject parses raw as a key/value object. Strict JSON is always
// accepted; the legacy Python-literal form is accepted only in legacy mode.
// All values are coerced to strings.
func (c *Codec) decodeObject(raw string) (map[string]string, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err == nil {
		fields := make(map[string]string, len(m))
		for k, v := range m {
			fields[k] = stringify(v)
		}
		return fields, true
	}

	if c.Legacy {
		return parseLegacyObject(raw)
	}
	return nil, false
}

// EncodeObject renders an ordered object for the client socket.
func (c *Codec) EncodeObject(o Object) string {
	if c.Legacy {
		return encodeLegacyObject(o)
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(f.Key)
		b.Write(key)
		b.WriteByte(':')
		b.WriteString(encodeJSONValue(f.Value))
	}
	b.WriteByte('}')
	return b.String()
}

// EncodeList renders a list response (device records, sentinel values).
// Elements may be strings, ints, nested []any, or Object.
func (c *Codec) EncodeList(items []any) string {
	if c.Legacy {
		return encodeLegacyList(items)
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(encodeJSONValue(item))
	}
	b.WriteByte(']')
	return b.String()
}

// encodeJSONValue renders a single value as JSON, preserving Object field
// order where json.Marshal would not.
func encodeJSONValue(v any) string {
	switch val := v.(type) {
	case Object:
		var b strings.Builder
		b.WriteByte('{')
		for i, f := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			key, _ := json.Marshal(f.Key)
			b.Write(key)
			b.WriteByte(':')
			b.WriteString(encodeJSONValue(f.Value))
		}
		b.WriteByte('}')
		return b.String()
	case []any:
		var b strings.Builder
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(encodeJSONValue(item))
		}
		b.WriteByte(']')
		return b.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			data, _ = json.Marshal(fmt.Sprint(val))
		}
		return string(data)
	}
}

// stringify coerces a decoded JSON value to its string form.
// Numbers lose their trailing ".0" so {"pin": 5} and {"pin": "5"} agree.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
