package processing

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FieldKind discriminates the shapes a raw feed field can take.
type FieldKind int

const (
	KindAbsent FieldKind = iota
	KindScalar
	KindNumber
	KindComposite
)

// Value is a raw feed field classified into a tagged variant, replacing
// runtime type inspection with an explicit switch in the coercion rules.
type Value struct {
	kind FieldKind
	str  string
	num  json.Number
	raw  json.RawMessage
}

// Classify inspects a raw JSON field value and returns its variant.
// A nil or JSON null value classifies as absent.
func Classify(raw json.RawMessage) Value {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Value{kind: KindAbsent}
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{kind: KindScalar, str: string(trimmed)}
		}
		return Value{kind: KindScalar, str: s}
	case '[', '{':
		return Value{kind: KindComposite, raw: append(json.RawMessage(nil), trimmed...)}
	case 't', 'f':
		return Value{kind: KindScalar, str: string(trimmed)}
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return Value{kind: KindScalar, str: string(trimmed)}
		}
		return Value{kind: KindNumber, num: n}
	}
}

// Kind returns the variant tag.
func (v Value) Kind() FieldKind { return v.kind }

// Coerce produces the canonical string form: composites serialize to JSON
// with non-ASCII preserved, a number of exactly ten decimal digits is read
// as epoch seconds and rendered in local time, everything else falls
// through to its plain string form.
func (v Value) Coerce() string {
	switch v.kind {
	case KindComposite:
		return compactJSON(v.raw)
	case KindNumber:
		s := v.num.String()
		if isEpochSeconds(s) {
			secs, err := strconv.ParseInt(s, 10, 64)
			if err == nil {
				return time.Unix(secs, 0).Format("2006-01-02 15:04:05")
			}
		}
		return s
	default:
		return v.Plain()
	}
}

// Plain returns the plain string form without timestamp or JSON conversion.
func (v Value) Plain() string {
	switch v.kind {
	case KindAbsent:
		return ""
	case KindScalar:
		return v.str
	case KindNumber:
		return v.num.String()
	case KindComposite:
		return compactJSON(v.raw)
	}
	return ""
}

// Int64 reports the value as an integer when it is numeric and integral.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	n, err := v.num.Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

func isEpochSeconds(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func compactJSON(raw json.RawMessage) string {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(decoded); err != nil {
		return string(raw)
	}
	return strings.TrimRight(buf.String(), "\n")
}
