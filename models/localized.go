package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FallbackLocale is consulted when a requested locale has no text.
const FallbackLocale = "en"

// LocalizedString maps a locale code to text. Stored as JSONB.
type LocalizedString map[string]string

// Text wraps a plain string under the fallback locale.
func Text(en string) LocalizedString {
	return LocalizedString{FallbackLocale: en}
}

// Get returns the text for locale, falling back to English.
func (l LocalizedString) Get(locale string) string {
	if v := l[locale]; v != "" {
		return v
	}
	return l[FallbackLocale]
}

// HasFallback reports whether the fallback locale carries non-blank text.
func (l LocalizedString) HasFallback() bool {
	return strings.TrimSpace(l[FallbackLocale]) != ""
}

func (l LocalizedString) clone() LocalizedString {
	if l == nil {
		return nil
	}
	out := make(LocalizedString, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

func (l LocalizedString) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *LocalizedString) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	parsed, err := ParseLocalized(raw)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// GormDataType stores localized text as jsonb.
func (LocalizedString) GormDataType() string {
	return "jsonb"
}

func (l *LocalizedString) UnmarshalJSON(data []byte) error {
	parsed, err := ParseLocalized(data)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLocalized accepts a locale object, a JSON string, or raw text.
// A JSON string holding an encoded object and an object whose English text
// is itself an encoded object are both unwrapped once.
func ParseLocalized(data []byte) (LocalizedString, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]string
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			return nil, fmt.Errorf("localized text: %w", err)
		}
		if inner, ok := unwrapEncoded(obj[FallbackLocale]); ok {
			return inner, nil
		}
		return LocalizedString(obj), nil
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
			return nil, fmt.Errorf("localized text: %w", err)
		}
		if inner, ok := unwrapEncoded(s); ok {
			return inner, nil
		}
		return Text(s), nil
	default:
		return Text(string(data)), nil
	}
}

func unwrapEncoded(s string) (LocalizedString, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var obj map[string]string
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return LocalizedString(obj), true
}
