package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNullNotAllowed = errors.New("may not be null")
	errNegative       = errors.New("must not be negative")
	errBlank          = errors.New("must not be blank")
	errNoFallback     = errors.New(`must include "` + FallbackLocale + `" text`)
)

// Patch is a partial update keyed by JSON field name. An omitted key leaves
// the field untouched; a key holding null clears it where that is allowed.
type Patch map[string]json.RawMessage

// Applier decodes one raw field value onto target.
type Applier[T any] func(target *T, raw []byte) error

// FieldRule pairs an updatable field with its column and applier.
type FieldRule[T any] struct {
	Column string
	Apply  Applier[T]
}

// PatchRules is an allow-list of updatable fields for an entity.
type PatchRules[T any] map[string]FieldRule[T]

// UnknownFieldsError lists patch keys outside the allow-list.
type UnknownFieldsError struct {
	Fields []string
}

func (e *UnknownFieldsError) Error() string {
	return "unknown fields: " + strings.Join(e.Fields, ", ")
}

// FieldError reports a field whose value could not be applied.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Apply validates every key of p against the rules and applies them to
// target in field-name order. It returns the columns that changed. Nothing
// is applied when any key is unknown.
func (r PatchRules[T]) Apply(target *T, p Patch) ([]string, error) {
	var unknown []string
	keys := make([]string, 0, len(p))
	for k := range p {
		if _, ok := r[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		keys = append(keys, k)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownFieldsError{Fields: unknown}
	}
	sort.Strings(keys)

	columns := make([]string, 0, len(keys))
	for _, k := range keys {
		rule := r[k]
		if err := rule.Apply(target, p[k]); err != nil {
			return nil, &FieldError{Field: k, Err: err}
		}
		columns = append(columns, rule.Column)
	}
	return columns, nil
}

func isNull(raw []byte) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// RequiredField decodes a non-null value of type V and hands it to set.
func RequiredField[T, V any](set func(*T, V) error) Applier[T] {
	return func(target *T, raw []byte) error {
		if isNull(raw) {
			return ErrNullNotAllowed
		}
		var v V
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("is malformed: %w", err)
		}
		return set(target, v)
	}
}

// NullableField decodes a value of type V; null is passed to set as nil.
func NullableField[T, V any](set func(*T, *V) error) Applier[T] {
	return func(target *T, raw []byte) error {
		if isNull(raw) {
			return set(target, nil)
		}
		var v V
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("is malformed: %w", err)
		}
		return set(target, &v)
	}
}

// LocalizedField decodes localized text into the field returned by get.
// Non-null values must carry fallback-locale text.
func LocalizedField[T any](get func(*T) *LocalizedString, nullable bool) Applier[T] {
	return func(target *T, raw []byte) error {
		if isNull(raw) {
			if !nullable {
				return ErrNullNotAllowed
			}
			*get(target) = nil
			return nil
		}
		v, err := ParseLocalized(raw)
		if err != nil {
			return err
		}
		if !v.HasFallback() {
			return errNoFallback
		}
		*get(target) = v
		return nil
	}
}
