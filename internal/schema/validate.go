package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"accreditation-questionnaire-service/internal/domain"
)

// MessageRequired is reported for a required field with no value.
const MessageRequired = "required"

// Validate checks values against the section and returns the validated slice.
// Every field is reported at once; nothing short-circuits. Gated fields whose gate
// is false are reset to their default so stale values never survive a commit.
// The returned FieldErrors is nil when the slice is valid.
func (s *Section) Validate(values domain.Slice, now time.Time) (domain.Slice, domain.FieldErrors) {
	out := make(domain.Slice, len(s.Fields))
	errs := domain.FieldErrors{}

	// Base fields first, then dependents, so gates are judged on their own merits.
	for _, f := range s.Fields {
		if f.Gated() {
			continue
		}
		v, msg := check(f, values[f.Name], now)
		if msg != "" {
			errs[f.Name] = msg
			continue
		}
		out[f.Name] = v
	}
	for _, f := range s.Fields {
		if !f.Gated() {
			continue
		}
		if !s.Active(f, values) {
			out[f.Name] = f.Default()
			continue
		}
		v, msg := check(f, values[f.Name], now)
		if msg != "" {
			errs[f.Name] = msg
			continue
		}
		out[f.Name] = v
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// CheckField runs the constraint of a single field for live feedback.
// Hidden fields never report an error.
func (s *Section) CheckField(name string, values domain.Slice, now time.Time) string {
	f, ok := s.Field(name)
	if !ok {
		return ""
	}
	if f.Gated() && !s.Active(f, values) {
		return ""
	}
	_, msg := check(f, values[name], now)
	return msg
}

func check(f Field, raw any, now time.Time) (any, string) {
	v, empty, msg := normalize(f, raw)
	if msg != "" {
		return nil, msg
	}
	if empty {
		if f.Required {
			return nil, MessageRequired
		}
		return f.Default(), ""
	}

	switch f.Kind {
	case KindText:
		return v, checkText(f, v.(string))
	case KindEmail:
		return v, checkEmail(v.(string))
	case KindURL:
		return v, checkURL(v.(string))
	case KindEnum:
		return v, checkOption(f, v.(string))
	case KindInteger, KindNumber:
		return v, checkRange(f, v.(float64), now)
	case KindAttestation:
		if v != true {
			return nil, "must be confirmed"
		}
	}
	return v, ""
}

// normalize returns the canonical value, whether it counts as empty, and a type error message.
func normalize(f Field, raw any) (any, bool, string) {
	if raw == nil {
		return nil, true, ""
	}
	switch f.Kind {
	case KindText, KindEmail, KindURL, KindEnum:
		str, ok := raw.(string)
		if !ok {
			return nil, false, "must be text"
		}
		return str, strings.TrimSpace(str) == "", ""

	case KindInteger, KindNumber:
		num, empty, ok := toFloat(raw)
		if !ok {
			return nil, false, "must be a number"
		}
		if empty {
			return nil, true, ""
		}
		if f.Kind == KindInteger && num != math.Trunc(num) {
			return nil, false, "must be a whole number"
		}
		return num, false, ""

	case KindBoolean, KindAttestation:
		switch b := raw.(type) {
		case bool:
			return b, false, ""
		case string:
			if strings.TrimSpace(b) == "" {
				return nil, true, ""
			}
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, false, "must be true or false"
			}
			return parsed, false, ""
		}
		return nil, false, "must be true or false"
	}
	return raw, false, ""
}

func toFloat(raw any) (float64, bool, bool) {
	switch n := raw.(type) {
	case float64:
		return n, false, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), false, true
	case int:
		return float64(n), false, true
	case int32:
		return float64(n), false, true
	case int64:
		return float64(n), false, true
	case json.Number:
		f, err := n.Float64()
		return f, false, err == nil
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return 0, true, true
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false, false
		}
		return f, false, true
	}
	return 0, false, false
}

func checkText(f Field, v string) string {
	n := utf8.RuneCountInString(strings.TrimSpace(v))
	if f.MinLength > 0 && n < f.MinLength {
		return fmt.Sprintf("must be at least %d characters", f.MinLength)
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return fmt.Sprintf("must be at most %d characters", f.MaxLength)
	}
	if f.Pattern != nil && !f.Pattern.MatchString(v) {
		if f.PatternMessage != "" {
			return f.PatternMessage
		}
		return "must match " + f.Pattern.String()
	}
	return ""
}

func checkEmail(v string) string {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "must be a valid email address"
	}
	return ""
}

func checkURL(v string) string {
	u, err := url.ParseRequestURI(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "must be a valid http(s) URL"
	}
	return ""
}

func checkOption(f Field, v string) string {
	for _, opt := range f.Options {
		if opt == v {
			return ""
		}
	}
	return "must be one of: " + strings.Join(f.Options, ", ")
}

func checkRange(f Field, v float64, now time.Time) string {
	if f.NotAfterCurrentYear && v > float64(now.Year()) {
		return fmt.Sprintf("must not be later than %d", now.Year())
	}
	switch {
	case f.Min != nil && f.Max != nil && (v < *f.Min || v > *f.Max):
		return fmt.Sprintf("must be between %s and %s", formatNumber(*f.Min), formatNumber(*f.Max))
	case f.Min != nil && f.Max == nil && v < *f.Min:
		return "must be at least " + formatNumber(*f.Min)
	case f.Max != nil && f.Min == nil && v > *f.Max:
		return "must be at most " + formatNumber(*f.Max)
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ValidateDocument validates every section's projection of doc. It returns the
// merged validated document and the errors of each failing section, keyed by section.
func (s *Set) ValidateDocument(doc domain.Document, now time.Time) (domain.Document, map[domain.SectionID]domain.FieldErrors) {
	out := make(domain.Document, len(doc))
	failures := make(map[domain.SectionID]domain.FieldErrors)
	for _, sec := range s.sections {
		validated, errs := sec.Validate(sec.Project(doc), now)
		if errs != nil {
			failures[sec.ID] = errs
			continue
		}
		for k, v := range validated {
			out[k] = v
		}
	}
	if len(failures) > 0 {
		return nil, failures
	}
	return out, nil
}
