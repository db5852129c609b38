package booking

import (
	"strings"
	"unicode"
)

// DefaultVisitReason applies when the patient leaves the reason blank.
const DefaultVisitReason = "Genel Muayene"

// CustomReasonPrefix marks a free-text visit reason outside the suggested list.
const CustomReasonPrefix = "custom:"

// PatientDetails is the step-three form.
type PatientDetails struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	TC             string `json:"tc"`
	Age            int    `json:"age"`
	MedicalHistory string `json:"medicalHistory"`
	VisitReason    string `json:"visitReason"`
	Notes          string `json:"notes,omitempty"`
}

// DigitsOnly strips every non-digit rune, matching how the national ID field
// filters keystrokes.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// VisitReasons validates visit reasons against a configured list.
type VisitReasons struct {
	list    []string
	allowed map[string]struct{}
}

func NewVisitReasons(list []string) VisitReasons {
	v := VisitReasons{allowed: make(map[string]struct{}, len(list)+1)}
	for _, r := range append([]string{DefaultVisitReason}, list...) {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := v.allowed[r]; ok {
			continue
		}
		v.allowed[r] = struct{}{}
		v.list = append(v.list, r)
	}
	return v
}

// List returns the suggested reasons, default first.
func (v VisitReasons) List() []string {
	return append([]string(nil), v.list...)
}

// Normalize resolves a submitted reason: blank becomes the default, listed
// reasons pass, "custom:<text>" passes with trimmed text, anything else fails.
func (v VisitReasons) Normalize(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return DefaultVisitReason, nil
	}
	if _, ok := v.allowed[reason]; ok {
		return reason, nil
	}
	if rest, ok := strings.CutPrefix(reason, CustomReasonPrefix); ok {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return "", invalid("visitReason", "özel ziyaret nedeni boş olamaz")
		}
		return CustomReasonPrefix + rest, nil
	}
	return "", invalid("visitReason", "ziyaret nedeni listede yok")
}

// Validate normalizes p in place and reports the first invalid field.
func (p *PatientDetails) Validate(reasons VisitReasons) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.TC = DigitsOnly(p.TC)
	p.Notes = strings.TrimSpace(p.Notes)

	if p.Name == "" {
		return invalid("name", "ad soyad zorunludur")
	}
	if p.Phone == "" || !strings.ContainsFunc(p.Phone, unicode.IsDigit) {
		return invalid("phone", "telefon zorunludur")
	}
	if len(p.TC) != 11 {
		return invalid("tc", "TC kimlik no 11 haneli olmalıdır")
	}
	if p.Age < 1 || p.Age > 120 {
		return invalid("age", "yaş 1 ile 120 arasında olmalıdır")
	}
	if strings.TrimSpace(p.MedicalHistory) == "" {
		return invalid("medicalHistory", "sağlık geçmişi zorunludur")
	}
	reason, err := reasons.Normalize(p.VisitReason)
	if err != nil {
		return err
	}
	p.VisitReason = reason
	return nil
}
