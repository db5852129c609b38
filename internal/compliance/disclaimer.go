package compliance

import (
	"context"
	"fmt"
	"strings"
)

// DisclaimerLevel represents the verbosity of the disclaimer.
type DisclaimerLevel string

const (
	DisclaimerShort  DisclaimerLevel = "short"
	DisclaimerMedium DisclaimerLevel = "medium"
	DisclaimerFull   DisclaimerLevel = "full"
)

const (
	disclaimerShortText = "Yapay zeka ön değerlendirmesidir. Tıbbi tavsiye değildir."

	disclaimerMediumText = "Bu sonuç yapay zeka tarafından üretilmiş bir ön değerlendirmedir. Kesin teşhis için lütfen diş hekiminize başvurun."

	disclaimerFullText = "Bu sonuç yapay zeka tarafından üretilmiş genel bir ön değerlendirmedir ve profesyonel tıbbi muayenenin yerini tutmaz. Şiddetli ağrı, şişlik veya kanama durumunda vakit kaybetmeden kliniğimize ya da en yakın acil servise başvurun."
)

// DisclaimerConfig configures the disclaimer service.
type DisclaimerConfig struct {
	Level      DisclaimerLevel
	Enabled    bool
	CustomText string
}

func DefaultDisclaimerConfig() DisclaimerConfig {
	return DisclaimerConfig{Level: DisclaimerMedium, Enabled: true}
}

// DisclaimerService attaches the "not medical advice" notice to AI output.
type DisclaimerService struct {
	audit  *AuditService
	config DisclaimerConfig
}

func NewDisclaimerService(audit *AuditService, config DisclaimerConfig) *DisclaimerService {
	return &DisclaimerService{audit: audit, config: config}
}

// Text returns the configured disclaimer, or "" when disabled.
func (s *DisclaimerService) Text() string {
	if s == nil || !s.config.Enabled {
		return ""
	}
	if s.config.CustomText != "" {
		return s.config.CustomText
	}
	switch s.config.Level {
	case DisclaimerShort:
		return disclaimerShortText
	case DisclaimerFull:
		return disclaimerFullText
	default:
		return disclaimerMediumText
	}
}

// ForAnalysis returns the disclaimer shown next to a symptom analysis and
// records that it was shown for the given AI log.
func (s *DisclaimerService) ForAnalysis(ctx context.Context, logID string) string {
	text := s.Text()
	if text == "" {
		return ""
	}
	_ = s.audit.Record(ctx, EventDisclaimerSent, "ai_log", logID, map[string]string{
		"level": string(s.config.Level),
	})
	return text
}

// Append adds the disclaimer to message unless it is already present.
func (s *DisclaimerService) Append(message string) string {
	text := s.Text()
	if text == "" || strings.Contains(message, text) {
		return message
	}
	return fmt.Sprintf("%s\n\n%s", strings.TrimSpace(message), text)
}
