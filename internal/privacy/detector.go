package privacy

import (
	"fmt"
	"regexp"

	"github.com/zll123456354/edge-privacy-gateway/internal/config"
	"github.com/zll123456354/edge-privacy-gateway/internal/logger"
	"go.uber.org/zap"
)

// GetDefaultRules returns the text detection rules in the order they are applied.
//
// The ID rule deliberately runs before the phone rule, unlike the phone, ID, email
// order the rules are usually listed in. An 18-character ID contains an 11-digit run,
// so phone-first masks it as 110****99003078888 and leaves 11 raw digits behind.
// Do not reorder.
func GetDefaultRules() []DetectionRule {
	return []DetectionRule{
		{
			Name:    EntityIDCard,
			Pattern: regexp.MustCompile(`\d{17}[\dX]`),
			Replace: MaskNum,
		},
		{
			Name:    EntityPhone,
			Pattern: regexp.MustCompile(`\d{11}`),
			Replace: maskPhone,
		},
		{
			Name:    EntityEmail,
			Pattern: regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
			Replace: maskEmail,
		},
	}
}

// Detector handles PII detection and masking in free text.
// It is configured once and safe for concurrent use.
type Detector struct {
	rules   []DetectionRule
	enabled map[string]bool
	logger  *logger.Logger
}

// New creates a new PII detector instance
func New(cfg config.PrivacyConfig, log *logger.Logger) (*Detector, error) {
	detector := &Detector{
		rules:   GetDefaultRules(),
		enabled: make(map[string]bool),
		logger:  log,
	}

	if err := detector.configureDetectors(cfg.Detectors); err != nil {
		return nil, fmt.Errorf("failed to configure detectors: %w", err)
	}

	log.Info("Privacy detector initialized",
		zap.Int("total_rules", len(detector.rules)),
		zap.Strings("enabled_rules", detector.GetEnabledRules()),
	)

	return detector, nil
}

// configureDetectors enables detectors based on configuration
func (d *Detector) configureDetectors(detectors []string) error {
	for _, rule := range d.rules {
		d.enabled[rule.Name] = false
	}

	for _, detector := range detectors {
		if detector == "all" {
			for _, rule := range d.rules {
				d.enabled[rule.Name] = true
			}
			continue
		}

		if _, known := d.enabled[detector]; !known {
			return fmt.Errorf("unknown detector: %s", detector)
		}
		d.enabled[detector] = true
	}

	return nil
}

// ProcessText masks every enabled PII pattern in text. Each rule is applied once over
// the whole text; text that matches no rule passes through unchanged.
func (d *Detector) ProcessText(text string) ProcessResult {
	maskedText := text
	findings := make([]Finding, 0)

	for _, rule := range d.rules {
		if !d.enabled[rule.Name] {
			continue
		}

		count := 0
		maskedText = rule.Pattern.ReplaceAllStringFunc(maskedText, func(m string) string {
			count++
			return rule.Replace(m)
		})
		if count == 0 {
			continue
		}

		findings = append(findings, Finding{EntityType: rule.Name, Count: count})
		d.logger.Debug("PII detected and masked",
			zap.String("entity_type", rule.Name),
			zap.Int("count", count),
		)
	}

	return ProcessResult{
		MaskedText: maskedText,
		Findings:   findings,
	}
}

// GetEnabledRules returns the enabled rule names in application order
func (d *Detector) GetEnabledRules() []string {
	enabled := make([]string, 0, len(d.rules))
	for _, rule := range d.rules {
		if d.enabled[rule.Name] {
			enabled = append(enabled, rule.Name)
		}
	}
	return enabled
}
