package privacy

import "regexp"

// Entity types reported by the text detector
const (
	EntityIDCard = "id_card"
	EntityPhone  = "phone"
	EntityEmail  = "email"
)

// DetectionRule represents a single PII detection rule
type DetectionRule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace func(match string) string
}

// Finding represents a detection result. It never carries the matched value.
type Finding struct {
	EntityType string `json:"entityType"`
	Count      int    `json:"count"`
}

// ProcessResult contains the result of processing text through the detector
type ProcessResult struct {
	MaskedText string    `json:"maskedText"`
	Findings   []Finding `json:"findings"`
}

// TotalFindings sums the match counts across all entity types
func (r ProcessResult) TotalFindings() int {
	total := 0
	for _, f := range r.Findings {
		total += f.Count
	}
	return total
}
