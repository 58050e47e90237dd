package redaction

import (
	"github.com/zll123456354/edge-privacy-gateway/internal/privacy"
	"github.com/zll123456354/edge-privacy-gateway/internal/recognition"
)

// Mode is the reporting mode selected by the X-Mode request header
type Mode string

const (
	ModeEdge  Mode = "edge"
	ModeCloud Mode = "cloud"
)

// ParseMode returns ModeCloud only for the exact header value "cloud"
func ParseMode(header string) Mode {
	if header == string(ModeCloud) {
		return ModeCloud
	}
	return ModeEdge
}

// Data sources for a document result
const (
	SourceUpstream = "upstream"
	SourceFallback = "fallback"
)

// Fixed execution metadata reported for every document
const edgeLocation = "Edge Node (Asia)"

func fieldsDetected() []string {
	return []string{"身份证", "姓名", "地址"}
}

// ExecutionStatus describes where a document was processed and how long it took
type ExecutionStatus struct {
	Location         string   `json:"location"`
	RawDataLeftCloud bool     `json:"rawDataLeftCloud"`
	ExecutedOnEdge   bool     `json:"executedOnEdge"`
	ElapsedMs        int64    `json:"elapsedMs"`
	FieldsDetected   []string `json:"fieldsDetected"`
}

// MaskedFields is the redacted view of a document
type MaskedFields struct {
	Name        string `json:"name"`
	Sex         string `json:"sex"`
	Nationality string `json:"nationality"`
	Birth       string `json:"birth"`
	Address     string `json:"address"`
	ID          string `json:"id"`
}

// MaskFields applies the field maskers. Sex and nationality are not treated as sensitive.
func MaskFields(f recognition.DocumentFields) MaskedFields {
	return MaskedFields{
		Name:        privacy.MaskName(f.Name),
		Sex:         f.Sex,
		Nationality: f.Nationality,
		Birth:       privacy.MaskBirth(f.Birth),
		Address:     privacy.MaskAddress(f.Address),
		ID:          privacy.MaskNum(f.Num),
	}
}

// DocumentRequest is a validated document recognition request
type DocumentRequest struct {
	Image string
	Side  string
}

// DocumentResult is the document recognition response.
//
// Original is the unmasked source document and is returned alongside the masked view
// on purpose: callers of this endpoint receive both.
type DocumentResult struct {
	Status   ExecutionStatus      `json:"status"`
	Masked   MaskedFields         `json:"masked"`
	Original recognition.Document `json:"original"`

	// Source and Reason are kept out of the response; the caller cannot tell
	// upstream data from fallback data.
	Source string `json:"-"`
	Reason string `json:"-"`
}

// TextResult is the text masking response
type TextResult struct {
	Result   string            `json:"result"`
	Findings []privacy.Finding `json:"-"`
}
