package domain

type ExtractionMethod string

const (
	MethodDirect ExtractionMethod = "direct"
	MethodTika   ExtractionMethod = "tika"
	MethodOCR    ExtractionMethod = "ocr"
	MethodHybrid ExtractionMethod = "hybrid"
	MethodFailed ExtractionMethod = "failed"
)

// ExtractionResult carries extracted text plus processing/quality signals in
// Metadata (word count, alphabetic ratio, truncation, fallback markers).
type ExtractionResult struct {
	Text       string           `json:"text"`
	Confidence float64          `json:"confidence"`
	Method     ExtractionMethod `json:"extraction_method"`
	Metadata   map[string]any   `json:"metadata"`
}

type OperatorType string

const (
	OperatorRedact  OperatorType = "redact"
	OperatorMask    OperatorType = "mask"
	OperatorReplace OperatorType = "replace"
	OperatorHash    OperatorType = "hash"
)

// Operator is the concrete transformation applied to findings of one entity
// type. Fields beyond Type are meaningful per discriminant only.
type Operator struct {
	Type OperatorType `json:"type"`

	// mask
	MaskChar    string `json:"masking_char,omitempty"`
	CharsToMask int    `json:"chars_to_mask,omitempty"`
	FromEnd     bool   `json:"from_end,omitempty"`

	// replace
	NewValue string `json:"new_value,omitempty"`

	// hash; a display-token label, not a security primitive
	HashType string `json:"hash_type,omitempty"`
}

type AppliedOperation struct {
	EntityType string       `json:"entity_type"`
	Start      int          `json:"start"`
	End        int          `json:"end"`
	Operator   OperatorType `json:"operator"`
}

// AnonymizationResult is the anonymization backend's response: the rewritten
// text plus the ordered ledger of applied operations.
type AnonymizationResult struct {
	Text       string             `json:"text"`
	Operations []AppliedOperation `json:"operations"`
}

// FileAnonymizationResult describes a format-preserving (PDF/DOCX) pass.
type FileAnonymizationResult struct {
	OutputPath      string   `json:"output_path"`
	OriginalSize    int64    `json:"original_size"`
	AnonymizedSize  int64    `json:"anonymized_size"`
	OperationsCount int      `json:"operations_count"`
	EntityTypes     []string `json:"entity_types"`
}
