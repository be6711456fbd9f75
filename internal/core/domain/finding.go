package domain

// Finding is a detected PII span produced by the analysis backend.
type Finding struct {
	EntityType string  `json:"entity_type"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	LineNumber int     `json:"line_number,omitempty"`
	Context    string  `json:"context,omitempty"`
}

// SpanValid reports whether the finding's offsets fit inside a source text of
// the given length. Only text-offset paths (generic anonymization) care.
func (f Finding) SpanValid(textLen int) bool {
	return f.Start >= 0 && f.End > f.Start && f.End <= textLen
}

// FilterByThreshold drops findings below the per-entity confidence threshold.
func FilterByThreshold(findings []Finding, policy PolicyConfig) []Finding {
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if f.Confidence >= policy.ThresholdFor(f.EntityType) {
			out = append(out, f)
		}
	}
	return out
}

// DistinctEntityTypes returns entity types in first-seen order.
func DistinctEntityTypes(findings []Finding) []string {
	seen := make(map[string]struct{}, len(findings))
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		if _, ok := seen[f.EntityType]; ok {
			continue
		}
		seen[f.EntityType] = struct{}{}
		out = append(out, f.EntityType)
	}
	return out
}
