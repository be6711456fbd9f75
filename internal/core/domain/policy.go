package domain

type AnonymizationAction string

const (
	ActionRedact  AnonymizationAction = "redact"
	ActionMask    AnonymizationAction = "mask"
	ActionReplace AnonymizationAction = "replace"
	ActionHash    AnonymizationAction = "hash"
	// ActionEncrypt is accepted in policies but downgraded to redact by the
	// PDF path, which has no key management.
	ActionEncrypt AnonymizationAction = "encrypt"
)

type EntityPolicy struct {
	Action              AnonymizationAction `json:"action" yaml:"action"`
	ConfidenceThreshold float64             `json:"confidence_threshold" yaml:"confidence_threshold"`
	Replacement         string              `json:"replacement,omitempty" yaml:"replacement,omitempty"`
}

// PolicyConfig maps entity types to anonymization actions. Immutable input,
// loaded once per job.
type PolicyConfig struct {
	DefaultAction AnonymizationAction     `json:"default_action" yaml:"default_action"`
	Entities      map[string]EntityPolicy `json:"entities" yaml:"entities"`
}

// ActionFor resolves the action for an entity type: per-entity override, then
// the policy default, then mask. Missing configuration fails safe toward
// over-redaction rather than leaking.
func (p PolicyConfig) ActionFor(entityType string) AnonymizationAction {
	if ep, ok := p.Entities[entityType]; ok && ep.Action != "" {
		return ep.Action
	}
	if p.DefaultAction != "" {
		return p.DefaultAction
	}
	return ActionMask
}

func (p PolicyConfig) ThresholdFor(entityType string) float64 {
	if ep, ok := p.Entities[entityType]; ok {
		return ep.ConfidenceThreshold
	}
	return 0
}

func (p PolicyConfig) ReplacementFor(entityType string) string {
	if ep, ok := p.Entities[entityType]; ok {
		return ep.Replacement
	}
	return ""
}

// DefaultPolicy masks everything. Used when a dataset carries no policy.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{DefaultAction: ActionMask}
}
