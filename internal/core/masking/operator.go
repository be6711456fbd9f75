package masking

import (
	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

const defaultMaskChar = "*"

var defaultMaskLengths = map[string]int{
	"EMAIL_ADDRESS": 6,
	"PHONE_NUMBER":  4,
	"SSN":           4,
	"CREDIT_CARD":   8,
	"PERSON":        5,
}

const genericMaskLength = 4

// DefaultMaskLength is the number of characters masked by offset-based
// operators when the policy does not say otherwise.
func DefaultMaskLength(entityType string) int {
	if n, ok := defaultMaskLengths[canonicalEntity(entityType)]; ok {
		return n
	}
	return genericMaskLength
}

// BuildOperators maps the policy onto the entity types actually present in
// the findings. Every distinct entity type gets an operator, so applying
// them later can never hit a missing key.
func BuildOperators(policy domain.PolicyConfig, findings []domain.Finding) map[string]domain.Operator {
	operators := make(map[string]domain.Operator)
	for _, entityType := range domain.DistinctEntityTypes(findings) {
		operators[entityType] = operatorFor(policy, entityType)
	}
	return operators
}

func operatorFor(policy domain.PolicyConfig, entityType string) domain.Operator {
	switch policy.ActionFor(entityType) {
	case domain.ActionMask:
		return domain.Operator{
			Type:        domain.OperatorMask,
			MaskChar:    defaultMaskChar,
			CharsToMask: DefaultMaskLength(entityType),
			FromEnd:     true,
		}
	case domain.ActionReplace:
		value := policy.ReplacementFor(entityType)
		if value == "" {
			value = CannedReplacement(entityType)
		}
		return domain.Operator{Type: domain.OperatorReplace, NewValue: value}
	case domain.ActionHash:
		// sha256-labelled display token, not a cryptographic guarantee
		return domain.Operator{Type: domain.OperatorHash, HashType: "sha256"}
	case domain.ActionRedact:
		return domain.Operator{Type: domain.OperatorRedact}
	default:
		// unrecognized actions fail safe toward full redaction
		return domain.Operator{Type: domain.OperatorRedact}
	}
}
