// Package masking holds the pure per-entity-type masking and replacement
// rules plus the policy-to-operator mapping. No I/O, no dependencies.
package masking

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

const redactedToken = "[REDACTED]"

var cannedReplacements = map[string]string{
	"EMAIL_ADDRESS": "user@example.com",
	"PHONE_NUMBER":  "555-000-0000",
	"PERSON":        "John Doe",
	"LOCATION":      "Anytown",
	"CREDIT_CARD":   "0000-0000-0000-0000",
	"US_SSN":        "000-00-0000",
	"SSN":           "000-00-0000",
	"IBAN_CODE":     "DE00 0000 0000 0000 0000 00",
	"IP_ADDRESS":    "0.0.0.0",
	"URL":           "https://example.com",
	"DATE_TIME":     "1970-01-01",
}

// AnonymizedValue produces the literal replacement for one occurrence of the
// original text. Mask rules are entity-shape-preserving so anonymized
// documents stay readable.
func AnonymizedValue(original, entityType string, action domain.AnonymizationAction) string {
	switch action {
	case domain.ActionRedact, domain.ActionEncrypt:
		return redactedToken
	case domain.ActionReplace:
		return CannedReplacement(entityType)
	case domain.ActionHash:
		return HashToken(original)
	case domain.ActionMask:
		return Mask(original, entityType)
	default:
		return redactedToken
	}
}

// Mask applies the shape-preserving rule for the entity type.
func Mask(original, entityType string) string {
	switch canonicalEntity(entityType) {
	case "EMAIL_ADDRESS":
		return maskEmail(original)
	case "PHONE_NUMBER", "SSN":
		return maskDigits(original)
	case "CREDIT_CARD":
		return maskCreditCard(original)
	case "PERSON":
		return maskPerson(original)
	case "LOCATION":
		return maskKeepFirst(original)
	default:
		return maskGeneric(original)
	}
}

// CannedReplacement returns the fixed substitution value for an entity type.
func CannedReplacement(entityType string) string {
	if v, ok := cannedReplacements[canonicalEntity(entityType)]; ok {
		return v
	}
	if v, ok := cannedReplacements[strings.ToUpper(entityType)]; ok {
		return v
	}
	return redactedToken
}

// HashToken returns a short display token derived from the value. It is a
// correlation aid, not a security primitive.
func HashToken(original string) string {
	sum := sha256.Sum256([]byte(original))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func canonicalEntity(entityType string) string {
	et := strings.ToUpper(strings.TrimSpace(entityType))
	if et == "US_SSN" {
		return "SSN"
	}
	return et
}

// maskEmail keeps the first three characters of the local part and the
// domain's TLD: "test@example.com" -> "tes***@***.com".
func maskEmail(s string) string {
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return maskGeneric(s)
	}
	local, dom := s[:at], s[at+1:]
	keep := 3
	if len(local) < keep {
		keep = len(local)
	}
	tld := ""
	if dot := strings.LastIndex(dom, "."); dot >= 0 {
		tld = dom[dot:]
	}
	return local[:keep] + "***@***" + tld
}

// maskDigits replaces every digit, keeping punctuation so the shape (dashes,
// spaces, parentheses) survives.
func maskDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return '*'
		}
		return r
	}, s)
}

// maskCreditCard keeps the last four digits visible.
func maskCreditCard(s string) string {
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	seen := 0
	return strings.Map(func(r rune) rune {
		if !unicode.IsDigit(r) {
			return r
		}
		seen++
		if seen > digits-4 {
			return r
		}
		return '*'
	}, s)
}

// maskPerson masks interior letters of each word, keeping first and last.
func maskPerson(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = maskInterior(w)
	}
	return strings.Join(words, " ")
}

func maskKeepFirst(s string) string {
	runes := []rune(s)
	for i := 1; i < len(runes); i++ {
		if unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) {
			runes[i] = '*'
		}
	}
	return string(runes)
}

func maskGeneric(s string) string {
	return maskInterior(s)
}

func maskInterior(s string) string {
	runes := []rune(s)
	if len(runes) <= 2 {
		return s
	}
	for i := 1; i < len(runes)-1; i++ {
		if unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) {
			runes[i] = '*'
		}
	}
	return string(runes)
}
