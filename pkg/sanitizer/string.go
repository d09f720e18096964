package sanitizer

import "strings"

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func NormalizeName(name string) string {
	return CollapseSpace(name)
}

func NormalizeEmail(email string) string {
	return Pipeline{strings.TrimSpace, strings.ToLower}.Apply(email)
}

// NormalizeInsurance uppercases plan identifiers so "acme gold" and "ACME  GOLD" match.
func NormalizeInsurance(insurance string) string {
	return Pipeline{CollapseSpace, strings.ToUpper}.Apply(insurance)
}
