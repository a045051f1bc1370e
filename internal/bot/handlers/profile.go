package handlers

import (
	"strings"

	"github.com/vladimiradmaev/food-lens/internal/domain"
)

var profileAliases = map[string]string{
	"weight":   domain.ProfileWeight,
	"w":        domain.ProfileWeight,
	"height":   domain.ProfileHeight,
	"h":        domain.ProfileHeight,
	"age":      domain.ProfileAge,
	"gender":   domain.ProfileGender,
	"sex":      domain.ProfileGender,
	"activity": domain.ProfileActivity,
}

// ParseProfileText reads "key=value" pairs separated by spaces, commas,
// semicolons or newlines. Unknown keys are returned so the caller can warn
// about them; values are kept verbatim and validated only when used.
func ParseProfileText(text string) (profile domain.UserProfile, unknown []string) {
	profile = domain.UserProfile{}
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '\n' || r == '\t'
	})
	for _, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		name, known := profileAliases[strings.ToLower(strings.TrimSpace(key))]
		if !known {
			unknown = append(unknown, key)
			continue
		}
		profile[name] = strings.TrimSpace(value)
	}
	return profile, unknown
}

// mergeProfiles overlays override on base without modifying either
func mergeProfiles(base, override domain.UserProfile) domain.UserProfile {
	out := make(domain.UserProfile, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
