package domain

import (
	"slices"
	"strings"
)

const CasteGeneral = "General"

// Castes are the categories a user can register under.
var Castes = []string{"SC", "ST", "OBC", CasteGeneral}

// FeeCategories are the columns of the admin fee table.
var FeeCategories = []string{"SC", "ST", "OBC", CasteGeneral, "Other"}

var Genders = []string{"male", "female", "other"}

// ResolveFee looks up the fee for caste, matching category keys without
// regard to case. An exact key wins; otherwise keys are tried in sorted
// order. An unmatched caste falls back to General, then zero.
func (s Service) ResolveFee(caste string) float64 {
	if len(s.Fees) == 0 {
		return 0
	}
	if strings.TrimSpace(caste) == "" {
		caste = CasteGeneral
	}
	if amount, ok := s.Fees[caste]; ok {
		return amount
	}
	keys := make([]string, 0, len(s.Fees))
	for key := range s.Fees {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if strings.EqualFold(key, caste) {
			return s.Fees[key]
		}
	}
	if amount, ok := s.Fees[CasteGeneral]; ok {
		return amount
	}
	return 0
}
