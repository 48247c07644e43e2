package domain

import (
	"errors"
	"sort"
	"strings"
)

// Area is a department tag used to route tickets and scope agents.
type Area string

const (
	AreaTechnicalSupport Area = "TECHNICAL_SUPPORT"
	AreaDelivery         Area = "DELIVERY"
	AreaPayment          Area = "PAYMENT"
	AreaRegistration     Area = "REGISTRATION"
	AreaCommercial       Area = "COMMERCIAL"
	AreaFinancial        Area = "FINANCIAL"
	AreaOther            Area = "OTHER"
)

// ErrInvalidArea is returned when a tag is outside the area vocabulary.
var ErrInvalidArea = errors.New("invalid area")

var areaVocabulary = []Area{
	AreaTechnicalSupport,
	AreaDelivery,
	AreaPayment,
	AreaRegistration,
	AreaCommercial,
	AreaFinancial,
	AreaOther,
}

var areaLabels = map[Area]string{
	AreaTechnicalSupport: "Technical Support",
	AreaDelivery:         "Delivery",
	AreaPayment:          "Payment",
	AreaRegistration:     "Registration",
	AreaCommercial:       "Commercial",
	AreaFinancial:        "Financial",
	AreaOther:            "Other",
}

// Areas returns the fixed area vocabulary in declaration order.
func Areas() []Area {
	out := make([]Area, len(areaVocabulary))
	copy(out, areaVocabulary)
	return out
}

// Valid reports whether a belongs to the vocabulary.
func (a Area) Valid() bool {
	_, ok := areaLabels[a]
	return ok
}

// Label returns the human readable name of the area.
func (a Area) Label() string {
	return areaLabels[a]
}

// ParseArea resolves a tag or a label, case-insensitively.
func ParseArea(raw string) (Area, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	if candidate := Area(normalized); candidate.Valid() {
		return candidate, nil
	}
	for area, label := range areaLabels {
		if strings.EqualFold(label, strings.TrimSpace(raw)) {
			return area, nil
		}
	}
	return "", ErrInvalidArea
}

// AreaSet is an unordered set of areas.
type AreaSet map[Area]struct{}

// NewAreaSet builds a set from the given areas.
func NewAreaSet(areas ...Area) AreaSet {
	set := make(AreaSet, len(areas))
	for _, area := range areas {
		set[area] = struct{}{}
	}
	return set
}

// Contains reports membership. A nil set contains nothing.
func (s AreaSet) Contains(area Area) bool {
	_, ok := s[area]
	return ok
}

// Slice returns the members sorted by vocabulary order.
func (s AreaSet) Slice() []Area {
	out := make([]Area, 0, len(s))
	for area := range s {
		out = append(out, area)
	}
	sort.Slice(out, func(i, j int) bool {
		return areaIndex(out[i]) < areaIndex(out[j])
	})
	return out
}

func areaIndex(a Area) int {
	for i, candidate := range areaVocabulary {
		if candidate == a {
			return i
		}
	}
	return len(areaVocabulary)
}
