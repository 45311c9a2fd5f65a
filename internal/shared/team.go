package shared

// Party is the side a player plays for in the current round.
type Party string

const (
	PartyContra   Party = "contra"   // Holds no marker card
	PartyRe       Party = "re"       // Holds one marker card
	PartyMarriage Party = "marriage" // Holds both marker cards and plays re alone
)

// PartyOf classifies a player by the number of marker cards dealt to them.
func PartyOf(markerCount int) Party {
	switch {
	case markerCount >= 2:
		return PartyMarriage
	case markerCount == 1:
		return PartyRe
	default:
		return PartyContra
	}
}

// SameParty reports whether two players may be partners. A marriage has no partner.
func SameParty(a, b Party) bool {
	if a == PartyMarriage || b == PartyMarriage {
		return false
	}
	return a == b
}
