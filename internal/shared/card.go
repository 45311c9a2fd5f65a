package shared

// Suit represents the suit of a card (Schell, Herz, Gruen, Eichel).
type Suit string

const (
	Schell Suit = "Schell"
	Herz   Suit = "Herz"
	Gruen  Suit = "Gruen"
	Eichel Suit = "Eichel"
)

// Rank represents the rank of a card within its suit.
type Rank string

const (
	Neun   Rank = "Neun"
	Zehn   Rank = "Zehn"
	Unter  Rank = "Unter"
	Ober   Rank = "Ober"
	Koenig Rank = "Koenig"
	Ass    Rank = "Ass"
)

// Card represents a single card in the Doppelkopf deck.
type Card struct {
	ID    int    `json:"id"`    // Index into the deck catalog
	Suit  Suit   `json:"suit"`  // The suit of the card
	Rank  Rank   `json:"rank"`  // The rank of the card
	Value int    `json:"value"` // Points the card is worth when counting tricks
	Name  string `json:"name"`  // Suit-Rank, used by clients to pick the card face
}

// Define card values for scoring
var cardValues = map[Rank]int{
	Neun:   0,
	Zehn:   10,
	Unter:  2,
	Ober:   3,
	Koenig: 4,
	Ass:    11,
}

// IsMarker reports whether the card is the Eichel Ober, whose holders form the re party.
func (c Card) IsMarker() bool {
	return c.Suit == Eichel && c.Rank == Ober
}
