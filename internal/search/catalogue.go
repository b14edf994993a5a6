package search

// Suggestion is one entry of the search catalogue.
type Suggestion struct {
	Query       string `json:"query"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Popularity  int    `json:"popularity"`
}

var catalogue = []Suggestion{
	{Query: "ganesh puja", Category: "puja", Description: "Remove obstacles before a new beginning", Popularity: 95},
	{Query: "lakshmi puja", Category: "puja", Description: "Worship for wealth and prosperity", Popularity: 92},
	{Query: "satyanarayan katha", Category: "puja", Description: "Full moon katha for family wellbeing", Popularity: 88},
	{Query: "rudrabhishek", Category: "puja", Description: "Abhishek of the Shiva lingam", Popularity: 85},
	{Query: "navgraha shanti", Category: "puja", Description: "Pacify the nine planets", Popularity: 70},
	{Query: "griha pravesh", Category: "puja", Description: "Housewarming ceremony", Popularity: 74},
	{Query: "mundan sanskar", Category: "sanskar", Description: "First haircut ceremony", Popularity: 40},
	{Query: "namkaran", Category: "sanskar", Description: "Naming ceremony for a newborn", Popularity: 45},
	{Query: "vivah", Category: "sanskar", Description: "Hindu wedding rituals", Popularity: 60},
	{Query: "kaal sarp dosh puja", Category: "dosh nivaran", Description: "Remedy for kaal sarp dosh", Popularity: 66},
	{Query: "mangal dosh puja", Category: "dosh nivaran", Description: "Remedy for manglik dosh before marriage", Popularity: 63},
	{Query: "pitru paksha shraddh", Category: "dosh nivaran", Description: "Offerings to ancestors", Popularity: 58},
	{Query: "hanuman chalisa", Category: "mantra", Description: "Forty verses in praise of Hanuman", Popularity: 90},
	{Query: "gayatri mantra", Category: "mantra", Description: "Vedic hymn to Savitr", Popularity: 87},
	{Query: "mahamrityunjaya mantra", Category: "mantra", Description: "Shiva mantra for health and longevity", Popularity: 80},
	{Query: "live darshan", Category: "darshan", Description: "Watch the temple aarti live", Popularity: 93},
	{Query: "kashi vishwanath darshan", Category: "darshan", Description: "Live darshan from Varanasi", Popularity: 77},
	{Query: "daily horoscope", Category: "astrology", Description: "Rashi based predictions for today", Popularity: 89},
	{Query: "kundli matching", Category: "astrology", Description: "Match horoscopes for marriage", Popularity: 72},
	{Query: "panchang", Category: "astrology", Description: "Tithi, nakshatra and muhurat for today", Popularity: 84},
	{Query: "diwali puja", Category: "festival", Description: "Lakshmi Ganesh puja on Diwali night", Popularity: 82},
	{Query: "maha shivaratri", Category: "festival", Description: "Night-long worship of Shiva", Popularity: 76},
	{Query: "navratri", Category: "festival", Description: "Nine nights of Durga puja", Popularity: 79},
	{Query: "book a pandit", Category: "service", Description: "Find a pandit near you for any puja", Popularity: 91},
}

// Catalogue returns a copy of the built-in suggestions.
func Catalogue() []Suggestion {
	out := make([]Suggestion, len(catalogue))
	copy(out, catalogue)
	return out
}
