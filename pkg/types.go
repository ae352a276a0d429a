package pkg

// Category names one answer memory. The value is also the register label
// used in logs and API responses.
type Category string

const (
	CategorySlang    Category = "slang"
	CategoryAcademic Category = "academic"
	CategoryError    Category = "error"
)

// AnswerCategories are the memories consulted when resolving a message,
// in search order. The error memory only records failed lookups.
var AnswerCategories = []Category{CategorySlang, CategoryAcademic}

// Label returns the Portuguese register name shown to users
func (c Category) Label() string {
	switch c {
	case CategorySlang:
		return "gíria"
	case CategoryAcademic:
		return "acadêmica"
	case CategoryError:
		return "erro"
	default:
		return string(c)
	}
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategorySlang, CategoryAcademic, CategoryError:
		return true
	}
	return false
}

// Entry is a single phrase key and its stored answer
type Entry struct {
	Key    string `json:"key"`
	Answer string `json:"answer"`
}

// MatchKind tells which resolution stage produced an answer
type MatchKind string

const (
	MatchNone         MatchKind = ""
	MatchExact        MatchKind = "exact"
	MatchSubstring    MatchKind = "substring"
	MatchFuzzy        MatchKind = "fuzzy"
	MatchEncyclopedia MatchKind = "encyclopedia"
)

// Match is a memory hit
type Match struct {
	Category Category  `json:"category"`
	Key      string    `json:"key"`
	Answer   string    `json:"answer"`
	Kind     MatchKind `json:"kind"`
	Score    float64   `json:"score,omitempty"`
}
