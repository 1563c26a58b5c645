package journal

import "strings"

var mealSynonyms = map[string][]string{
	"breakfast":  {"breakfast", "morning", "brunch", "아침", "조식", "아점"},
	"lunch":      {"lunch", "noon", "점심", "중식"},
	"dinner":     {"dinner", "supper", "evening", "night", "저녁", "석식", "야식"},
	"snack":      {"snack", "snacks", "dessert", "간식", "디저트"},
	"supplement": {"supplement", "supplements", "protein", "vitamin", "shake", "보충제", "영양제", "프로틴"},
}

// NormalizeMealType maps a category or synonym to its diet column. Unknown
// values fall back to snack and report false.
func NormalizeMealType(s string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "snack", true
	}
	for column, words := range mealSynonyms {
		for _, w := range words {
			if key == w {
				return column, true
			}
		}
	}
	return "snack", false
}
