// Package extract decodes free-form model output into one of a closed set of
// reply variants. Model replies are normalised here once; nothing downstream
// inspects raw text or guesses between list and object shapes again.
package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/stats"
)

type Kind string

const (
	KindChat    Kind = "chat"
	KindDiet    Kind = "diet"
	KindWorkout Kind = "workout"
)

// Reply is implemented by Chat, DietRecord and WorkoutRecord.
type Reply interface {
	Kind() Kind
}

// Chat is plain conversational text.
type Chat struct {
	Text string `json:"text"`
}

// DietRecord is a meal and/or an assessment of a day of eating.
type DietRecord struct {
	Date      string  `json:"date,omitempty"`
	MealType  string  `json:"meal_type,omitempty"`
	Item      string  `json:"item,omitempty"`
	Quantity  string  `json:"quantity,omitempty"`
	TotalKcal *Number `json:"total_kcal,omitempty"`
	Score     *Number `json:"score,omitempty"`
	Comment   string  `json:"comment,omitempty"`
}

// WorkoutRecord is one exercise with its raw weight/reps/sets text.
type WorkoutRecord struct {
	Date     string `json:"date,omitempty"`
	Exercise string `json:"exercise,omitempty"`
	Weight   Text   `json:"weight,omitempty"`
	Reps     Text   `json:"reps,omitempty"`
	Sets     Text   `json:"sets,omitempty"`
	Note     string `json:"note,omitempty"`
}

func (Chat) Kind() Kind          { return KindChat }
func (DietRecord) Kind() Kind    { return KindDiet }
func (WorkoutRecord) Kind() Kind { return KindWorkout }

// Decode returns the first reply found in raw. Prose without any JSON is a Chat.
func Decode(raw string) (Reply, error) {
	replies, err := DecodeAll(raw)
	if err != nil {
		return nil, err
	}
	return replies[0], nil
}

// DecodeAll accepts a single object, an array of objects, or prose.
func DecodeAll(raw string) ([]Reply, error) {
	cleaned := cleanModelJSON(raw)
	if cleaned == "" {
		return []Reply{Chat{}}, nil
	}

	payload := cleaned
	if payload[0] != '{' && !startsJSONArray(payload) {
		// Prose. A JSON object inside it is the reply only if it decodes.
		prose := []Reply{Chat{Text: strings.TrimSpace(raw)}}
		embedded := extractFirstBalancedJSON(cleaned, '{', '}')
		if embedded == "" {
			return prose, nil
		}
		r, err := decodeObject(json.RawMessage(embedded))
		if err != nil {
			return prose, nil
		}
		return []Reply{r}, nil
	}

	var objects []json.RawMessage
	if payload[0] == '[' {
		if err := json.Unmarshal([]byte(payload), &objects); err != nil {
			return nil, jarvisErrors.InvalidModelOutput("malformed json array: " + err.Error())
		}
		if len(objects) == 0 {
			return nil, jarvisErrors.InvalidModelOutput("empty json array")
		}
	} else {
		objects = []json.RawMessage{json.RawMessage(payload)}
	}

	replies := make([]Reply, 0, len(objects))
	for _, obj := range objects {
		r, err := decodeObject(obj)
		if err != nil {
			return nil, err
		}
		replies = append(replies, r)
	}
	return replies, nil
}

func decodeObject(obj json.RawMessage) (Reply, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, jarvisErrors.InvalidModelOutput("malformed json object: " + err.Error())
	}

	switch kindOf(fields) {
	case KindDiet:
		var d DietRecord
		if err := json.Unmarshal(obj, &d); err != nil {
			return nil, jarvisErrors.InvalidModelOutput("diet record: " + err.Error())
		}
		return d, nil
	case KindWorkout:
		var w WorkoutRecord
		if err := json.Unmarshal(obj, &w); err != nil {
			return nil, jarvisErrors.InvalidModelOutput("workout record: " + err.Error())
		}
		return w, nil
	case KindChat:
		for _, key := range []string{"text", "reply", "message"} {
			var s string
			if v, ok := fields[key]; ok && json.Unmarshal(v, &s) == nil {
				return Chat{Text: s}, nil
			}
		}
		return Chat{}, nil
	default:
		return nil, jarvisErrors.InvalidModelOutput("unrecognised reply shape")
	}
}

// kindOf prefers an explicit "type" tag and falls back to the object's shape.
func kindOf(fields map[string]json.RawMessage) Kind {
	var tag string
	if v, ok := fields["type"]; ok {
		_ = json.Unmarshal(v, &tag)
	}
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "diet", "meal", "food":
		return KindDiet
	case "workout", "exercise", "training":
		return KindWorkout
	case "chat", "text", "message":
		return KindChat
	}

	has := func(keys ...string) bool {
		for _, k := range keys {
			if _, ok := fields[k]; ok {
				return true
			}
		}
		return false
	}
	switch {
	case has("total_kcal", "score", "meal_type", "item"):
		return KindDiet
	case has("exercise", "weight", "reps"):
		return KindWorkout
	case has("text", "reply", "message"):
		return KindChat
	}
	return ""
}

// Number accepts 1800, 1800.5 or "about 1800 kcal".
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		nums := stats.ParseNumbers(s)
		if len(nums) == 0 {
			return jarvisErrors.ParseFailure("no number in " + s)
		}
		*n = Number(nums[0])
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Text accepts a string, a number, or a list of either, and keeps it as
// sheet text: [20, 40, 60] becomes "20, 40, 60".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			var inner Text
			if err := inner.UnmarshalJSON(item); err != nil {
				return err
			}
			parts = append(parts, string(inner))
		}
		*t = Text(strings.Join(parts, ", "))
	default:
		*t = Text(string(b))
	}
	return nil
}

// startsJSONArray reports whether s opens an array of objects, as opposed to
// prose such as "[Tip] eat more protein".
func startsJSONArray(s string) bool {
	if s == "" || s[0] != '[' {
		return false
	}
	rest := strings.TrimSpace(s[1:])
	return rest == "" || rest[0] == '{' || rest[0] == ']'
}

func cleanModelJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func extractFirstBalancedJSON(input string, open, close byte) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(input); i++ {
		ch := input[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				return strings.TrimSpace(input[start : i+1])
			}
		}
	}
	return ""
}
