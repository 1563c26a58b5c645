package journal

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/harunnryd/jarvis/internal/sheet"
)

type bodyPartRule struct {
	sheet    string
	keywords []string
}

// Rules are checked in order; the first hit wins. Cardio comes before back so
// that "rowing machine" is not a back exercise, legs before arms so that
// "leg curl" is not a biceps curl.
var bodyPartRules = []bodyPartRule{
	{sheet.Core, []string{"leg raise", "hanging raise", "레그 레이즈"}},
	{sheet.Cardio, []string{"run", "jog", "treadmill", "cycling", "bike", "spin", "swim", "walk", "hike", "hiking", "elliptical", "stair", "rowing", "hiit", "jump rope", "skipping", "러닝", "달리기", "조깅", "자전거", "사이클", "수영", "걷기", "등산", "유산소", "줄넘기", "천국의 계단"}},
	{sheet.Legs, []string{"squat", "leg", "lunge", "calf", "hip thrust", "deadlift", "rdl", "glute", "abductor", "adductor", "스쿼트", "레그", "런지", "카프", "힙", "데드", "하체"}},
	{sheet.Shoulders, []string{"shoulder", "overhead", "ohp", "military", "lateral raise", "side raise", "front raise", "rear delt", "upright", "shrug", "face pull", "숄더", "어깨", "사이드 레터럴", "밀리터리", "리어 델트", "페이스 풀"}},
	{sheet.Chest, []string{"bench", "chest", "fly", "flye", "push up", "pushup", "push-up", "dip", "pec", "incline", "decline", "벤치", "가슴", "플라이", "딥스", "푸시업", "팔굽혀"}},
	{sheet.Back, []string{"row", "pull up", "pullup", "pull-up", "chin", "pulldown", "pull down", "back", "lat pull", "로우", "풀업", "턱걸이", "풀다운", "등"}},
	{sheet.Arms, []string{"curl", "tricep", "bicep", "extension", "hammer", "pushdown", "skull", "arm", "컬", "삼두", "이두", "팔"}},
	{sheet.Core, []string{"plank", "crunch", "sit up", "situp", "ab", "core", "leg raise", "russian twist", "플랭크", "크런치", "윗몸", "복근", "코어"}},
}

// Classify maps an exercise name to the sheet it is logged in: a strength
// body-part sheet, cardio, or etc when nothing matches.
func Classify(exercise string) string {
	padded := " " + normalizeWords(exercise) + " "
	for _, rule := range bodyPartRules {
		for _, kw := range rule.keywords {
			if matchKeyword(padded, exercise, kw) {
				return rule.sheet
			}
		}
	}
	return sheet.Etc
}

// matchKeyword matches ASCII keywords at a word start ("squats" hits "squat",
// "crunch" does not hit "run") and other scripts as substrings.
func matchKeyword(padded, raw, kw string) bool {
	if isASCII(kw) {
		return strings.Contains(padded, " "+kw)
	}
	return strings.Contains(raw, kw)
}

func normalizeWords(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

var (
	pairPattern     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kg|lbs?|킬로)?\s*[x×*]\s*(\d+)`)
	weightPattern   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kg|kgs|lbs?|pounds?|킬로|키로)`)
	repsPattern     = regexp.MustCompile(`(?i)(\d+)\s*(?:reps?|회|개|번|times)`)
	setsPattern     = regexp.MustCompile(`(?i)(\d+)\s*(?:sets?|세트|셋)`)
	bodyweightWords = regexp.MustCompile(`(?i)\b(?:bodyweight|body weight|bw)\b|맨몸`)

	hoursPattern     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:(?:h|hr|hrs|hours?)\b|시간)`)
	minutesPattern   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:(?:m|min|mins|minutes?)\b|분)`)
	intensityPattern = regexp.MustCompile(`(?i)\b(easy|light|moderate|medium|hard|intense|high|low|max|tempo|interval)\b|가볍게|보통|강하게|빡세게|인터벌`)
)

// StrengthDetail is the weight/reps/sets text recovered from free-form details.
type StrengthDetail struct {
	Weight string
	Reps   string
	Sets   string
}

// ParseStrength reads "60kg 10 reps 3 sets", "60x10, 70x8", "60kg 3x10" or
// "벤치 60킬로 10회 5세트". A bare NxM next to a separate weight is read as
// sets x reps; otherwise NxM is weight x reps. Values it cannot find are
// left empty.
func ParseStrength(details string) StrengthDetail {
	var d StrengthDetail

	weights := weightPattern.FindAllStringSubmatch(details, -1)
	var pairWeights, pairReps, setReps []string
	for _, p := range pairPattern.FindAllStringSubmatch(details, -1) {
		if p[2] == "" && len(weights) > 0 {
			if d.Sets == "" {
				d.Sets = p[1]
			}
			setReps = append(setReps, p[3])
			continue
		}
		pairWeights = append(pairWeights, p[1])
		pairReps = append(pairReps, p[3])
	}

	if len(pairWeights) > 0 {
		d.Weight = strings.Join(pairWeights, ", ")
		d.Reps = strings.Join(pairReps, ", ")
	} else {
		d.Weight = joinGroups(weights)
		d.Reps = joinGroups(repsPattern.FindAllStringSubmatch(details, -1))
		if d.Reps == "" {
			d.Reps = strings.Join(setReps, ", ")
		}
	}

	if d.Weight == "" && bodyweightWords.MatchString(details) {
		d.Weight = "bodyweight"
	}
	if m := setsPattern.FindStringSubmatch(details); m != nil {
		d.Sets = m[1]
	}
	return d
}

// CardioDetail is the duration (minutes) and intensity recovered from details.
type CardioDetail struct {
	Minutes   string
	Intensity string
}

func ParseCardio(details string) CardioDetail {
	var d CardioDetail
	var total float64
	var found bool
	if m := hoursPattern.FindStringSubmatch(details); m != nil {
		total += parseFloat(m[1]) * 60
		found = true
	}
	if m := minutesPattern.FindStringSubmatch(details); m != nil {
		total += parseFloat(m[1])
		found = true
	}
	if found {
		d.Minutes = formatMinutes(total)
	}
	if m := intensityPattern.FindString(details); m != "" {
		d.Intensity = strings.ToLower(m)
	}
	return d
}

func joinGroups(matches [][]string) string {
	vals := make([]string, 0, len(matches))
	for _, m := range matches {
		vals = append(vals, m[1])
	}
	return strings.Join(vals, ", ")
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func formatMinutes(m float64) string {
	return strconv.FormatFloat(math.Round(m), 'f', -1, 64)
}
