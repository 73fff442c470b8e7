package canonicalize

import (
	"regexp"
	"strings"
)

// seniorityTokens are level markers that do not change what the role is.
var seniorityTokens = map[string]struct{}{
	"i": {}, "ii": {}, "iii": {}, "iv": {}, "v": {}, "vi": {},
	"senior": {}, "sr": {}, "junior": {}, "jr": {},
	"lead": {}, "principal": {}, "staff": {}, "associate": {},
	"assistant": {}, "intern": {}, "chief": {},
	"1": {}, "2": {}, "3": {},
}

// seniorityPhrases are multi-word level markers stripped before tokenizing.
var seniorityPhrases = []string{"head of", "director of", "vp of"}

// genericRoleNouns carry almost no signal on their own: nearly every title ends
// in one of these.
var genericRoleNouns = map[string]struct{}{
	"manager": {}, "analyst": {}, "engineer": {}, "developer": {},
	"specialist": {}, "coordinator": {}, "administrator": {}, "consultant": {},
	"officer": {}, "executive": {}, "representative": {},
}

var departmentSuffixRe = regexp.MustCompile(`(?i)\s*[-–]\s*[^-–]*\b(department|division|team|group)\b[^-–]*$`)

// extractTitleCore takes the substring before the first semicolon, em-dash, or
// pipe and drops trailing department qualifiers.
func extractTitleCore(title string) string {
	core := title
	if idx := strings.IndexAny(core, ";|"); idx >= 0 {
		core = core[:idx]
	}
	if idx := strings.Index(core, "—"); idx >= 0 {
		core = core[:idx]
	}
	core = departmentSuffixRe.ReplaceAllString(core, "")
	return strings.TrimSpace(core)
}

// normalizeTitleCore lowercases, strips punctuation and seniority markers, and
// collapses whitespace.
func normalizeTitleCore(core string) string {
	s := strings.ToLower(core)
	s = strings.NewReplacer(",", " ", "(", " ", ")", " ").Replace(s)
	for _, phrase := range seniorityPhrases {
		s = strings.ReplaceAll(s, phrase, " ")
	}

	words := strings.Fields(s)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, drop := seniorityTokens[w]; drop {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// specificWords returns the words of a normalized core that are longer than two
// characters and not generic role nouns.
func specificWords(normalized string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		if len(w) <= 2 {
			continue
		}
		if _, generic := genericRoleNouns[w]; generic {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// TitlesAreSimilar decides whether two job titles represent the same role for
// merge purposes. It is symmetric but not transitive.
func TitlesAreSimilar(a, b string) bool {
	na := normalizeTitleCore(extractTitleCore(a))
	nb := normalizeTitleCore(extractTitleCore(b))

	if na == nb {
		return true
	}
	if na == "" || nb == "" {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	wa := specificWords(na)
	wb := specificWords(nb)
	if len(wa) == 0 || len(wb) == 0 {
		// Nothing specific to compare on either side: only exact equality
		// would qualify, and that was ruled out above.
		return false
	}

	common := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			common++
		}
	}
	smaller := len(wa)
	if len(wb) < smaller {
		smaller = len(wb)
	}
	return float64(common)/float64(smaller) > 0.5
}
