package canonicalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/types"
)

// MaxCanonicalSkills caps the canonical skill list per user.
const MaxCanonicalSkills = 60

// CategoryOther is assigned to skills not found in the controlled taxonomy.
const CategoryOther = "Other"

// TaxonomyEntry is one controlled-vocabulary skill with its known textual
// variants (post-normalization).
type TaxonomyEntry struct {
	Key      string
	Label    string
	Category string
	Variants []string
}

// skillTaxonomy is the fixed controlled vocabulary. Variants must be listed in
// normalized form (see normalizeSkillName).
var skillTaxonomy = []TaxonomyEntry{
	{Key: "go", Label: "Go", Category: "Programming", Variants: []string{"go", "golang", "go lang"}},
	{Key: "python", Label: "Python", Category: "Programming", Variants: []string{"python", "python3"}},
	{Key: "java", Label: "Java", Category: "Programming", Variants: []string{"java"}},
	{Key: "javascript", Label: "JavaScript", Category: "Programming", Variants: []string{"javascript", "js", "ecmascript"}},
	{Key: "typescript", Label: "TypeScript", Category: "Programming", Variants: []string{"typescript", "ts"}},
	{Key: "csharp", Label: "C#", Category: "Programming", Variants: []string{"c", "csharp", "c sharp"}},
	{Key: "cpp", Label: "C++", Category: "Programming", Variants: []string{"c++", "cpp", "cplusplus"}},
	{Key: "ruby", Label: "Ruby", Category: "Programming", Variants: []string{"ruby", "ruby on rails", "rails"}},
	{Key: "php", Label: "PHP", Category: "Programming", Variants: []string{"php"}},
	{Key: "sql", Label: "SQL", Category: "Data", Variants: []string{"sql"}},
	{Key: "react", Label: "React", Category: "Framework", Variants: []string{"react", "reactjs", "react js"}},
	{Key: "angular", Label: "Angular", Category: "Framework", Variants: []string{"angular", "angularjs", "angular js"}},
	{Key: "vue", Label: "Vue", Category: "Framework", Variants: []string{"vue", "vuejs", "vue js"}},
	{Key: "nodejs", Label: "Node.js", Category: "Framework", Variants: []string{"node", "nodejs", "node js"}},
	{Key: "django", Label: "Django", Category: "Framework", Variants: []string{"django"}},
	{Key: "spring", Label: "Spring", Category: "Framework", Variants: []string{"spring", "spring boot", "springboot"}},
	{Key: "postgres", Label: "PostgreSQL", Category: "Database", Variants: []string{"postgres", "postgresql"}},
	{Key: "mysql", Label: "MySQL", Category: "Database", Variants: []string{"mysql"}},
	{Key: "mongodb", Label: "MongoDB", Category: "Database", Variants: []string{"mongodb", "mongo"}},
	{Key: "redis", Label: "Redis", Category: "Database", Variants: []string{"redis"}},
	{Key: "elasticsearch", Label: "Elasticsearch", Category: "Database", Variants: []string{"elasticsearch", "elastic search"}},
	{Key: "aws", Label: "AWS", Category: "Cloud", Variants: []string{"aws", "amazon web services"}},
	{Key: "gcp", Label: "GCP", Category: "Cloud", Variants: []string{"gcp", "google cloud", "google cloud platform"}},
	{Key: "azure", Label: "Azure", Category: "Cloud", Variants: []string{"azure", "microsoft azure"}},
	{Key: "kubernetes", Label: "Kubernetes", Category: "Cloud", Variants: []string{"kubernetes", "k8s"}},
	{Key: "docker", Label: "Docker", Category: "Cloud", Variants: []string{"docker"}},
	{Key: "terraform", Label: "Terraform", Category: "Cloud", Variants: []string{"terraform"}},
	{Key: "git", Label: "Git", Category: "Tooling", Variants: []string{"git", "github", "gitlab"}},
	{Key: "ci-cd", Label: "CI/CD", Category: "Tooling", Variants: []string{"ci cd", "cicd", "continuous integration", "continuous delivery"}},
	{Key: "linux", Label: "Linux", Category: "Tooling", Variants: []string{"linux", "unix"}},
	{Key: "graphql", Label: "GraphQL", Category: "API", Variants: []string{"graphql"}},
	{Key: "rest", Label: "REST APIs", Category: "API", Variants: []string{"rest", "rest api", "rest apis", "restful"}},
	{Key: "grpc", Label: "gRPC", Category: "API", Variants: []string{"grpc"}},
	{Key: "machine-learning", Label: "Machine Learning", Category: "Data", Variants: []string{"machine learning", "ml"}},
	{Key: "data-analysis", Label: "Data Analysis", Category: "Data", Variants: []string{"data analysis", "data analytics", "analytics"}},
	{Key: "excel", Label: "Excel", Category: "Tooling", Variants: []string{"excel", "microsoft excel"}},
	{Key: "agile", Label: "Agile", Category: "Process", Variants: []string{"agile", "scrum", "kanban"}},
	{Key: "project-management", Label: "Project Management", Category: "Process", Variants: []string{"project management", "program management"}},
	{Key: "leadership", Label: "Leadership", Category: "Soft Skill", Variants: []string{"leadership", "team leadership", "people management"}},
	{Key: "communication", Label: "Communication", Category: "Soft Skill", Variants: []string{"communication", "communication skills"}},
}

// taxonomyByVariant indexes the taxonomy by normalized variant string.
var taxonomyByVariant = func() map[string]*TaxonomyEntry {
	idx := make(map[string]*TaxonomyEntry)
	for i := range skillTaxonomy {
		for _, v := range skillTaxonomy[i].Variants {
			idx[v] = &skillTaxonomy[i]
		}
	}
	return idx
}()

var (
	bulletGlyphRe  = regexp.MustCompile(`[•·▪◦‣*]`)
	skillKeepRe    = regexp.MustCompile(`[^a-z0-9+ ]+`)
	slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// normalizeSkillName lowercases, converts bullet glyphs to spaces, strips
// everything except letters, digits, and '+', and collapses whitespace.
func normalizeSkillName(name string) string {
	s := strings.ToLower(name)
	s = bulletGlyphRe.ReplaceAllString(s, " ")
	s = skillKeepRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// slugifySkill derives a stable key for skills outside the taxonomy.
func slugifySkill(normalized string) string {
	slug := slugSeparators.ReplaceAllString(normalized, "-")
	return strings.Trim(slug, "-")
}

// titleCaseSkill derives a display label for skills outside the taxonomy.
func titleCaseSkill(normalized string) string {
	words := strings.Fields(normalized)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// CanonicalizeSkills maps raw skill strings to the controlled vocabulary and
// aggregates weights by key. Output is sorted by weight descending and capped
// at MaxCanonicalSkills.
func CanonicalizeSkills(userID uuid.UUID, raw []types.RawSkill) []types.CanonicalSkill {
	type agg struct {
		skill types.CanonicalSkill
		order int // first-seen order, used to keep weight ties deterministic
	}
	byKey := make(map[string]*agg)
	order := 0

	for _, rs := range raw {
		normalized := normalizeSkillName(rs.Name)
		if normalized == "" {
			continue
		}

		var key, label, category string
		if entry, ok := taxonomyByVariant[normalized]; ok {
			key, label, category = entry.Key, entry.Label, entry.Category
		} else {
			key = slugifySkill(normalized)
			if key == "" {
				continue
			}
			label = titleCaseSkill(normalized)
			category = CategoryOther
		}

		count := rs.SourceCount
		if count < 1 {
			count = 1
		}

		a, ok := byKey[key]
		if !ok {
			a = &agg{
				skill: types.CanonicalSkill{
					ID:       uuid.New(),
					UserID:   userID,
					Key:      key,
					Label:    label,
					Category: category,
				},
				order: order,
			}
			byKey[key] = a
			order++
		}
		a.skill.SourceSkillIDs = append(a.skill.SourceSkillIDs, rs.ID)
		a.skill.SourceCount += count
	}

	out := make([]types.CanonicalSkill, 0, len(byKey))
	orders := make(map[string]int, len(byKey))
	for key, a := range byKey {
		a.skill.Weight = a.skill.SourceCount
		orders[key] = a.order
		out = append(out, a.skill)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return orders[out[i].Key] < orders[out[j].Key]
	})

	if len(out) > MaxCanonicalSkills {
		out = out[:MaxCanonicalSkills]
	}
	return out
}
