// Package matcher resolves natural-language queries against the application
// index. Matching runs as a cascade per app: exact substring match scores
// 1.0, alias-table match 0.9, and fuzzy similarity whatever the best token
// ratio is. Candidates below the configured threshold are dropped.
package matcher

import (
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/starford/raido/internal/models"
)

// Leading action verbs are stripped before tokenizing so "打开微信" and
// "微信" resolve identically.
var actionVerbs = []string{"打开", "启动", "运行", "开启", "launch", "open", "start", "run"}

const (
	exactConfidence = 1.0
	aliasConfidence = 0.9
	// Fuzzy scoring stops scanning tokens once one reaches this ratio.
	fuzzyEarlyExit = 0.9
)

// Matcher holds the alias table and matching knobs. Not safe for
// concurrent mutation; the orchestrator serializes access.
type Matcher struct {
	aliasExpansion bool
	fuzzyMatch     bool
	maxCandidates  int
	threshold      float64
	logger         *slog.Logger

	aliases map[string][]string
}

// New builds a matcher seeded with the built-in alias table plus any
// extra aliases from configuration.
func New(aliasExpansion, fuzzyMatch bool, maxCandidates int, threshold float64, extra map[string][]string, logger *slog.Logger) *Matcher {
	m := &Matcher{
		aliasExpansion: aliasExpansion,
		fuzzyMatch:     fuzzyMatch,
		maxCandidates:  maxCandidates,
		threshold:      threshold,
		logger:         logger,
		aliases:        defaultAliases(),
	}
	for app, aliases := range extra {
		for _, alias := range aliases {
			m.AddAlias(app, alias)
		}
	}
	return m
}

// Resolve parses query and ranks every app in index against it. The zero
// MatchResult (no matched app, confidence 0) is returned for an empty
// query or an empty index.
func (m *Matcher) Resolve(query string, index map[string]models.AppEntry) models.MatchResult {
	result := models.MatchResult{Query: query}
	if query == "" || len(index) == 0 {
		return result
	}

	keywords := m.tokenize(preprocess(query))
	if len(keywords) == 0 {
		return result
	}
	m.logger.Debug("matcher: tokenized query",
		slog.String("query", query),
		slog.Any("keywords", keywords))

	var candidates []models.Candidate
	for _, name := range sortedNames(index) {
		conf := m.score(keywords, name)
		if conf >= m.threshold {
			candidates = append(candidates, models.Candidate{Name: name, Confidence: conf})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Name < candidates[j].Name
	})
	if len(candidates) > m.maxCandidates {
		candidates = candidates[:m.maxCandidates]
	}

	if len(candidates) > 0 {
		result.MatchedApp = candidates[0].Name
		result.Confidence = candidates[0].Confidence
		result.Candidates = candidates
	}
	m.logger.Info("matcher: resolved",
		slog.String("query", query),
		slog.String("matched", result.MatchedApp),
		slog.Float64("confidence", result.Confidence))
	return result
}

// AddAlias registers alias for app, creating the entry if needed.
// Duplicate aliases are ignored.
func (m *Matcher) AddAlias(app, alias string) bool {
	if app == "" || alias == "" {
		return false
	}
	key := strings.ToLower(app)
	for _, a := range m.aliases[key] {
		if a == alias {
			return true
		}
	}
	m.aliases[key] = append(m.aliases[key], alias)
	m.logger.Info("matcher: alias added", slog.String("app", app), slog.String("alias", alias))
	return true
}

// Aliases returns the aliases bound to the app key, nil if none.
func (m *Matcher) Aliases(app string) []string {
	return m.aliases[strings.ToLower(app)]
}

func (m *Matcher) score(keywords []string, appName string) float64 {
	switch {
	case exactMatch(keywords, appName):
		return exactConfidence
	case m.aliasExpansion && m.aliasMatch(keywords, appName):
		return aliasConfidence
	case m.fuzzyMatch:
		return fuzzyScore(keywords, appName)
	}
	return 0
}

// exactMatch reports whether every keyword occurs in the app name.
func exactMatch(keywords []string, appName string) bool {
	lower := strings.ToLower(appName)
	for _, kw := range keywords {
		if !strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

// aliasMatch binds the app to an alias-table entry whose key contains the
// app name or vice versa, then checks keywords against those aliases.
func (m *Matcher) aliasMatch(keywords []string, appName string) bool {
	lower := strings.ToLower(appName)
	var bound []string
	for _, key := range m.sortedAliasKeys() {
		if strings.Contains(lower, key) || strings.Contains(key, lower) {
			bound = m.aliases[key]
			break
		}
	}
	for _, kw := range keywords {
		for _, alias := range bound {
			if strings.Contains(alias, kw) {
				return true
			}
		}
	}
	return false
}

// fuzzyScore is the best similarity ratio between any keyword and the app
// name, with an early exit once a token scores high enough.
func fuzzyScore(keywords []string, appName string) float64 {
	lower := strings.ToLower(appName)
	max := 0.0
	for _, kw := range keywords {
		if r := ratio(kw, lower); r > max {
			max = r
		}
		if max >= fuzzyEarlyExit {
			break
		}
	}
	return max
}

// ratio computes a character-level similarity in [0, 1] between two
// strings. Comparing per rune keeps CJK input meaningful.
func ratio(a, b string) float64 {
	sm := difflib.NewMatcher(splitRunes(a), splitRunes(b))
	return sm.Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// preprocess lowercases the query, strips one leading action verb, and
// normalizes punctuation to spaces.
func preprocess(query string) string {
	q := strings.ToLower(query)
	for _, verb := range actionVerbs {
		if strings.HasPrefix(q, verb) {
			q = strings.TrimSpace(q[len(verb):])
			break
		}
	}
	q = strings.Map(func(r rune) rune {
		switch r {
		case '，', '。', '！', '？', ',', '!', '.', '?':
			return ' '
		}
		return r
	}, q)
	return strings.Join(strings.Fields(q), " ")
}

// tokenize splits the preprocessed query into keywords. CJK input is
// segmented by consuming known aliases first and the remainder character
// by character; everything else splits on whitespace.
func (m *Matcher) tokenize(query string) []string {
	if query == "" {
		return nil
	}
	var keywords []string
	if containsCJK(query) {
		for _, key := range m.sortedAliasKeys() {
			for _, alias := range m.aliases[key] {
				if strings.Contains(query, alias) {
					keywords = append(keywords, alias)
					query = strings.ReplaceAll(query, alias, " ")
				}
			}
		}
		for _, r := range query {
			if !unicode.IsSpace(r) {
				keywords = append(keywords, string(r))
			}
		}
	} else {
		keywords = strings.Fields(query)
	}
	return dedupe(keywords)
}

func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (m *Matcher) sortedAliasKeys() []string {
	keys := make([]string, 0, len(m.aliases))
	for k := range m.aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedNames(index map[string]models.AppEntry) []string {
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
