package classify

import (
	"log/slog"
	"regexp"
	"strings"

	apperrors "ruccli/internal/errors"
	"ruccli/internal/registry"
	"ruccli/internal/textnorm"
)

// Classifier applies compiled Rules to registry records.
type Classifier struct {
	include  *regexp.Regexp
	exclude  *regexp.Regexp
	prefixes []string
	logger   *slog.Logger
}

// Columns names the registry columns the classifier reads.
type Columns struct {
	Description string
	Code        string
}

// Result is the outcome of Classify.
type Result struct {
	// Table holds the selected records with the description normalized.
	Table *registry.Table
	// TextMatches and CodeMatches count each path before de-duplication.
	TextMatches int
	CodeMatches int
	// Excluded counts records an include pattern selected and a keyword vetoed.
	Excluded int
	Total    int
}

// Compile validates rules and builds a Classifier. Patterns and keywords go
// through the same normalization as descriptions, so accented and plain
// spellings collapse to one entry.
func Compile(rules Rules) (*Classifier, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	c := &Classifier{logger: slog.Default()}

	if include := unique(rules.Include, textnorm.Strip); len(include) > 0 {
		re, err := regexp.Compile(`(?i)(?:` + strings.Join(include, "|") + `)`)
		if err != nil {
			return nil, apperrors.NewValidationError("failed to compile include patterns").
				WithContext("error", err.Error())
		}
		c.include = re
	}

	if exclude := unique(rules.Exclude, textnorm.Fold); len(exclude) > 0 {
		quoted := make([]string, len(exclude))
		for i, k := range exclude {
			quoted[i] = regexp.QuoteMeta(k)
		}
		c.exclude = regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
	}

	for _, p := range rules.CodePrefixes {
		if p = strings.TrimSpace(p); p != "" {
			c.prefixes = append(c.prefixes, p)
		}
	}

	return c, nil
}

// WithLogger sets the logger used for the classification summary.
func (c *Classifier) WithLogger(logger *slog.Logger) *Classifier {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// unique normalizes every entry and drops blanks and repeats, keeping order.
func unique(items []string, normalize func(string) string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		f := strings.TrimSpace(normalize(it))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// MatchText reports whether a description is selected by the include
// patterns and not vetoed by an exclude keyword.
func (c *Classifier) MatchText(desc string) bool {
	ok, _ := c.matchText(desc)
	return ok
}

// matchText also reports whether an include pattern matched but was vetoed.
func (c *Classifier) matchText(desc string) (matched, vetoed bool) {
	if c.include == nil {
		return false, false
	}
	norm := textnorm.Fold(desc)
	if !c.include.MatchString(norm) {
		return false, false
	}
	if c.exclude != nil && c.exclude.MatchString(norm) {
		return false, true
	}
	return true, false
}

// MatchCode reports whether the trimmed code starts with a whitelisted prefix.
func (c *Classifier) MatchCode(code string) bool {
	code = strings.TrimSpace(code)
	for _, p := range c.prefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

// Classify selects the records matching either path. The text subset comes
// first, then the code subset, each in source order; a record is kept once,
// at its first occurrence.
func (c *Classifier) Classify(table *registry.Table, cols Columns) (*Result, error) {
	descIdx, err := table.Column(cols.Description)
	if err != nil {
		return nil, err
	}
	codeIdx, err := table.Column(cols.Code)
	if err != nil {
		return nil, err
	}

	work := table.Clone()
	for _, row := range work.Rows {
		row[descIdx] = textnorm.Fold(row[descIdx])
	}

	res := &Result{Total: work.Len()}

	var textRows, codeRows [][]string
	for _, row := range work.Rows {
		matched, vetoed := c.matchText(row[descIdx])
		if matched {
			textRows = append(textRows, row)
		}
		if vetoed {
			res.Excluded++
		}
		if c.MatchCode(row[codeIdx]) {
			codeRows = append(codeRows, row)
		}
	}
	res.TextMatches = len(textRows)
	res.CodeMatches = len(codeRows)

	seen := make(map[string]bool, len(textRows)+len(codeRows))
	out := &registry.Table{
		Header:    work.Header,
		Source:    work.Source,
		Delimiter: work.Delimiter,
		Rows:      [][]string{},
	}
	for _, row := range append(textRows, codeRows...) {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Rows = append(out.Rows, row)
	}
	res.Table = out

	c.logger.Info("Registry classified",
		slog.Int("total", res.Total),
		slog.Int("text_matches", res.TextMatches),
		slog.Int("code_matches", res.CodeMatches),
		slog.Int("excluded", res.Excluded),
		slog.Int("selected", out.Len()))

	return res, nil
}
