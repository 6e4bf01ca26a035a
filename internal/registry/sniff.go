package registry

import (
	"strings"
)

// DoubleSpace is the two-space separator used by fixed-width style exports.
const DoubleSpace = "  "

// DefaultDelimiters is the ordered list of delimiters tried when the sniffed
// delimiter does not parse.
var DefaultDelimiters = []string{",", ";", "\t", "|", DoubleSpace}

// minConsistency is the share of sample lines that must agree on a delimiter count.
const minConsistency = 0.9

// Sniff guesses the field delimiter of a text sample. A candidate qualifies
// when the same non-zero number of occurrences (outside quotes) appears on at
// least 90% of the sample lines. Among qualifying candidates the most
// consistent wins, then the one producing more columns, then candidate order.
func Sniff(sample string, candidates []string) (string, bool) {
	lines := sampleLines(sample)
	if len(lines) == 0 {
		return "", false
	}

	best := ""
	bestConsistency := 0.0
	bestCount := 0

	for _, delim := range candidates {
		mode, freq := modeCount(lines, delim)
		if mode == 0 {
			continue
		}
		consistency := float64(freq) / float64(len(lines))
		if consistency < minConsistency {
			continue
		}
		if consistency > bestConsistency || (consistency == bestConsistency && mode > bestCount) {
			best, bestConsistency, bestCount = delim, consistency, mode
		}
	}

	return best, best != ""
}

// sampleLines splits the sample into non-blank lines, dropping a trailing
// partial line cut by the sample window.
func sampleLines(sample string) []string {
	raw := strings.Split(strings.ReplaceAll(sample, "\r\n", "\n"), "\n")
	if len(raw) > 1 && !strings.HasSuffix(sample, "\n") {
		raw = raw[:len(raw)-1]
	}

	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// modeCount returns the most frequent non-zero per-line count of delim and how
// many lines share it.
func modeCount(lines []string, delim string) (mode, freq int) {
	freqs := make(map[int]int)
	for _, l := range lines {
		freqs[countOutsideQuotes(l, delim)]++
	}
	for count, n := range freqs {
		if count == 0 {
			continue
		}
		if n > freq || (n == freq && count > mode) {
			mode, freq = count, n
		}
	}
	return mode, freq
}

// countOutsideQuotes counts non-overlapping occurrences of delim that are not
// inside a double-quoted field.
func countOutsideQuotes(line, delim string) int {
	count := 0
	inQuotes := false
	for i := 0; i < len(line); {
		if line[i] == '"' {
			inQuotes = !inQuotes
			i++
			continue
		}
		if !inQuotes && strings.HasPrefix(line[i:], delim) {
			count++
			i += len(delim)
			continue
		}
		i++
	}
	return count
}
