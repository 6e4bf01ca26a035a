// Package shared groups code used by several packages without belonging to
// any of them. Its testutil subpackage captures slog output so tests can
// assert on what a pipeline logged.
package shared
