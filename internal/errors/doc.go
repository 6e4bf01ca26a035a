// Package errors defines the typed application error used by both pipelines.
//
// Every failure that should surface to the operator is an *AppError carrying an
// ErrorType (PARSING, STORAGE, VALIDATION, NOT_FOUND, PERMISSION, CONFIG,
// GEOMETRY), a message, an optional cause and free-form context. Callers use
// IsType / GetType to branch on the failure class and ContextValue to pull
// diagnostics (for example the directory listing attached to a missing input).
package errors
