package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	apperrors "ruccli/internal/errors"
	"ruccli/internal/files"
)

var (
	failure = color.New(color.FgRed, color.Bold)
	warning = color.New(color.FgYellow)
	muted   = color.New(color.FgHiBlack)
)

// ReportError prints a human diagnostic for err. Missing inputs list the
// directory they were expected in; a locked output asks for the file to be
// closed. Anything else prints the error text.
func ReportError(w io.Writer, err error) {
	if err == nil {
		return
	}

	switch {
	case apperrors.IsType(err, apperrors.ErrTypeNotFound):
		reportNotFound(w, err)
	case files.IsLocked(err):
		path, _ := apperrors.ContextValue(err, "path")
		failure.Fprintf(w, "\nNo se pudo reemplazar el archivo porque está ABIERTO en otro programa: %v\n", path)
		warning.Fprintln(w, "Por favor ciérralo y vuelve a ejecutar el programa.")
	default:
		failure.Fprintf(w, "Error: %v\n", err)
	}
}

func reportNotFound(w io.Writer, err error) {
	path, ok := apperrors.ContextValue(err, "path")
	if !ok {
		failure.Fprintf(w, "Error: %v\n", err)
		return
	}
	failure.Fprintf(w, "Archivo no encontrado: %v\n", path)

	listing, ok := apperrors.ContextValue(err, "directory_listing")
	if !ok {
		return
	}
	names, _ := listing.([]string)

	fmt.Fprintln(w, "\nArchivos en el directorio actual:")
	if len(names) == 0 {
		muted.Fprintln(w, " (vacío)")
	}
	for _, name := range names {
		fmt.Fprintln(w, " -", name)
	}
}

// ReportFallback tells the user an open output was replaced through the
// temporary file.
func ReportFallback(w io.Writer, path string) {
	warning.Fprintf(w, "El archivo %s estaba ABIERTO; se reemplazó mediante un archivo temporal.\n", path)
}
