package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	apperrors "ruccli/internal/errors"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestReportError_NotFoundListsDirectory(t *testing.T) {
	err := apperrors.NewNotFoundError("SRI_RUC_Sucumbios.csv").
		WithContext("path", "SRI_RUC_Sucumbios.csv").
		WithContext("directory_listing", []string{"SRI_RUC_Napo.csv", "datos/"})

	var buf bytes.Buffer
	ReportError(&buf, fmt.Errorf("failed to load registry: %w", err))

	assert.Equal(t,
		"Archivo no encontrado: SRI_RUC_Sucumbios.csv\n"+
			"\nArchivos en el directorio actual:\n"+
			" - SRI_RUC_Napo.csv\n"+
			" - datos/\n",
		buf.String())
}

func TestReportError_NotFoundEmptyDirectory(t *testing.T) {
	err := apperrors.NewNotFoundError("x.csv").
		WithContext("path", "x.csv").
		WithContext("directory_listing", []string{})

	var buf bytes.Buffer
	ReportError(&buf, err)
	assert.Contains(t, buf.String(), "(vacío)")
}

func TestReportError_Locked(t *testing.T) {
	err := apperrors.NewPermissionError("output file is open in another program", &fs.PathError{Op: "rename", Err: fs.ErrPermission}).
		WithContext("path", "vendedores_libros_filtrados.xlsx")

	var buf bytes.Buffer
	ReportError(&buf, err)

	out := buf.String()
	assert.Contains(t, out, "ABIERTO")
	assert.Contains(t, out, "vendedores_libros_filtrados.xlsx")
	assert.Contains(t, out, "Por favor ciérralo y vuelve a ejecutar el programa.")
}

func TestReportError_Other(t *testing.T) {
	var buf bytes.Buffer
	ReportError(&buf, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())

	buf.Reset()
	ReportError(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestReportFallback(t *testing.T) {
	var buf bytes.Buffer
	ReportFallback(&buf, "salida.xlsx")
	assert.Contains(t, buf.String(), "salida.xlsx")
}
