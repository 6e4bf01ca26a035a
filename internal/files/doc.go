// Package files provides the file system helpers of the tools.
//
// SafeWriter writes output files that may be locked by another program: it
// tries the target, falls back to a temporary file plus an atomic rename, and
// reports an unresolved conflict as a PERMISSION error instead of leaving a
// corrupted file behind.
//
// ListDirectory produces the directory listing printed when an expected input
// file is missing.
//
// Example usage:
//
//	w := files.NewSafeWriter("_temp_output.xlsx", logger)
//	res, err := w.Write("vendedores_libros_filtrados.xlsx", data)
//	if files.IsLocked(err) {
//	    // ask the user to close the workbook
//	}
package files
