// Package cli holds what the classifier and choropleth commands share:
// configuration and telemetry bootstrap, and the console diagnostics printed
// when a run cannot complete.
package cli
