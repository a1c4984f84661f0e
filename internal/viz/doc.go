// Package viz renders run results for the terminal: lipgloss panels for
// summaries and asciigraph line charts for population series, spectra and
// coefficient sweeps.
package viz
