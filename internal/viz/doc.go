// Package viz renders fit results for the terminal: lipgloss panels for
// summaries and asciigraph line charts for trajectories and convergence.
package viz
