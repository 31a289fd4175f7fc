// Package viz renders two-box runs in the terminal.
//
// Charts are drawn with asciigraph and sized to the terminal:
//
//   - [AnomalyChart]: surface anomaly per subset, with envelope and observations
//   - [EnvelopeChart]: central run between the envelope bounds
//   - [ForcingChart]: forcing categories or their sum
//   - [ObservationsChart]: observed record inside its 95% band
//
// [Explorer] is a Bubble Tea program that re-runs the model on every
// toggle.
//
// # Key Bindings
//
//	1-5 - Toggle feedback components
//	O   - Toggle ocean heat uptake
//	B   - Toggle the 1986-2005 baseline
//	U   - Toggle the uncertainty envelope
//	E   - Switch envelope mode (bounds / rss)
//	Tab - Cycle subsets
//	T   - Cycle color themes
//	Q   - Quit
package viz
