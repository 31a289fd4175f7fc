// Package twobox turns a yearly forcing series into surface and deep-ocean
// temperature anomalies.
//
// [Model.Integrate] is the single engine entry point. It steps a
// [physics.TwoBox] with forward Euler at one-year intervals, starting from
// equilibrium, so the first sample of every [Anomaly] is zero.
// [Model.Envelope] repeats the run for the central, low and high feedback
// estimates concurrently. [Anomaly.Rebaseline] shifts a result onto a
// reference period.
package twobox
