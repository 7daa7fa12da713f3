// Package grading implements shot classification and validity tiers.
//
// Classification grades a single shot against a set of per-metric threshold
// rules using worst-metric aggregation: each template metric is graded A/B/C
// on its own, and the shot's overall grade is the worst individual grade. A
// template metric the shot does not report grades C; it is never skipped,
// since skipping would silently hide missing-sensor data.
//
// Validity tiers classify sample size: fewer than 5 shots is insufficient,
// 5–14 carries a low-sample warning, 15 or more is full validity. These are
// policy constants, not inferred from data.
package grading
