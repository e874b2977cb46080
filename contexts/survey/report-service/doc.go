// Package reportservice folds finalized responses into per-answer counters
// with voter attribution and serves the overview and detail report views.
// Aggregation is idempotent per (voter, question, answer): the attribution
// row is the fence that keeps replays from double-counting.
package reportservice
