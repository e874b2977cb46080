// Package votingservice manages a voter's journey through one recurrence
// window: overwritable drafts, per-question draft answers, the forward-only
// NOT_STARTED/IN_PROGRESS/SUBMITTED status machine, and submission.
// Submission assembles the response from the latest draft rows and hands it
// to the outbox; aggregation happens downstream.
package votingservice
