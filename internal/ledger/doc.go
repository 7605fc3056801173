// Package ledger holds the rent ledger rules: rent status resolution,
// rent indexation and the expense split.
//
// Every function here is pure. The current date is always passed in by the
// caller and nothing is read from a clock, logged or persisted.
package ledger
