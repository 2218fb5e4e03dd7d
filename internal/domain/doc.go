// Package domain contains the core value types for the home info cache.
//
// This package is the innermost layer: it has no dependencies on the file
// system, HTTP or logging and holds only pure functions and values.
//
// # Types
//
//   - [Resource]: the cached home info value, an [Object] or an [Array]
//   - [Snapshot]: the persisted record wrapping a resource
//   - [State]: the (resource, loading, error) triple exposed to consumers
//   - [ChangeEvent]: a notification that the persisted entry changed
//
// # Validity
//
// A resource is valid iff it is a JSON object with at least one key or a
// JSON array with at least one element. Everything else is treated as
// absent: null, primitives, empty objects, empty arrays and malformed JSON.
// [DecodeResource] and [ParseSnapshot] apply this rule and never return an
// error: a corrupt cache is equivalent to an empty one.
package domain
