// Package store defines the persistence interfaces of the study engine
// and shared helpers (transactions, error taxonomy) used by all
// implementations.
package store
