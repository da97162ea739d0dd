// Package storeerror provides error inspection for durable store backends.
// It centralizes the logic for recognising quota and contention failures
// reported by the file system and SQLite, so callers never match error strings
// themselves.
package storeerror
