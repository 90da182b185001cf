// Package convert runs ordered converter strategies until one produces a
// non-empty output file, falling back to a placeholder when asked.
//
// A strategy only reports how its tool exited. Success is decided by the
// chain looking at the output file.
package convert
