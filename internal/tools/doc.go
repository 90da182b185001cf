// Package tools provides the subprocess helpers shared by every pipeline.
//
// Ownership boundary:
// - command execution on the local host
//
// - converter process environment (locale pinning)
package tools
