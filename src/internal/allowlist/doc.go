// Package allowlist ties the pieces together: it decides whether the block in the
// target file needs rebuilding, fetches every registered source, renders the
// block and writes it back.
//
// A single failing source never fails a build. Its header is still rendered so
// the block shows which source contributed nothing, and the failure is reported
// in BuildResult.Sources. Only target file errors and cancellation abort a build.
package allowlist
