// Package delivery presents build results: a terminal report, an HTML preview, a
// file download and the one-line delete message.
package delivery
