// Package hashing provides MD5 checksum calculation utilities.
//
// Checksums are diagnostic only: the fetcher records the MD5 of every source
// body it downloads, and the HTTP delivery layer uses the checksum of the
// target file as an ETag. Staleness of the generated block is decided by its
// embedded date, never by a checksum.
//
// # Example Usage
//
//	proxy := hashing.NewMD5ReaderProxy(resp.Body)
//	content, _ := io.ReadAll(proxy)
//	checksum, _ := proxy.GetChecksum()
package hashing
