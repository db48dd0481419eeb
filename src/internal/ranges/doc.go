// Package ranges turns remote range documents into normalized prefixes.
//
// Two wire formats are understood:
//
//   - the Google "prefixes" JSON document, where every entry may carry an
//     ipv4Prefix and/or ipv6Prefix CIDR string;
//   - the RIR delegation file, where each record is
//     registry|cc|type|start|value|date|status and value is a host count for
//     ipv4 rows and a prefix length for ipv6 rows.
//
// Both parsers honour a Selector (4, 6 or 46). An unknown selector matches
// nothing, so every row is silently excluded rather than failing the build.
// IPv4 host counts that are not a power of two cannot be expressed as a single
// CIDR and are skipped with a diagnostic.
//
// Every function here is pure: same input, same output, same order.
package ranges
