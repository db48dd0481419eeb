package ranges

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

const (
	typeIPv4 = "ipv4"
	typeIPv6 = "ipv6"

	minDelegationFields = 5
)

// Row is one record of a registry delegation file.
type Row struct {
	Registry string
	Country  string
	Type     string
	Start    string
	Value    string
}

// ParseRows splits a delegation file into records. Blank lines, comments and
// records with fewer than five fields are dropped.
func ParseRows(body []byte) []Row {
	lines := strings.Split(string(body), "\n")
	rows := make([]Row, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < minDelegationFields {
			continue
		}

		rows = append(rows, Row{
			Registry: parts[0],
			Country:  parts[1],
			Type:     parts[2],
			Start:    parts[3],
			Value:    parts[4],
		})
	}

	return rows
}

// FilterResult is the output of Filter.
type FilterResult struct {
	Prefixes []Prefix
	// Skipped counts rows that matched country and family but carried a value
	// that cannot be turned into a prefix.
	Skipped int
}

// Filter keeps rows for country whose family passes the selector and converts them
// to prefixes. Order follows the input.
func Filter(rows []Row, selector Selector, country string) FilterResult {
	var result FilterResult

	for _, row := range rows {
		if row.Country != country {
			continue
		}

		var (
			prefix Prefix
			err    error
		)
		switch row.Type {
		case typeIPv4:
			if !selector.Includes(V4) {
				continue
			}
			prefix, err = ipv4RowPrefix(row)
		case typeIPv6:
			if !selector.Includes(V6) {
				continue
			}
			prefix, err = ipv6RowPrefix(row)
		default:
			continue
		}

		if err != nil {
			log.Debugf("Skipping %s delegation row %s|%s: %v", row.Country, row.Start, row.Value, err)
			result.Skipped++
			continue
		}
		result.Prefixes = append(result.Prefixes, prefix)
	}

	return result
}

// ParseDelegation is ParseRows followed by Filter.
func ParseDelegation(body []byte, country string, selector Selector) FilterResult {
	return Filter(ParseRows(body), selector, country)
}

// HostCountBits returns 32 - log2(hostCount) for a power-of-two IPv4 host count.
func HostCountBits(hostCount uint64) (int, error) {
	if hostCount == 0 || hostCount > 1<<32 {
		return 0, fmt.Errorf("host count %d out of range", hostCount)
	}
	if hostCount&(hostCount-1) != 0 {
		return 0, fmt.Errorf("host count %d is not a power of two", hostCount)
	}
	return 32 - (bits.Len64(hostCount) - 1), nil
}

func ipv4RowPrefix(row Row) (Prefix, error) {
	if row.Start == "" {
		return Prefix{}, fmt.Errorf("empty start address")
	}
	count, err := strconv.ParseUint(strings.TrimSpace(row.Value), 10, 64)
	if err != nil {
		return Prefix{}, fmt.Errorf("invalid host count %q", row.Value)
	}
	prefixLen, err := HostCountBits(count)
	if err != nil {
		return Prefix{}, err
	}
	return Prefix{Address: row.Start, Bits: prefixLen, Version: V4}, nil
}

// ipv6RowPrefix uses the value as the prefix length; the registry encodes it directly.
func ipv6RowPrefix(row Row) (Prefix, error) {
	if row.Start == "" {
		return Prefix{}, fmt.Errorf("empty start address")
	}
	prefixLen, err := strconv.Atoi(strings.TrimSpace(row.Value))
	if err != nil || prefixLen < 0 || prefixLen > V6.MaxBits() {
		return Prefix{}, fmt.Errorf("invalid prefix length %q", row.Value)
	}
	return Prefix{Address: row.Start, Bits: prefixLen, Version: V6}, nil
}
