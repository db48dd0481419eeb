package ranges

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is an IP address family.
type Version int

const (
	V4 Version = 4
	V6 Version = 6
)

// MaxBits returns the address width of the family, or 0 for an unknown family.
func (v Version) MaxBits() int {
	switch v {
	case V4:
		return 32
	case V6:
		return 128
	default:
		return 0
	}
}

// Selector chooses which address families end up in the block.
type Selector int

const (
	SelectV4   Selector = 4
	SelectV6   Selector = 6
	SelectBoth Selector = 46
)

// Valid reports whether s is one of 4, 6 or 46.
func (s Selector) Valid() bool {
	return s == SelectV4 || s == SelectV6 || s == SelectBoth
}

// Includes reports whether prefixes of family v pass the selector.
func (s Selector) Includes(v Version) bool {
	switch s {
	case SelectV4:
		return v == V4
	case SelectV6:
		return v == V6
	case SelectBoth:
		return v == V4 || v == V6
	default:
		return false
	}
}

func (s Selector) String() string {
	return strconv.Itoa(int(s))
}

// ParseSelector parses "4", "6" or "46".
func ParseSelector(s string) (Selector, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid ip version selector %q", s)
	}
	sel := Selector(n)
	if !sel.Valid() {
		return 0, fmt.Errorf("invalid ip version selector %q (expected 4, 6 or 46)", s)
	}
	return sel, nil
}

// Prefix is a single normalized CIDR entry.
type Prefix struct {
	Address string  `json:"address"`
	Bits    int     `json:"bits"`
	Version Version `json:"version"`
}

// String returns the CIDR text form, e.g. "66.249.64.0/27".
func (p Prefix) String() string {
	return p.Address + "/" + strconv.Itoa(p.Bits)
}

// parseCIDR splits a CIDR string of the given family. The address is kept verbatim.
func parseCIDR(s string, v Version) (Prefix, error) {
	s = strings.TrimSpace(s)
	slash := strings.LastIndexByte(s, '/')
	if slash <= 0 {
		return Prefix{}, fmt.Errorf("missing prefix length in %q", s)
	}

	bits, err := strconv.Atoi(s[slash+1:])
	if err != nil {
		return Prefix{}, fmt.Errorf("invalid prefix length in %q", s)
	}
	if bits < 0 || bits > v.MaxBits() {
		return Prefix{}, fmt.Errorf("prefix length %d out of range for IPv%d", bits, v)
	}

	return Prefix{Address: s[:slash], Bits: bits, Version: v}, nil
}
