package ranges

import (
	"reflect"
	"testing"
)

const googlebotDocument = `{
  "creationTime": "2026-10-14T23:00:40.000000",
  "prefixes": [
    {"ipv6Prefix": "2001:4860:4801:10::/64"},
    {"ipv4Prefix": "66.249.64.0/27"},
    {"ipv4Prefix": "66.249.64.32/27"},
    {"ipv4Prefix": "192.178.4.0/27", "ipv6Prefix": "2001:4860:4801:12::/64"},
    {}
  ]
}`

func prefixStrings(prefixes []Prefix) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, p.String())
	}
	return out
}

func TestParsePrefixesJSON_Selectors(t *testing.T) {
	tests := []struct {
		name     string
		selector Selector
		want     []string
	}{
		{
			name:     "ipv4 only",
			selector: SelectV4,
			want:     []string{"66.249.64.0/27", "66.249.64.32/27", "192.178.4.0/27"},
		},
		{
			name:     "ipv6 only",
			selector: SelectV6,
			want:     []string{"2001:4860:4801:10::/64", "2001:4860:4801:12::/64"},
		},
		{
			name:     "both keeps document order",
			selector: SelectBoth,
			want: []string{
				"2001:4860:4801:10::/64",
				"66.249.64.0/27",
				"66.249.64.32/27",
				"192.178.4.0/27",
				"2001:4860:4801:12::/64",
			},
		},
		{
			name:     "invalid selector excludes everything",
			selector: Selector(7),
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrefixesJSON([]byte(googlebotDocument), tt.selector)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if strs := prefixStrings(got); !reflect.DeepEqual(strs, tt.want) {
				t.Errorf("got %v, want %v", strs, tt.want)
			}
			for _, p := range got {
				if !tt.selector.Includes(p.Version) {
					t.Errorf("prefix %s of family %d leaked through selector %s", p, p.Version, tt.selector)
				}
			}
		})
	}
}

func TestParsePrefixesJSON_InvalidDocument(t *testing.T) {
	if _, err := ParsePrefixesJSON([]byte("<html>rate limited</html>"), SelectV4); err == nil {
		t.Error("Expected decode error for non-JSON body")
	}
}

func TestParsePrefixesJSON_SkipsMalformedEntries(t *testing.T) {
	body := `{"prefixes":[{"ipv4Prefix":"8.8.4.0"},{"ipv4Prefix":"8.8.8.0/24"},{"ipv4Prefix":"1.1.1.0/40"}]}`

	got, err := ParsePrefixesJSON([]byte(body), SelectV4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strs := prefixStrings(got); !reflect.DeepEqual(strs, []string{"8.8.8.0/24"}) {
		t.Errorf("got %v", strs)
	}
}

func TestParsePrefixesJSON_Deterministic(t *testing.T) {
	first, _ := ParsePrefixesJSON([]byte(googlebotDocument), SelectBoth)
	second, _ := ParsePrefixesJSON([]byte(googlebotDocument), SelectBoth)
	if !reflect.DeepEqual(first, second) {
		t.Error("Repeated parsing must produce identical output")
	}
}
