package ranges

import (
	"encoding/json"
	"fmt"

	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

type prefixesDocument struct {
	SyncToken    string           `json:"syncToken"`
	CreationTime string           `json:"creationTime"`
	Prefixes     []prefixesRecord `json:"prefixes"`
}

type prefixesRecord struct {
	IPv4Prefix string `json:"ipv4Prefix"`
	IPv6Prefix string `json:"ipv6Prefix"`
}

// ParsePrefixesJSON decodes a Google "prefixes" document and returns the selected
// prefixes in document order. For an entry carrying both families the IPv4 prefix
// comes first. Entries without a selected field are skipped.
func ParsePrefixesJSON(body []byte, selector Selector) ([]Prefix, error) {
	var doc prefixesDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode prefixes document: %w", err)
	}

	result := make([]Prefix, 0, len(doc.Prefixes))
	for _, rec := range doc.Prefixes {
		if rec.IPv4Prefix != "" && selector.Includes(V4) {
			if p, err := parseCIDR(rec.IPv4Prefix, V4); err != nil {
				log.Debugf("Skipping prefix entry: %v", err)
			} else {
				result = append(result, p)
			}
		}
		if rec.IPv6Prefix != "" && selector.Includes(V6) {
			if p, err := parseCIDR(rec.IPv6Prefix, V6); err != nil {
				log.Debugf("Skipping prefix entry: %v", err)
			} else {
				result = append(result, p)
			}
		}
	}

	return result, nil
}
