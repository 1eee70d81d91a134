package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// ParseHDPath parses a BIP44 path such as m/44'/330'/0'/0/0 into child indexes.
func ParseHDPath(path string) ([]uint32, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(path), "m/"), "M/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid hd path %q: expected 5 components, got %d", path, len(parts))
	}

	indexes := make([]uint32, 0, len(parts))
	for i, part := range parts {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h") || strings.HasSuffix(part, "H")
		part = strings.TrimRight(part, "'hH")
		value, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("invalid hd path %q: component %d: %w", path, i, err)
		}
		if i < 3 && !hardened {
			return nil, fmt.Errorf("invalid hd path %q: component %d must be hardened", path, i)
		}
		index := uint32(value)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}
		indexes = append(indexes, index)
	}
	return indexes, nil
}
