package contracts

import (
	"encoding/json"
	"strings"
)

// AssetUniverse is the ordered set of asset identifiers of one run
// ⭐ SSOT: column order of every ReturnMatrix and WeightVector
type AssetUniverse struct {
	symbols []string
	index   map[string]int
}

// NewAssetUniverse validates and freezes the identifiers in the given order.
// Identifiers are trimmed; blanks and duplicates are rejected.
func NewAssetUniverse(symbols []string) (*AssetUniverse, error) {
	if len(symbols) == 0 {
		return nil, Preconditionf("asset universe is empty")
	}

	u := &AssetUniverse{
		symbols: make([]string, 0, len(symbols)),
		index:   make(map[string]int, len(symbols)),
	}
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, Preconditionf("blank asset identifier")
		}
		if _, dup := u.index[s]; dup {
			return nil, Preconditionf("duplicate asset identifier %q", s)
		}
		u.index[s] = len(u.symbols)
		u.symbols = append(u.symbols, s)
	}
	return u, nil
}

// Symbols returns a copy of the identifiers in universe order
func (u *AssetUniverse) Symbols() []string {
	out := make([]string, len(u.symbols))
	copy(out, u.symbols)
	return out
}

// Len returns N
func (u *AssetUniverse) Len() int {
	return len(u.symbols)
}

// Symbol returns the identifier at column i
func (u *AssetUniverse) Symbol(i int) string {
	return u.symbols[i]
}

// Index returns the column of symbol
func (u *AssetUniverse) Index(symbol string) (int, bool) {
	i, ok := u.index[symbol]
	return i, ok
}

// Contains reports whether symbol is in the universe
func (u *AssetUniverse) Contains(symbol string) bool {
	_, ok := u.index[symbol]
	return ok
}

// Without returns a new universe with the given symbols removed,
// preserving the order of the rest
func (u *AssetUniverse) Without(drop ...string) (*AssetUniverse, error) {
	skip := make(map[string]bool, len(drop))
	for _, s := range drop {
		skip[s] = true
	}

	kept := make([]string, 0, len(u.symbols))
	for _, s := range u.symbols {
		if !skip[s] {
			kept = append(kept, s)
		}
	}
	return NewAssetUniverse(kept)
}

// MarshalJSON encodes the universe as a plain array
func (u *AssetUniverse) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.symbols)
}
