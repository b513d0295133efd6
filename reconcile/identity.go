package reconcile

import (
	"maps"
	"slices"
	"strings"

	"github.com/etnz/folio"
)

// identities resolves the identity of securities printed with different
// identifiers by different brokers.
//
// It is a union-find over identifier keys: a ticker printed on the same row
// as an ISIN (or a CUSIP, promoted to its ISIN) is linked to it, and so are
// the tickers of the reference map. A set never holds two ISINs: a ticker
// already linked to an ISIN keeps its first link. The key of a set is its
// ISIN, or its smallest ticker key when no ISIN is known.
type identities struct {
	parent map[string]string
	isin   map[string]string // root -> ISIN of the set
}

func newIdentities(refs map[string]string) *identities {
	ids := &identities{parent: make(map[string]string), isin: make(map[string]string)}
	// sorted, since tickers differing by case only compete for the same link.
	for _, ticker := range slices.Sorted(maps.Keys(refs)) {
		isin := strings.ToUpper(strings.TrimSpace(refs[ticker]))
		if folio.ValidateISIN(isin) != nil {
			continue
		}
		ids.union(folio.TickerKey(ticker), isin)
	}
	return ids
}

func (ids *identities) find(k string) string {
	p, ok := ids.parent[k]
	if !ok {
		ids.parent[k] = k
		if folio.ValidateISIN(k) == nil {
			ids.isin[k] = k
		}
		return k
	}
	if p == k {
		return k
	}
	root := ids.find(p)
	ids.parent[k] = root
	return root
}

// union links two keys, unless their sets have different ISINs.
func (ids *identities) union(a, b string) {
	ra, rb := ids.find(a), ids.find(b)
	if ra == rb {
		return
	}
	ia, ib := ids.isin[ra], ids.isin[rb]
	if ia != "" && ib != "" && ia != ib {
		return
	}
	// the smallest root wins, so that the result does not depend on the order of the links.
	if rb < ra {
		ra, rb = rb, ra
	}
	ids.parent[rb] = ra
	if ids.isin[ra] == "" {
		ids.isin[ra] = ids.isin[rb]
	}
	delete(ids.isin, rb)
}

// observe records the identifiers printed together for a security.
func (ids *identities) observe(s folio.Security) {
	k := s.Key()
	if k == "" {
		return
	}
	ids.find(k)
	if s.Ticker != "" {
		ids.union(k, folio.TickerKey(s.Ticker))
	}
}

// key returns the resolved identity key of a security, "" when it has no identifier.
func (ids *identities) key(s folio.Security) string {
	k := s.Key()
	if k == "" {
		return ""
	}
	root := ids.find(k)
	if isin := ids.isin[root]; isin != "" {
		return isin
	}
	return root
}

// enrich completes the identifiers of a security with its resolved ISIN.
func (ids *identities) enrich(s folio.Security) folio.Security {
	if s.ISIN == "" {
		if k := ids.key(s); folio.ValidateISIN(k) == nil {
			s.ISIN = k
		}
	}
	return s
}
