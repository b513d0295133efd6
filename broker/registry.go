// Package broker implements the statement layouts of the supported brokers.
//
// Each layout is an adapter.Adapter. Adding a broker means writing a new
// adapter and appending it to the list in Registry.
package broker

import (
	"sync"

	"github.com/etnz/folio/adapter"
)

// Registry returns the registry of every supported layout, in trial order.
// It is built once and shared by the whole process.
var Registry = sync.OnceValues(func() (*adapter.Registry, error) {
	return adapter.NewRegistry(
		UBS{},
		RaymondJames{},
		FreedomFinance{},
	)
})
