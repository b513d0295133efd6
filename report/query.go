package report

import (
	"fmt"

	"github.com/PaesslerAG/jsonpath"
)

// Query evaluates a JSONPath expression over the JSON document of the report,
// e.g. "$.total.amount" or "$.holdings[?(@.key=='TICKER:XYZ')].quantity".
func Query(r *Report, path string) (any, error) {
	v, err := generic(r)
	if err != nil {
		return nil, err
	}
	val, err := jsonpath.Get(path, v)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", path, err)
	}
	// jsonpath returns a list of one answer for filters: keep the answer.
	if list, ok := val.([]any); ok && len(list) == 1 {
		val = list[0]
	}
	return val, nil
}
