package logging

import (
	"maps"
	"slices"
)

// logParamsToZapParams flattens extra into zap's alternating key/value
// form. Keys are sorted so the same call always logs the same field order.
func logParamsToZapParams(keys map[ExtraKey]any) []any {
	params := make([]any, 0, 2*len(keys))

	for _, k := range slices.Sorted(maps.Keys(keys)) {
		params = append(params, string(k), keys[k])
	}

	return params
}

func logParamsToZeroParams(keys map[ExtraKey]any) map[string]any {
	params := make(map[string]any, len(keys))

	for k, v := range keys {
		params[string(k)] = v
	}

	return params
}
