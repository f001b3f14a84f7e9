package utils

import (
	"fmt"
	"path"
	"strings"
)

// MatchesName checks if a task name matches a filter
// Filter examples:
//   - "compile" matches only the task "compile"
//   - "test:*" matches "test:unit" and "test:integration"
//   - "!docs*" matches every task not starting with "docs"
func MatchesName(name, filter string) (bool, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true, nil
	}

	negate := strings.HasPrefix(filter, "!")
	if negate {
		filter = strings.TrimSpace(filter[1:])
		if filter == "" {
			return false, fmt.Errorf("invalid name filter: %q", "!")
		}
	}

	matched, err := path.Match(filter, name)
	if err != nil {
		return false, fmt.Errorf("invalid name filter %q: %w", filter, err)
	}

	return matched != negate, nil
}

// FilterNames returns the names matching at least one filter, in input order.
// Without filters every name is returned.
func FilterNames(names, filters []string) ([]string, error) {
	if len(filters) == 0 {
		return append([]string(nil), names...), nil
	}

	var result []string
	for _, name := range names {
		for _, filter := range filters {
			matched, err := MatchesName(name, filter)
			if err != nil {
				return nil, err
			}
			if matched {
				result = append(result, name)
				break
			}
		}
	}
	return result, nil
}
