package criteria

import (
	"github.com/samrum/doorflow/service/dao"
)

// Match reports whether a record's field value satisfies the named list
// parameter. Parameters for other fields never exclude a record.
func Match(name, actual string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != name {
			continue
		}
		switch expected := parameter.Value.(type) {
		case string:
			if actual != expected {
				return false
			}
		case []string:
			found := false
			for _, candidate := range expected {
				if actual == candidate {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}
