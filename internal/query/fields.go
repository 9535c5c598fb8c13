package query

import (
	"fmt"
	"sort"

	"github.com/archivedive/dive/internal/materialize"
)

// datasetKeys maps a filter document's top-level selection keys to datasets,
// in detection precedence order.
var datasetKeys = []struct {
	key     string
	dataset materialize.Dataset
}{
	{"logs", materialize.DatasetLogs},
	{"transactions", materialize.DatasetTransactions},
	{"traces", materialize.DatasetTraces},
	{"blocks", materialize.DatasetBlocks},
}

// fieldSectionKey is the sub-object of "fields" holding the per-kind
// selection for each dataset.
var fieldSectionKey = map[materialize.Dataset]string{
	materialize.DatasetLogs:         "log",
	materialize.DatasetTransactions: "transaction",
	materialize.DatasetTraces:       "trace",
	materialize.DatasetBlocks:       "block",
}

// DetectDataset derives the active dataset from a filter document's
// top-level keys. The first matching key in precedence order wins.
func DetectDataset(filter map[string]any) (materialize.Dataset, error) {
	for _, entry := range datasetKeys {
		if _, ok := filter[entry.key]; ok {
			return entry.dataset, nil
		}
	}
	return 0, fmt.Errorf("filter document selects no dataset")
}

// ExtractFields returns the field names whose selection flag is true in the
// filter's per-dataset fields section, sorted for deterministic column order.
func ExtractFields(filter map[string]any, dataset materialize.Dataset) []string {
	fields, ok := filter["fields"].(map[string]any)
	if !ok {
		return nil
	}
	section, ok := fields[fieldSectionKey[dataset]].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(section))
	for name, value := range section {
		if enabled, ok := value.(bool); ok && enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
