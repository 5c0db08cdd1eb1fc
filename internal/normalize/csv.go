package normalize

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/ugrc/ltcfsync/pkg/types"
)

// LoadCSV reads the update batch CSV and normalizes it into update records.
func LoadCSV(path string, schema types.SchemaConfig) ([]types.UpdateRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening update batch: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading update batch: %w", err)
	}

	recs, err := Normalize(rows, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}
