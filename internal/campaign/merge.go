package campaign

import (
	"fmt"
	"time"

	"github.com/gyeh/outreach/internal/model"
	"github.com/gyeh/outreach/internal/normalize"
)

// Merge appends every import whose email is not yet in master as a new
// PENDING record. Existing rows are never modified, even when the import
// carries a different name or provider. The input slice is not mutated.
//
// It returns the merged table and the number of records added.
func Merge(master []model.Record, imports []model.ImportRecord, today time.Time) ([]model.Record, int, error) {
	seen := make(map[string]struct{}, len(master)+len(imports))
	for _, r := range master {
		seen[r.Email] = struct{}{}
	}

	merged := model.Clone(master)
	added := 0
	for i, in := range imports {
		in.Email = normalize.Email(in.Email)
		if in.Email == "" {
			return nil, 0, fmt.Errorf("%w: import row %d has no email", model.ErrMalformedInput, i+1)
		}
		if _, ok := seen[in.Email]; ok {
			continue
		}
		seen[in.Email] = struct{}{}
		merged = append(merged, model.NewRecord(in, today))
		added++
	}
	return merged, added, nil
}
