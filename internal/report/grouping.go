package report

import (
	"github.com/zeluilo/hms-sub001/pkg/types"
)

// KeyFunc extracts the grouping key for a record.
type KeyFunc func(r *types.Record) types.GroupKey

// PaymentKey groups paid items by payment id and payment date. Items that
// have not been paid yet carry no payment id and fall back to grouping by
// patient, matching how the billing views bundle outstanding charges.
func PaymentKey(r *types.Record) types.GroupKey {
	if r.PaymentID != 0 {
		return types.GroupKey{
			PaymentID:   r.PaymentID,
			PaymentDate: r.PaymentDate,
		}
	}
	return types.GroupKey{PatientID: r.PatientID}
}

// PatientKey groups records by patient alone, used for debtor views where
// all outstanding lines for one patient form a single row.
func PatientKey(r *types.Record) types.GroupKey {
	return types.GroupKey{PatientID: r.PatientID}
}

// Group partitions records into groups by the given key function. Every
// record lands in exactly one group; groups and their members preserve
// first-seen input order. Empty input yields an empty slice.
func Group(records []types.Record, keyFn KeyFunc) []types.Group {
	groups := make([]types.Group, 0, len(records))
	index := make(map[types.GroupKey]int, len(records))

	for i := range records {
		key := keyFn(&records[i])
		if at, ok := index[key]; ok {
			groups[at].Items = append(groups[at].Items, records[i])
			continue
		}
		index[key] = len(groups)
		groups = append(groups, types.Group{
			Key:   key,
			Items: []types.Record{records[i]},
		})
	}

	return groups
}
