package report

import (
	"strconv"
	"strings"

	"github.com/zeluilo/hms-sub001/pkg/types"
)

// Filter narrows a flat record list by the view's filter state. The three
// predicates compose by AND; an empty term, status or range passes every
// record through. Pure: the input slice is never modified.
func Filter(records []types.Record, state types.FilterState) []types.Record {
	out := make([]types.Record, 0, len(records))
	for i := range records {
		if matches(&records[i], state) {
			out = append(out, records[i])
		}
	}
	return out
}

// FilterGroups narrows grouped records. A group is retained when any of
// its members matches all active predicates; retained groups keep their
// full member list so the row still shows every line item.
func FilterGroups(groups []types.Group, state types.FilterState) []types.Group {
	out := make([]types.Group, 0, len(groups))
	for _, g := range groups {
		for i := range g.Items {
			if matches(&g.Items[i], state) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

func matches(r *types.Record, state types.FilterState) bool {
	return matchesTerm(r, state.Term) &&
		matchesStatus(r, state.Status) &&
		matchesRange(r, state.Range)
}

// matchesTerm is a case-insensitive substring match over first name, last
// name and the stringified patient id; any field matching retains the
// record. A blank or whitespace-only term filters nothing.
func matchesTerm(r *types.Record, term string) bool {
	term = strings.TrimSpace(strings.ToLower(term))
	if term == "" {
		return true
	}

	fields := []string{
		strings.ToLower(r.FirstName),
		strings.ToLower(r.LastName),
		strconv.Itoa(r.PatientID),
	}
	for _, f := range fields {
		if strings.Contains(f, term) {
			return true
		}
	}
	return false
}

// matchesStatus matches exactly against either legacy status column.
func matchesStatus(r *types.Record, status types.PaymentStatus) bool {
	if status == "" {
		return true
	}
	return r.Status == status || r.PaymentStatus == status
}

// matchesRange retains a record when any of its category-relevant dates
// falls inside the inclusive range. Absent or unparseable dates never
// match an active range.
func matchesRange(r *types.Record, rng *types.DateRange) bool {
	if rng == nil {
		return true
	}
	for _, raw := range r.RelevantDates() {
		if t, ok := types.ParseDate(raw); ok && rng.Contains(t) {
			return true
		}
	}
	return false
}
