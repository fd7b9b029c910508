package report

import (
	"time"

	"github.com/zeluilo/hms-sub001/pkg/types"
)

// Aggregation is the result of bucketing records by calendar period.
// Skipped counts the records excluded because their payment date was
// missing or unparseable; callers decide whether to surface it.
type Aggregation struct {
	Period  types.Period                          `json:"period"`
	Buckets map[types.PeriodKey]types.PeriodBucket `json:"buckets"`
	Skipped int                                   `json:"skipped"`
}

// Aggregate buckets records by their payment date at the given calendar
// granularity. Sums and counts are order-independent; a zero amount still
// counts as a transaction.
func Aggregate(records []types.Record, period types.Period) *Aggregation {
	agg := &Aggregation{
		Period:  period,
		Buckets: make(map[types.PeriodKey]types.PeriodBucket),
	}

	for i := range records {
		paidAt, ok := records[i].PaymentTime()
		if !ok {
			agg.Skipped++
			continue
		}
		key := PeriodKeyFor(paidAt, period)
		bucket := agg.Buckets[key]
		accumulate(&bucket, &records[i])
		agg.Buckets[key] = bucket
	}

	return agg
}

// PeriodKeyFor formats the bucket key for a time at the given granularity.
func PeriodKeyFor(t time.Time, period types.Period) types.PeriodKey {
	switch period {
	case types.PeriodDay:
		return types.PeriodKey(t.Format("2006-01-02"))
	case types.PeriodYear:
		return types.PeriodKey(t.Format("2006"))
	default:
		return types.PeriodKey(t.Format("2006-01"))
	}
}

// WindowFor returns the inclusive calendar window containing now at the
// given granularity: today, this month or this year. The window is
// computed from the supplied clock value, so repeated calls near a
// boundary can legitimately shift buckets.
func WindowFor(period types.Period, now time.Time) types.DateRange {
	var start, next time.Time
	switch period {
	case types.PeriodDay:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		next = start.AddDate(0, 0, 1)
	case types.PeriodYear:
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		next = start.AddDate(1, 0, 0)
	default:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		next = start.AddDate(0, 1, 0)
	}
	return types.DateRange{Start: start, End: next.Add(-time.Nanosecond)}
}

// SumWindow totals the records whose payment date falls inside the window.
// The second return value counts records excluded for missing or
// unparseable payment dates.
func SumWindow(records []types.Record, window types.DateRange) (types.PeriodBucket, int) {
	var bucket types.PeriodBucket
	skipped := 0

	for i := range records {
		paidAt, ok := records[i].PaymentTime()
		if !ok {
			skipped++
			continue
		}
		if window.Contains(paidAt) {
			accumulate(&bucket, &records[i])
		}
	}

	return bucket, skipped
}

func accumulate(b *types.PeriodBucket, r *types.Record) {
	amount := r.Amount()
	switch r.Kind {
	case types.KindPrescription:
		b.Prescriptions = b.Prescriptions.Add(amount)
	case types.KindInvestigation:
		b.Investigations = b.Investigations.Add(amount)
	default:
		b.Appointments = b.Appointments.Add(amount)
	}
	b.Total = b.Total.Add(amount)
	b.Count++
}
