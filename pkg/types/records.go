package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordKind discriminates the three billable line categories
type RecordKind string

const (
	KindAppointment   RecordKind = "appointment"
	KindPrescription  RecordKind = "prescription"
	KindInvestigation RecordKind = "investigation"
)

// PaymentStatus represents payment status values as the backend emits them
type PaymentStatus string

const (
	StatusHasPaid  PaymentStatus = "Has Paid"
	StatusNotPaid  PaymentStatus = "Not Paid"
	StatusRejected PaymentStatus = "Rejected"
)

// Record is one flat billable line item as returned by the backend.
// Exactly one amount field is authoritative per kind; the others stay nil.
// Date fields arrive as strings and are parsed on demand because the
// backend is not consistent about which layout it uses.
type Record struct {
	Kind            RecordKind `json:"type"`
	PatientID       int        `json:"pId"`
	BookingID       int        `json:"bookingId,omitempty"`
	PaymentID       int        `json:"paymentId,omitempty"`
	InvestigationID int        `json:"investigation_id,omitempty"`

	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Drug      string `json:"drug,omitempty"`

	Price              *decimal.Decimal `json:"price,omitempty"`
	TotalAmount        *decimal.Decimal `json:"total_amount,omitempty"`
	PrescriptionPrice  *decimal.Decimal `json:"prescription_price,omitempty"`
	InvestigationPrice *decimal.Decimal `json:"investigation_price,omitempty"`

	Status        PaymentStatus `json:"status,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`

	BookingDate       string `json:"booking_date,omitempty"`
	PrescriptionDate  string `json:"prescription_date,omitempty"`
	InvestigationDate string `json:"investigation_date,omitempty"`
	PaymentDate       string `json:"payment_datecreate,omitempty"`
}

// Amount resolves the authoritative amount for the record's kind.
// Appointments fall back to the visit's base price; a record with no
// amount at all is a free visit and contributes zero.
func (r *Record) Amount() decimal.Decimal {
	switch r.Kind {
	case KindPrescription:
		if r.PrescriptionPrice != nil {
			return *r.PrescriptionPrice
		}
	case KindInvestigation:
		if r.InvestigationPrice != nil {
			return *r.InvestigationPrice
		}
	default:
		if r.TotalAmount != nil {
			return *r.TotalAmount
		}
		if r.Price != nil {
			return *r.Price
		}
	}
	return decimal.Zero
}

// EffectiveStatus returns the record's payment status regardless of which
// of the two legacy columns the backend populated.
func (r *Record) EffectiveStatus() PaymentStatus {
	if r.Status != "" {
		return r.Status
	}
	return r.PaymentStatus
}

// PaymentTime parses the record's payment date. The second return is false
// when the date is absent or unparseable.
func (r *Record) PaymentTime() (time.Time, bool) {
	return ParseDate(r.PaymentDate)
}

// RelevantDates returns the raw date fields that apply to the record's kind,
// used by date-range filtering. Unset fields are omitted.
func (r *Record) RelevantDates() []string {
	candidates := [...]string{r.BookingDate, r.PrescriptionDate, r.InvestigationDate, r.PaymentDate}
	dates := make([]string, 0, len(candidates))
	for _, d := range candidates {
		if d != "" {
			dates = append(dates, d)
		}
	}
	return dates
}

// dateLayouts lists the layouts the backend has been observed to emit.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a backend date string, trying each known layout.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
