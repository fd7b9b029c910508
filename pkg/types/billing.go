package types

// BillingData bundles the three billing collections a payment view is
// computed from.
type BillingData struct {
	Appointments   []Record `json:"appointments"`
	Prescriptions  []Record `json:"prescriptions"`
	Investigations []Record `json:"investigations"`
}

// All returns the three collections flattened into one record list.
func (bd *BillingData) All() []Record {
	all := make([]Record, 0, len(bd.Appointments)+len(bd.Prescriptions)+len(bd.Investigations))
	all = append(all, bd.Appointments...)
	all = append(all, bd.Prescriptions...)
	all = append(all, bd.Investigations...)
	return all
}
