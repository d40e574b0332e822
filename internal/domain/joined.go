package domain

// JoinedRecord is one unit with the attribute values that matched its key.
// It is produced once per pipeline run and not mutated afterwards.
type JoinedRecord struct {
	Unit       *AdministrativeUnit   `json:"unit"`
	Attributes map[MetricKey]float64 `json:"attributes"`
}

// Attribute returns the value in the metric+period slot, if present.
func (jr *JoinedRecord) Attribute(metric string, period Period) (float64, bool) {
	v, ok := jr.Attributes[MetricKey{Metric: metric, Period: period}]
	return v, ok
}

// RejectedRecord is an attribute row whose key matched no unit. Rejects are
// part of the join output so unmatched source rows can be audited.
type RejectedRecord struct {
	Record AttributeRecord `json:"record"`
	Reason string          `json:"reason"`
}
