package finance

// SeriesRow is one labelled table row, values in page column order.
type SeriesRow struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// Series maps a row label to its period values, keeping page order.
type Series []SeriesRow

// Set stores values under label. A label seen before keeps its position
// and takes the new values.
func (s *Series) Set(label string, values []string) {
	for i := range *s {
		if (*s)[i].Label == label {
			(*s)[i].Values = values
			return
		}
	}
	*s = append(*s, SeriesRow{Label: label, Values: values})
}

// Get returns the values stored under label.
func (s Series) Get(label string) ([]string, bool) {
	for _, row := range s {
		if row.Label == label {
			return row.Values, true
		}
	}
	return nil, false
}

// Labels returns the row labels in insertion order.
func (s Series) Labels() []string {
	labels := make([]string, 0, len(s))
	for _, row := range s {
		labels = append(labels, row.Label)
	}
	return labels
}
