package xref

// LinkStatus is the validation outcome for one recorded link.
type LinkStatus struct {
	Symbol string `json:"symbol"`
	Target string `json:"target"`
	Valid  bool   `json:"valid"`
}

// LinkReport aggregates link validation for an index.
type LinkReport struct {
	Valid      int          `json:"valid"`
	Broken     int          `json:"broken"`
	TotalLinks int          `json:"totalLinks"`
	Details    []LinkStatus `json:"details"`
}
