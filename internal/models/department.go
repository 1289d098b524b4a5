package models

// Department is a French administrative département as served by the departments API.
// TMoy is only set on copies produced for a given date; the canonical list never carries it.
type Department struct {
	Code       string   `json:"code"`
	Name       string   `json:"nom"`
	RegionCode string   `json:"codeRegion,omitempty"`
	TMoy       *float64 `json:"tMoy,omitempty"`
}

// Clone returns a deep copy of the department.
func (d Department) Clone() Department {
	c := d
	if d.TMoy != nil {
		v := *d.TMoy
		c.TMoy = &v
	}
	return c
}
