package models

// TemperatureDepartment is one daily observation for a département.
// Date uses the upstream "2006-01-02" representation.
type TemperatureDepartment struct {
	Date           string  `json:"date_obs"`
	DepartmentCode string  `json:"code_insee_departement"`
	DepartmentName string  `json:"departement,omitempty"`
	TMin           float64 `json:"tmin"`
	TMax           float64 `json:"tmax"`
	TMoy           float64 `json:"tmoy"`
}

// TemperatureResults is the envelope returned by the temperatures API.
type TemperatureResults struct {
	TotalCount int                     `json:"total_count"`
	Results    []TemperatureDepartment `json:"results"`
}
