package domain

// SoilSample holds the measured properties of the soil to be stabilized.
// Percentages are by mass; whatever clay and silt leave over is treated as
// sand and other coarse material.
type SoilSample struct {
	ClayPct         float64 `json:"clay_pct" yaml:"clay_pct"`
	SiltPct         float64 `json:"silt_pct" yaml:"silt_pct"`
	MoisturePct     float64 `json:"moisture_pct" yaml:"moisture_pct"`
	PlasticityIndex float64 `json:"plasticity_index" yaml:"plasticity_index"`
	PH              float64 `json:"ph" yaml:"ph"`
}

// Fines returns the combined clay and silt fraction.
func (s SoilSample) Fines() float64 {
	return s.ClayPct + s.SiltPct
}

// Sand returns the coarse remainder after clay and silt.
func (s SoilSample) Sand() float64 {
	sand := 100 - s.Fines()
	if sand < 0 {
		return 0
	}
	return sand
}
