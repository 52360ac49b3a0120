package domain

// Settings are the user-tunable scoring knobs.
//
// Threshold is the warn cutoff compared against RiskReport.Score. Writers
// clamp it to [0,100]; readers trust the stored value and never clamp.
// The two weight fields feed the early estimator only; the full scorer uses
// fixed weights.
type Settings struct {
	Threshold           int `json:"threshold"`
	SuspiciousTLDWeight int `json:"suspiciousTLDWeight"`
	PunycodeWeight      int `json:"punycodeWeight"`
}

// DefaultSettings returns the shipped defaults.
func DefaultSettings() Settings {
	return Settings{
		Threshold:           60,
		SuspiciousTLDWeight: 15,
		PunycodeWeight:      25,
	}
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	Threshold           *int `json:"threshold,omitempty"`
	SuspiciousTLDWeight *int `json:"suspiciousTLDWeight,omitempty"`
	PunycodeWeight      *int `json:"punycodeWeight,omitempty"`
}

// Apply shallow-merges the patch into s and returns the result.
// Threshold is clamped to [0,100] here so no writer can store an
// out-of-range cutoff.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Threshold != nil {
		s.Threshold = clampThreshold(*p.Threshold)
	}
	if p.SuspiciousTLDWeight != nil {
		s.SuspiciousTLDWeight = *p.SuspiciousTLDWeight
	}
	if p.PunycodeWeight != nil {
		s.PunycodeWeight = *p.PunycodeWeight
	}
	return s
}

// IsZero reports whether the patch changes nothing.
func (p SettingsPatch) IsZero() bool {
	return p.Threshold == nil && p.SuspiciousTLDWeight == nil && p.PunycodeWeight == nil
}

func clampThreshold(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
