package domain

// Protocol request kinds as they appear on the wire.
const (
	KindGetState       = "getState"
	KindRiskReport     = "riskReport"
	KindBlockDomain    = "blockDomain"
	KindAllowDomain    = "allowDomain"
	KindRemoveFromList = "removeFromList"
	KindUpdateSettings = "updateSettings"
)

// Request is the typed protocol request. Every message kind decodes to
// exactly one concrete type below, so the router can switch on type instead
// of re-inspecting payload shapes.
type Request interface {
	Kind() string
}

// GetStateRequest asks for settings, both lists, and the policy view of the
// requesting origin.
type GetStateRequest struct {
	Origin string `json:"origin"`
}

func (GetStateRequest) Kind() string { return KindGetState }

// RiskReportRequest delivers a completed page evaluation for a verdict.
type RiskReportRequest struct {
	URL      string   `json:"url"`
	Score    int      `json:"score"`
	Findings []string `json:"findings"`
	Host     string   `json:"host"`
	Domain   string   `json:"domain"`
}

func (RiskReportRequest) Kind() string { return KindRiskReport }

// Report repackages the request fields as a RiskReport value.
func (r RiskReportRequest) Report() RiskReport {
	return RiskReport{
		Score:    r.Score,
		Findings: r.Findings,
		Host:     r.Host,
		Domain:   r.Domain,
	}
}

// BlockDomainRequest moves a domain onto the block list.
type BlockDomainRequest struct {
	Domain string `json:"domain"`
}

func (BlockDomainRequest) Kind() string { return KindBlockDomain }

// AllowDomainRequest moves a domain onto the allow list.
type AllowDomainRequest struct {
	Domain string `json:"domain"`
}

func (AllowDomainRequest) Kind() string { return KindAllowDomain }

// RemoveFromListRequest removes a domain from one named list.
type RemoveFromListRequest struct {
	Domain string
	List   ListName
}

func (RemoveFromListRequest) Kind() string { return KindRemoveFromList }

// UpdateSettingsRequest applies a partial settings update.
type UpdateSettingsRequest struct {
	Settings SettingsPatch `json:"settings"`
}

func (UpdateSettingsRequest) Kind() string { return KindUpdateSettings }
