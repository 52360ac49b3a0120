package domain

// PolicyState is a point-in-time copy of the settings and both policy lists.
// Lists are sorted so repeated reads of unchanged state compare equal.
type PolicyState struct {
	Settings  Settings `json:"settings"`
	AllowList []string `json:"allowlist"`
	BlockList []string `json:"blocklist"`
}
