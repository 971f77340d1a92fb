package book

import "time"

// Manifest records what was ingested into an index collection. Fingerprint
// and Model identify the catalog snapshot and encoder that produced it.
type Manifest struct {
	Fingerprint string    `json:"fingerprint"`
	Model       string    `json:"model"`
	Count       int       `json:"count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Matches reports whether the manifest was produced from the given catalog
// fingerprint and model.
func (m Manifest) Matches(fingerprint, model string) bool {
	return m.Fingerprint == fingerprint && m.Model == model
}
