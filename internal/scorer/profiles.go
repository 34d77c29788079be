package scorer

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Profile holds the static narrative attributes and service capabilities for
// a known carrier. Carriers absent from the table simply get no narrative
// fields on their recommendation.
type Profile struct {
	Type            string   `yaml:"recommendation_type"`
	Strengths       []string `yaml:"strengths"`
	IdealFor        []string `yaml:"ideal_for"`
	HazmatCertified bool     `yaml:"hazmat_certified"`
	PrimePartner    bool     `yaml:"prime_partner"`
}

var profiles = mustLoadProfiles()

func mustLoadProfiles() map[string]Profile {
	var doc struct {
		Carriers map[string]Profile `yaml:"carriers"`
	}
	if err := yaml.Unmarshal(profilesYAML, &doc); err != nil {
		panic("scorer: embedded profiles.yaml is invalid: " + err.Error())
	}
	return doc.Carriers
}

// LookupProfile returns the static profile for a carrier name. The second
// return is false for carriers not in the table.
func LookupProfile(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}
