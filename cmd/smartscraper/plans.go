package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/amcodin/SmartScraper/internal/models"
)

// loadPlans decodes a plan file. Entries without a provider inherit the
// file-level default.
//
//	provider: Example Telco
//	plans:
//	  - url: https://example.com/nbn
//	    plan_name: NBN 100/20
//	    download_speed: 100
//	    upload_speed: 20
//	    price: 89
func loadPlans(r io.Reader) ([]models.Plan, error) {
	var doc struct {
		Provider        string `yaml:"provider"`
		models.PlanFile `yaml:",inline"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	if len(doc.Plans) == 0 {
		return nil, fmt.Errorf("decode plans: no plans listed")
	}
	for i := range doc.Plans {
		if doc.Plans[i].Provider == "" {
			doc.Plans[i].Provider = doc.Provider
		}
		if err := doc.Plans[i].Validate(); err != nil {
			return nil, fmt.Errorf("plans[%d]: %w", i, err)
		}
	}
	return doc.Plans, nil
}
