package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Plan is an NBN plan tracked on a provider page. Price is the last known
// monthly price, nil when it has never been verified.
type Plan struct {
	ID            int64     `json:"id,omitempty" yaml:"-"`
	Provider      string    `json:"provider" yaml:"provider"`
	URL           string    `json:"url" yaml:"url"`
	PlanName      string    `json:"plan_name" yaml:"plan_name"`
	DownloadSpeed float64   `json:"download_speed" yaml:"download_speed"`
	UploadSpeed   float64   `json:"upload_speed" yaml:"upload_speed"`
	Price         *float64  `json:"price,omitempty" yaml:"price,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// Validate reports the first missing identity field.
func (p Plan) Validate() error {
	switch {
	case strings.TrimSpace(p.URL) == "":
		return fmt.Errorf("plan: url is required")
	case strings.TrimSpace(p.PlanName) == "":
		return fmt.Errorf("plan: plan_name is required")
	case p.DownloadSpeed <= 0:
		return fmt.Errorf("plan %q: download_speed must be positive", p.PlanName)
	}
	return nil
}

// Identity is the tuple a cached verification is keyed on.
func (p Plan) Identity() []string {
	return []string{
		strings.TrimSpace(p.URL),
		strings.TrimSpace(p.PlanName),
		formatSpeed(p.DownloadSpeed),
		formatSpeed(p.UploadSpeed),
	}
}

func formatSpeed(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PlanFile is the YAML document accepted by `plans import`.
type PlanFile struct {
	Plans []Plan `yaml:"plans"`
}
