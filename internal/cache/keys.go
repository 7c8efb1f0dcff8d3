package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/amcodin/SmartScraper/internal/models"
)

// HashStrings returns a SHA256 hash of the provided strings with newline separators.
func HashStrings(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PlanKey identifies a plan by url, name and speeds.
func PlanKey(plan models.Plan) string {
	return HashStrings(plan.Identity()...)
}
