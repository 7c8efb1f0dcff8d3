package verifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amcodin/SmartScraper/internal/models"
)

func TestCleanDetails(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", models.NoDetails},
		{"   ", models.NoDetails},
		{"Unlimited data", "Unlimited data"},
		{"Unlimited data!!! No lock-in", "Unlimited data! No lock-in"},
		{"*** ", "*"},
		{strings.Repeat("x", 60), strings.Repeat("x", 50)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cleanDetails(tc.in), "input %q", tc.in)
	}
}

func TestCleanPromoKeepsNull(t *testing.T) {
	assert.Nil(t, cleanPromo(nil))
	promo := "$10 off -- 6 months"
	assert.Equal(t, "$10 off - 6 months", *cleanPromo(&promo))
}
