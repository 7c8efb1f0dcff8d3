package verifier

import (
	"strings"
	"unicode"

	"github.com/amcodin/SmartScraper/internal/models"
)

const maxDetailsRunes = 50

// cleanDetails truncates details to 50 runes and drops a special character
// whenever the next one is special too.
func cleanDetails(details string) string {
	runes := []rune(strings.TrimSpace(details))
	if len(runes) > maxDetailsRunes {
		runes = runes[:maxDetailsRunes]
	}
	out := make([]rune, 0, len(runes))
	for i, r := range runes {
		if isSpecial(r) && i+1 < len(runes) && isSpecial(runes[i+1]) {
			continue
		}
		out = append(out, r)
	}
	cleaned := strings.TrimSpace(string(out))
	if cleaned == "" {
		return models.NoDetails
	}
	return cleaned
}

func cleanPromo(promo *string) *string {
	if promo == nil {
		return nil
	}
	cleaned := cleanDetails(*promo)
	return &cleaned
}

func isSpecial(r rune) bool {
	return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) && !unicode.IsSpace(r)
}
