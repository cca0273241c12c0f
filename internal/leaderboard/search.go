package leaderboard

import (
	"strings"

	"github.com/mmynk/bandpoints/internal/models"
)

// Search filters members whose name, email or section contains term,
// ignoring case. An empty term returns members unchanged.
func Search(members []models.Member, term string) []models.Member {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return members
	}

	var matched []models.Member
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.Name), term) ||
			strings.Contains(strings.ToLower(m.Email), term) ||
			strings.Contains(strings.ToLower(m.Section), term) {
			matched = append(matched, m)
		}
	}
	return matched
}
