package store

import (
	"strings"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
)

// CategoryAll disables the category gate
const CategoryAll = "all"

// FilterQuestions projects the collection into the view the forum list
// renders: soft-deleted questions are excluded, the search text matches
// question text or author name case-insensitively, and the category
// must match unless it is CategoryAll. Pure: the input is never
// mutated and its order is preserved.
func FilterQuestions(questions []models.Question, search, category string) []models.Question {
	search = strings.ToLower(strings.TrimSpace(search))

	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if q.IsDeleted {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(q.Text), search) &&
			!strings.Contains(strings.ToLower(q.Author.DisplayName), search) {
			continue
		}
		if category != CategoryAll && category != "" && q.Category != category {
			continue
		}
		out = append(out, q)
	}
	return out
}
