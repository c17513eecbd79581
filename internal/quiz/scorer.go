package quiz

import (
	"sort"

	"quizzle/internal/models"
)

type Score struct {
	Correct    int          `json:"correctCount"`
	Total      int          `json:"totalQuestions"`
	Percentage int          `json:"percentage"`
	Passed     bool         `json:"passed"`
	Breakdown  []GroupScore `json:"breakdown,omitempty"`
}

type GroupScore struct {
	Group      string `json:"group"`
	Correct    int    `json:"correct"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// ScoreAnswers counts exact matches against each question's correct option.
// Unanswered questions count as incorrect.
func ScoreAnswers(questions []models.Question, answers map[int]string) Score {
	correct := 0
	for i, q := range questions {
		if a, ok := answers[i]; ok && a == q.CorrectOption {
			correct++
		}
	}
	pct := Percentage(correct, len(questions))
	return Score{
		Correct:    correct,
		Total:      len(questions),
		Percentage: pct,
		Passed:     models.Passed(pct),
	}
}

// ScoreBySubject is ScoreAnswers plus a per-subject breakdown.
func ScoreBySubject(questions []models.Question, answers map[int]string) Score {
	score := ScoreAnswers(questions, answers)
	score.Breakdown = Breakdown(questions, answers, func(q models.Question) string { return q.Subject })
	return score
}

// Breakdown groups question indices by key and scores each group. Groups
// are ordered by key.
func Breakdown(questions []models.Question, answers map[int]string, key func(models.Question) string) []GroupScore {
	groups := make(map[string]*GroupScore)
	for i, q := range questions {
		k := key(q)
		g, ok := groups[k]
		if !ok {
			g = &GroupScore{Group: k}
			groups[k] = g
		}
		g.Total++
		if a, ok := answers[i]; ok && a == q.CorrectOption {
			g.Correct++
		}
	}

	out := make([]GroupScore, 0, len(groups))
	for _, g := range groups {
		g.Percentage = Percentage(g.Correct, g.Total)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

// Percentage is round-half-up of correct/total*100, and 0 for an empty quiz.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}
