package quiz

import (
	"sort"

	"quizzle/internal/models"
)

type Report struct {
	Correct    int             `json:"correct"`
	Incorrect  int             `json:"incorrect"`
	Total      int             `json:"total"`
	Percentage int             `json:"percentage"`
	Passed     bool            `json:"passed"`
	Grade      string          `json:"grade"`
	Level      string          `json:"level"`
	Time       TimeMetrics     `json:"time"`
	Groups     []GroupAnalysis `json:"groups,omitempty"`
}

type TimeMetrics struct {
	TotalSeconds          int    `json:"totalSeconds"`
	AvgSecondsPerQuestion int    `json:"avgSecondsPerQuestion"`
	Efficiency            string `json:"efficiency"`
}

type GroupAnalysis struct {
	Name           string `json:"name"`
	Correct        int    `json:"correct"`
	Total          int    `json:"total"`
	Accuracy       int    `json:"accuracy"`
	Performance    string `json:"performance"`
	Recommendation string `json:"recommendation"`
	Questions      []int  `json:"questions"`
}

// BuildReport derives the report of a finished attempt from its snapshot.
// Full-syllabus results are grouped by subject, the rest by chapter.
// displayName maps a group key to a readable name and may be nil.
func BuildReport(result *models.QuizResult, displayName func(string) string) Report {
	questions := result.Questions
	correct := 0
	for _, q := range questions {
		if q.Correct() {
			correct++
		}
	}
	total := len(questions)
	pct := Percentage(correct, total)
	grade, level := Grade(pct)

	key := func(q models.AnsweredQuestion) string { return q.Chapter }
	if result.QuizType == models.QuizTypeFullSyllabus {
		key = func(q models.AnsweredQuestion) string { return q.Subject }
	}

	return Report{
		Correct:    correct,
		Incorrect:  total - correct,
		Total:      total,
		Percentage: pct,
		Passed:     models.Passed(pct),
		Grade:      grade,
		Level:      level,
		Time:       timeMetrics(result.TimeSpentSeconds, total, pct),
		Groups:     analyseGroups(questions, key, displayName),
	}
}

// Grade maps a percentage to a letter and a level.
func Grade(percentage int) (string, string) {
	switch {
	case percentage >= 90:
		return "A+", "Excellent"
	case percentage >= 80:
		return "A", "Very Good"
	case percentage >= 70:
		return "B", "Good"
	case percentage >= 60:
		return "C", "Satisfactory"
	default:
		return "F", "Needs Improvement"
	}
}

func timeMetrics(seconds, total, pct int) TimeMetrics {
	tm := TimeMetrics{TotalSeconds: seconds, Efficiency: "Low"}
	if total > 0 {
		tm.AvgSecondsPerQuestion = (2*seconds + total) / (2 * total)
	}
	switch {
	case pct > 80:
		tm.Efficiency = "High"
	case pct > 60:
		tm.Efficiency = "Medium"
	}
	return tm
}

func analyseGroups(questions []models.AnsweredQuestion, key func(models.AnsweredQuestion) string, displayName func(string) string) []GroupAnalysis {
	byName := make(map[string]*GroupAnalysis)
	var order []string
	for i, q := range questions {
		name := key(q)
		if name == "" {
			name = "Other Topics"
		} else if displayName != nil {
			name = displayName(name)
		}
		g, ok := byName[name]
		if !ok {
			g = &GroupAnalysis{Name: name}
			byName[name] = g
			order = append(order, name)
		}
		g.Total++
		g.Questions = append(g.Questions, i+1)
		if q.Correct() {
			g.Correct++
		}
	}

	out := make([]GroupAnalysis, 0, len(order))
	for _, name := range order {
		g := byName[name]
		g.Accuracy = Percentage(g.Correct, g.Total)
		g.Performance, g.Recommendation = performance(g.Accuracy)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Accuracy > out[j].Accuracy })
	return out
}

func performance(accuracy int) (string, string) {
	switch {
	case accuracy >= 80:
		return "Excellent", "Great job! You have mastered this topic."
	case accuracy >= 70:
		return "Good", "Good understanding. Review a few concepts to reach mastery."
	case accuracy >= 60:
		return "Fair", "Adequate knowledge. Practice more to improve confidence."
	default:
		return "Needs Review", "Focus on understanding core concepts and practice more questions."
	}
}
