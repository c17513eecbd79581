package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizzle/internal/models"
)

func answered(group string, correct bool, fullSyllabus bool) models.AnsweredQuestion {
	user := "B"
	if correct {
		user = "A"
	}
	q := models.AnsweredQuestion{Question: "q", Options: []string{"A", "B"}, Answer: "A", UserAnswer: &user}
	if fullSyllabus {
		q.Subject = group
	} else {
		q.Chapter = group
	}
	return q
}

func TestGrade(t *testing.T) {
	tests := []struct {
		pct          int
		grade, level string
	}{
		{100, "A+", "Excellent"},
		{90, "A+", "Excellent"},
		{89, "A", "Very Good"},
		{70, "B", "Good"},
		{60, "C", "Satisfactory"},
		{59, "F", "Needs Improvement"},
	}
	for _, tt := range tests {
		grade, level := Grade(tt.pct)
		assert.Equal(t, tt.grade, grade, tt.pct)
		assert.Equal(t, tt.level, level, tt.pct)
	}
}

func TestBuildReport_GroupsByChapter(t *testing.T) {
	// Arrange
	result := &models.QuizResult{
		QuizType:         models.QuizTypeSubject,
		TimeSpentSeconds: 125,
		Questions: []models.AnsweredQuestion{
			answered("ch1", true, false),
			answered("ch2", false, false),
			answered("ch1", true, false),
			answered("", false, false),
		},
	}

	// Act
	r := BuildReport(result, nil)

	// Assert
	assert.Equal(t, 2, r.Correct)
	assert.Equal(t, 2, r.Incorrect)
	assert.Equal(t, 50, r.Percentage)
	assert.False(t, r.Passed)
	assert.Equal(t, "F", r.Grade)
	assert.Equal(t, TimeMetrics{TotalSeconds: 125, AvgSecondsPerQuestion: 31, Efficiency: "Low"}, r.Time)

	require.Len(t, r.Groups, 3)
	assert.Equal(t, "ch1", r.Groups[0].Name)
	assert.Equal(t, 100, r.Groups[0].Accuracy)
	assert.Equal(t, "Excellent", r.Groups[0].Performance)
	assert.Equal(t, []int{1, 3}, r.Groups[0].Questions)
	assert.Equal(t, "ch2", r.Groups[1].Name)
	assert.Equal(t, "Other Topics", r.Groups[2].Name)
	assert.Equal(t, "Needs Review", r.Groups[2].Performance)
}

func TestBuildReport_FullSyllabusGroupsBySubjectName(t *testing.T) {
	result := &models.QuizResult{
		QuizType: models.QuizTypeFullSyllabus,
		Questions: []models.AnsweredQuestion{
			answered("operating-systems", true, true),
			answered("data-analytics", true, true),
			answered("data-analytics", false, true),
		},
	}
	names := map[string]string{"operating-systems": "Operating Systems", "data-analytics": "Data Analytics"}

	r := BuildReport(result, func(id string) string { return names[id] })

	require.Len(t, r.Groups, 2)
	assert.Equal(t, "Operating Systems", r.Groups[0].Name)
	assert.Equal(t, "Data Analytics", r.Groups[1].Name)
	assert.Equal(t, 50, r.Groups[1].Accuracy)
	assert.Equal(t, "Medium", r.Time.Efficiency)
}
