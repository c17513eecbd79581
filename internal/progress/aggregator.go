// Package progress folds a user's quiz history into derived statistics.
// Everything here is a pure function of the result set and is recomputed
// on every request.
package progress

import (
	"math"
	"sort"
	"time"

	"quizzle/internal/models"
)

type SubjectProgress struct {
	LessonsCompleted     int  `json:"lessonsCompleted"`
	TotalLessons         int  `json:"totalLessons"`
	AverageScore         int  `json:"averageScore"`
	TotalQuizzesTaken    int  `json:"totalQuizzesTaken"`
	SubjectQuizCompleted bool `json:"subjectQuizCompleted"`
}

type UserProgress struct {
	Subjects map[string]SubjectProgress `json:"subjects"`
	Streak   int                        `json:"streak"`
}

type Stats struct {
	TotalQuizzes   int `json:"totalQuizzes"`
	AverageScore   int `json:"averageScore"`
	PassRate       int `json:"passRate"`
	TotalTimeSpent int `json:"totalTimeSpent"`
	Streak         int `json:"streak"`
}

type LessonProgress struct {
	Completed bool `json:"completed"`
	Score     int  `json:"score"`
}

// Aggregate groups results by subject. Only subjects with at least one
// result appear; totalLessons comes from lessonCounts.
func Aggregate(results []models.QuizResult, lessonCounts map[string]int, now time.Time) UserProgress {
	groups := make(map[string][]models.QuizResult)
	for _, r := range results {
		groups[r.SubjectID] = append(groups[r.SubjectID], r)
	}

	subjects := make(map[string]SubjectProgress, len(groups))
	for id, rs := range groups {
		completed := make(map[string]struct{})
		var passedSum, passedCount int
		var subjectDone bool

		for _, r := range rs {
			if r.QuizType == models.QuizTypeLesson && r.ScorePercent >= models.PassThreshold {
				completed[r.LessonTitle] = struct{}{}
			}
			if r.Passed {
				passedSum += r.ScorePercent
				passedCount++
				if r.QuizType == models.QuizTypeSubject {
					subjectDone = true
				}
			}
		}

		subjects[id] = SubjectProgress{
			LessonsCompleted:     len(completed),
			TotalLessons:         lessonCounts[id],
			AverageScore:         roundedMean(passedSum, passedCount),
			TotalQuizzesTaken:    len(rs),
			SubjectQuizCompleted: subjectDone,
		}
	}

	return UserProgress{
		Subjects: subjects,
		Streak:   Streak(results, now),
	}
}

// Streak walks attempts newest first from now and counts while each one is
// less than two days older than the previous. Attempts, not distinct days,
// are counted.
func Streak(results []models.QuizResult, now time.Time) int {
	sorted := make([]models.QuizResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.After(sorted[j].CompletedAt)
	})

	streak := 0
	cursor := now
	for _, r := range sorted {
		dayDiff := math.Floor(cursor.Sub(r.CompletedAt).Hours() / 24)
		if dayDiff > 1 {
			break
		}
		streak++
		cursor = r.CompletedAt
	}
	return streak
}

// ProfileStats summarises all results regardless of subject.
func ProfileStats(results []models.QuizResult, now time.Time) Stats {
	stats := Stats{
		TotalQuizzes: len(results),
		Streak:       Streak(results, now),
	}
	var scoreSum, passed int
	for _, r := range results {
		scoreSum += r.ScorePercent
		stats.TotalTimeSpent += r.TimeSpentSeconds
		if r.Passed {
			passed++
		}
	}
	stats.AverageScore = roundedMean(scoreSum, len(results))
	stats.PassRate = roundedMean(100*passed, len(results))
	return stats
}

// Lessons returns the best lesson-quiz score per lesson title of a subject.
func Lessons(results []models.QuizResult, subjectID string) map[string]LessonProgress {
	out := make(map[string]LessonProgress)
	for _, r := range results {
		if r.SubjectID != subjectID || r.QuizType != models.QuizTypeLesson {
			continue
		}
		if best, ok := out[r.LessonTitle]; ok && best.Score >= r.ScorePercent {
			continue
		}
		out[r.LessonTitle] = LessonProgress{
			Completed: r.ScorePercent >= models.PassThreshold,
			Score:     r.ScorePercent,
		}
	}
	return out
}

// roundedMean is sum/n rounded half up, 0 when n is 0.
func roundedMean(sum, n int) int {
	if n == 0 {
		return 0
	}
	return (2*sum + n) / (2 * n)
}
