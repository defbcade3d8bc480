package session

import (
	"math"
	"sort"
	"time"

	"aitestlms/internal/testdef"

	"github.com/google/uuid"
)

// aggregateResults scans the message log once and derives one result per
// participant, in leaderboard order (score descending, ties kept in join
// order).
//
// Answered questions count distinct question ids: a learner who resubmits
// the same question is counted once. Correctness is any-write-wins: a
// question is correct if at least one of the learner's answer messages for
// it carries is_correct, so correcting a mistaken submission is never
// penalized.
func aggregateResults(sess *Session, def *testdef.Definition, completedAt time.Time) []*Result {
	total := len(def.Questions)
	results := make([]*Result, 0, len(sess.Participants))

	for _, learnerID := range sess.Participants {
		answered := make(map[string]bool)
		correct := make(map[string]bool)
		for _, m := range sess.Log {
			if m.Kind != KindAnswer || m.SenderID != learnerID || m.QuestionID == "" {
				continue
			}
			answered[m.QuestionID] = true
			if m.IsCorrect != nil && *m.IsCorrect {
				correct[m.QuestionID] = true
			}
		}

		results = append(results, &Result{
			ID:                uuid.NewString(),
			SessionID:         sess.ID,
			LearnerID:         learnerID,
			LearnerName:       sess.displayName(learnerID),
			ScorePercent:      scorePercent(len(correct), total),
			TotalQuestions:    total,
			AnsweredQuestions: len(answered),
			CorrectAnswers:    len(correct),
			CompletedAt:       completedAt,
		})
	}

	sortResults(results)
	return results
}

// scorePercent is round(correct/total*100); zero questions scores zero
// rather than dividing by zero.
func scorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

func sortResults(results []*Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ScorePercent > results[j].ScorePercent
	})
}
