package session

import (
	"fmt"
	"strings"

	"aitestlms/internal/bank"
	"aitestlms/internal/testdef"
)

// renderQuestion formats the broadcast text for one question. Multiple
// choice options are labeled sequentially starting at A; this labeling is
// the rendering convention clients depend on.
func renderQuestion(q bank.Question) string {
	var sb strings.Builder
	sb.WriteString(q.Text)
	switch q.Type {
	case bank.MultipleChoice:
		for i, opt := range q.Options {
			sb.WriteString("\n")
			sb.WriteString(optionLabel(i))
			sb.WriteString(". ")
			sb.WriteString(opt)
		}
	case bank.TrueFalse:
		sb.WriteString("\nAnswer True or False.")
	case bank.ShortAnswer:
		sb.WriteString("\nType your answer.")
	}
	return sb.String()
}

func optionLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("%d", i+1)
}

func welcomeText(def *testdef.Definition) string {
	return fmt.Sprintf(
		"Welcome to the %s test on %s. %d questions, %d minutes. Good luck!",
		def.Subject, def.Topic, len(def.Questions), def.DurationMinutes,
	)
}

func joinText(learnerName string) string {
	return fmt.Sprintf("%s joined the session.", learnerName)
}

// resultSummaryText lists participants in leaderboard order, best first.
func resultSummaryText(results []*Result) string {
	var sb strings.Builder
	sb.WriteString("The test has ended. Final results:")
	for i, r := range results {
		sb.WriteString(fmt.Sprintf(
			"\n%d. %s - %d%% (%d/%d correct)",
			i+1, r.LearnerName, r.ScorePercent, r.CorrectAnswers, r.TotalQuestions,
		))
	}
	return sb.String()
}
