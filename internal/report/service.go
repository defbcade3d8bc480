package report

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"aitestlms/internal/session"

	"github.com/xuri/excelize/v2"
)

type ResultSource interface {
	ListResults(ctx context.Context, filter func(*session.Result) bool) ([]*session.Result, error)
}

type SessionSource interface {
	GetSession(ctx context.Context, id string) (*session.Session, error)
}

// Service derives reporting views from the immutable result records a
// finished session leaves behind.
type Service struct {
	sessions SessionSource
	results  ResultSource
}

type SessionSummary struct {
	SessionID    string  `json:"session_id"`
	DefinitionID string  `json:"definition_id"`
	Participants int     `json:"participants"`
	AverageScore float64 `json:"average_score"`
	HighestScore int     `json:"highest_score"`
	LowestScore  int     `json:"lowest_score"`
}

func NewService(sessions SessionSource, results ResultSource) *Service {
	return &Service{sessions: sessions, results: results}
}

func (s *Service) SessionSummary(ctx context.Context, sessionID string) (*SessionSummary, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	results, err := s.sessionResults(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := &SessionSummary{
		SessionID:    sess.ID,
		DefinitionID: sess.DefinitionID,
		Participants: len(results),
	}
	if len(results) == 0 {
		return summary, nil
	}

	total := 0
	summary.HighestScore = results[0].ScorePercent
	summary.LowestScore = results[0].ScorePercent
	for _, r := range results {
		total += r.ScorePercent
		if r.ScorePercent > summary.HighestScore {
			summary.HighestScore = r.ScorePercent
		}
		if r.ScorePercent < summary.LowestScore {
			summary.LowestScore = r.ScorePercent
		}
	}
	summary.AverageScore = float64(total) / float64(len(results))
	return summary, nil
}

// ExportXLSX renders one row per participant result, best score first.
func (s *Service) ExportXLSX(ctx context.Context, sessionID string) ([]byte, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	results, err := s.sessionResults(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"Rank", "Learner ID", "Learner Name", "Score %", "Answered", "Correct", "Total Questions", "Completed At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, r := range results {
		row := i + 2
		values := []interface{}{
			i + 1,
			r.LearnerID,
			r.LearnerName,
			r.ScorePercent,
			r.AnsweredQuestions,
			r.CorrectAnswers,
			r.TotalQuestions,
			r.CompletedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) sessionResults(ctx context.Context, sessionID string) ([]*session.Result, error) {
	results, err := s.results.ListResults(ctx, func(r *session.Result) bool {
		return r.SessionID == sessionID
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ScorePercent > results[j].ScorePercent
	})
	return results, nil
}
