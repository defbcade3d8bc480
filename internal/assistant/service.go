package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aitestlms/internal/bank"
)

const systemPrompt = "You are the AI proctor of a live school quiz session. Write one short, encouraging feedback sentence for the learner's answer. Do not reveal answers to other questions."

type ServiceConfig struct {
	GeminiAPIKey string
	GeminiModel  string
	HTTPClient   *http.Client
}

// Service generates the AI feedback line appended after every graded
// answer. Without an API key it runs fully local and deterministic; with
// one it asks Gemini and falls back local on any failure.
type Service struct {
	geminiAPIKey string
	geminiModel  string
	client       *http.Client
}

func NewService(cfg ServiceConfig) *Service {
	model := strings.TrimSpace(cfg.GeminiModel)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &Service{
		geminiAPIKey: strings.TrimSpace(cfg.GeminiAPIKey),
		geminiModel:  model,
		client:       client,
	}
}

func (s *Service) Feedback(ctx context.Context, q bank.Question, correct bool) string {
	if s.geminiAPIKey == "" {
		return localFeedback(q, correct)
	}
	reply, err := s.generateWithGemini(ctx, feedbackQuery(q, correct))
	if err != nil {
		return localFeedback(q, correct)
	}
	return reply
}

// localFeedback is the deterministic template: verdict, correct answer on a
// miss, and the question's explanation when it has one.
func localFeedback(q bank.Question, correct bool) string {
	var sb strings.Builder
	if correct {
		sb.WriteString("Correct!")
	} else {
		sb.WriteString("Not quite. The correct answer is ")
		sb.WriteString(q.CorrectAnswer)
		sb.WriteString(".")
	}
	if strings.TrimSpace(q.Explanation) != "" {
		sb.WriteString(" ")
		sb.WriteString(q.Explanation)
	}
	return sb.String()
}

func feedbackQuery(q bank.Question, correct bool) string {
	verdict := "answered correctly"
	if !correct {
		verdict = "answered incorrectly; the correct answer is " + q.CorrectAnswer
	}
	query := fmt.Sprintf("Question: %s\nThe learner %s.", q.Text, verdict)
	if strings.TrimSpace(q.Explanation) != "" {
		query += "\nExplanation: " + q.Explanation
	}
	return query
}

func (s *Service) generateWithGemini(ctx context.Context, query string) (string, error) {
	reqBody := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]string{
					{"text": query},
				},
			},
		},
		"systemInstruction": map[string]any{
			"parts": []map[string]string{
				{"text": systemPrompt},
			},
		},
		"generationConfig": map[string]any{
			"temperature":     0.4,
			"maxOutputTokens": 120,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", s.geminiModel, s.geminiAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	var out geminiGenerateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	reply := strings.TrimSpace(out.firstText())
	if reply == "" {
		return "", fmt.Errorf("empty gemini response")
	}
	return reply, nil
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r geminiGenerateResponse) firstText() string {
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			if strings.TrimSpace(p.Text) != "" {
				return p.Text
			}
		}
	}
	return ""
}
