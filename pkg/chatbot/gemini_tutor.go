package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-studymate-be/internal/constant"
	"ai-studymate-be/pkg/tutor"
)

type GeminiChatParts struct {
	Text string `json:"text"`
}

type GeminiChatContent struct {
	Parts []*GeminiChatParts `json:"parts"`
	Role  string             `json:"role"`
}

type GeminiChatRequest struct {
	Contents []*GeminiChatContent `json:"contents"`
}

type GeminiChatCandidate struct {
	Content *GeminiChatContent `json:"content"`
}

type GeminiChatResponse struct {
	Candidates []*GeminiChatCandidate `json:"candidates"`
}

// GeminiTurnSender is the external single-turn conversational request used by
// tutor sessions. Stateless: every call carries the grounding report and the
// full visible history, so the model's context can never drift from the
// transcript the student sees.
type GeminiTurnSender struct {
	apiKey string
	model  string
	client *http.Client
}

var _ tutor.TurnSender = &GeminiTurnSender{}

func NewGeminiTurnSender(apiKey, model string) *GeminiTurnSender {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiTurnSender{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GeminiTurnSender) SendTurn(ctx context.Context, grounding string, history []tutor.Turn, message string) (string, error) {
	chatContents := make([]*GeminiChatContent, 0, len(history)+3)

	// Seed the channel with the grounding report, mirrored by a model
	// acknowledgement, before the visible transcript.
	chatContents = append(chatContents, &GeminiChatContent{
		Parts: []*GeminiChatParts{{Text: constant.TutorGroundingUserPromptV1 + grounding}},
		Role:  constant.ChatMessageRoleUser,
	})
	chatContents = append(chatContents, &GeminiChatContent{
		Parts: []*GeminiChatParts{{Text: constant.TutorGroundingModelPromptV1}},
		Role:  constant.ChatMessageRoleModel,
	})

	for _, turn := range history {
		chatContents = append(chatContents, &GeminiChatContent{
			Parts: []*GeminiChatParts{{Text: turn.Content}},
			Role:  turn.Role,
		})
	}

	chatContents = append(chatContents, &GeminiChatContent{
		Parts: []*GeminiChatParts{{Text: message}},
		Role:  constant.ChatMessageRoleUser,
	})

	payload := GeminiChatRequest{Contents: chatContents}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1/models/%s:generateContent", g.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return "", err
	}

	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var geminiRes GeminiChatResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", err
	}
	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil || len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	return geminiRes.Candidates[0].Content.Parts[0].Text, nil
}
