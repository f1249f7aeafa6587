package speech

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// SpeechProvider turns text into spoken audio.
type SpeechProvider interface {
	Synthesize(text string) ([]byte, string, error)
}

// GeminiSpeechProvider calls the Gemini TTS endpoint. The response carries
// base64 PCM audio in inlineData; we return the decoded bytes plus MIME type.
type GeminiSpeechProvider struct {
	ApiKey string
	Model  string
	Voice  string
}

func NewGeminiSpeechProvider(apiKey, model string) *GeminiSpeechProvider {
	if model == "" {
		model = "gemini-2.5-flash-preview-tts"
	}
	return &GeminiSpeechProvider{
		ApiKey: apiKey,
		Model:  model,
		Voice:  "Kore",
	}
}

type speechPart struct {
	Text string `json:"text"`
}

type speechContent struct {
	Parts []speechPart `json:"parts"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig struct {
		VoiceName string `json:"voiceName"`
	} `json:"prebuiltVoiceConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       speechConfig `json:"speechConfig"`
}

type speechRequest struct {
	Contents         []speechContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type speechResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (p *GeminiSpeechProvider) Synthesize(text string) ([]byte, string, error) {
	reqBody := speechRequest{
		Contents: []speechContent{
			{Parts: []speechPart{{Text: text}}},
		},
	}
	reqBody.GenerationConfig.ResponseModalities = []string{"AUDIO"}
	reqBody.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = p.Voice

	reqJson, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", err
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent",
		p.Model,
	)

	req, err := http.NewRequest("POST", endpoint, bytes.NewBuffer(reqJson))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", err
	}

	if res.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("error from gemini tts response, code %d, body %s", res.StatusCode, string(resByte))
	}

	var parsed speechResponse
	if err := json.Unmarshal(resByte, &parsed); err != nil {
		return nil, "", err
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, "", fmt.Errorf("gemini tts returned no audio")
	}

	inline := parsed.Candidates[0].Content.Parts[0].InlineData
	audio, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode audio payload: %w", err)
	}

	mime := inline.MimeType
	if mime == "" {
		mime = "audio/L16;rate=24000"
	}
	return audio, mime, nil
}
