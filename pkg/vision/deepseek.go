package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const systemPrompt = `Please extract the prayer timetable from this image with high precision. Format the data as a JSON object with the following structure:

{
  "timetable": [
    {
      "date": "YYYY-MM-DD",
      "fajr_beginning": "H:MM AM/PM",
      "fajr_jamaat": "H:MM AM/PM",
      "sunrise": "H:MM AM/PM",
      "zohar_beginning": "H:MM AM/PM",
      "zohar_jamaat": "H:MM AM/PM",
      "asr_beginning": "H:MM AM/PM",
      "asr_jamaat": "H:MM AM/PM",
      "maghrib": "H:MM AM/PM",
      "isha_beginning": "H:MM AM/PM",
      "isha_jamaat": "H:MM AM/PM",
      "sehri": "H:MM AM/PM",
      "iftari": "H:MM AM/PM"
    }
  ]
}

Follow these formatting rules:
1. Time format: Use H:MM AM/PM format (e.g., 5:08 AM, 12:27 PM)
2. Date format: Use YYYY-MM-DD format (e.g., 2025-03-01)
3. Replace ditto marks ("", ''', etc.) with the actual value they refer to
4. If a field doesn't exist in the image, use null instead of an empty string
5. Preserve multiple times exactly as shown (e.g., "12:40 & 1:20")
6. Include all days shown in the timetable

Return ONLY the JSON object, no additional text or explanations.`

// DeepSeekClient calls the DeepSeek vision chat-completions endpoint.
type DeepSeekClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewDeepSeekClient builds a client. timeout bounds every extraction call.
func NewDeepSeekClient(baseURL, apiKey, model string, timeout time.Duration) *DeepSeekClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &DeepSeekClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type imageContent struct {
	Type     string `json:"type"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractTimetable sends the image and parses the model's JSON reply.
func (c *DeepSeekClient) ExtractTimetable(ctx context.Context, image []byte, mimeType string) (*Timetable, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	var img imageContent
	img.Type = "image_url"
	img.ImageURL.URL = fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []imageContent{img}},
		},
		MaxTokens: 4000,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision API status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return nil, fmt.Errorf("vision API: unparseable response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("vision API: empty response")
	}

	content := stripFences(cr.Choices[0].Message.Content)
	var tt Timetable
	if err := json.Unmarshal([]byte(content), &tt); err != nil {
		return nil, fmt.Errorf("vision API: unparseable timetable: %w", err)
	}
	if len(tt.Days) == 0 {
		return nil, ErrNoDays
	}
	return &tt, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
