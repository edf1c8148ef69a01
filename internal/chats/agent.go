package chats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPAgent reaches the model service over plain HTTP. The service is an
// external collaborator; this client only frames the prompt and unwraps the
// completion.
type HTTPAgent struct {
	url    string
	client *http.Client
}

func NewHTTPAgent(url string, timeout time.Duration) *HTTPAgent {
	return &HTTPAgent{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type invokeRequest struct {
	Prompt string `json:"prompt"`
}

type invokeResponse struct {
	Response string `json:"response"`
}

func (a *HTTPAgent) Invoke(ctx context.Context, prompt string) (string, error) {
	const op = "chats.HTTPAgent.Invoke"

	body, err := json.Marshal(invokeRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status %d", op, res.StatusCode)
	}

	var out invokeResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return out.Response, nil
}
