package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// TimeoutNERCall bounds a single call to the NER service.
const TimeoutNERCall = 30 * time.Second

// PresidioClient calls the REST API of a Presidio analyzer
// (POST /analyze) and converts its code-point offsets to byte offsets.
type PresidioClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPresidioClient creates a client for the analyzer at baseURL.
func NewPresidioClient(baseURL string) *PresidioClient {
	return &PresidioClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

type presidioRequest struct {
	Text     string   `json:"text"`
	Language string   `json:"language"`
	Entities []string `json:"entities,omitempty"`
}

type presidioResult struct {
	EntityType string  `json:"entity_type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float64 `json:"score"`
}

// Analyze runs the analyzer over text.
func (c *PresidioClient) Analyze(ctx context.Context, text, language string, entities []string) ([]Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, TimeoutNERCall)
	defer cancel()

	body, err := json.Marshal(presidioRequest{Text: text, Language: language, Entities: entities})
	if err != nil {
		return nil, fmt.Errorf("marshalling presidio request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating presidio request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("presidio api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("presidio api error %d: %s", resp.StatusCode, string(respBody))
	}

	var results []presidioResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding presidio response: %w", err)
	}

	offsets := pii.NewOffsets(text)
	out := make([]Entity, 0, len(results))
	for _, r := range results {
		start, okStart := offsets.Byte(r.Start)
		end, okEnd := offsets.Byte(r.End)
		if !okStart || !okEnd || end < start {
			continue
		}
		out = append(out, Entity{
			Type:  r.EntityType,
			Start: start,
			End:   end,
			Score: r.Score,
		})
	}
	return out, nil
}
