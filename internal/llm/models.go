package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultModel is used when none of the preferred models is available.
const DefaultModel = "llama-3.1-8b-instant"

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels returns the identifiers of all models the endpoint offers.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model listing failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model listing failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse model list: %w", err)
	}
	ids := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// SelectModel picks the first preferred model present in the available list,
// falling back to DefaultModel when offered, then to the first listed model.
// An empty result means no model is resolvable.
func SelectModel(available, preferred []string) string {
	has := make(map[string]bool, len(available))
	for _, id := range available {
		has[id] = true
	}
	for _, id := range preferred {
		if has[id] {
			return id
		}
	}
	if has[DefaultModel] {
		return DefaultModel
	}
	if len(available) > 0 {
		return available[0]
	}
	return ""
}
