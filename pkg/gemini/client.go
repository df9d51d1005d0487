package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// Client handles interactions with the Generative Language API. It is the
// single domain.ModelClient implementation; everything above it stays
// transport-agnostic.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// NewClient creates a new Generative Language API client
func NewClient(config domain.GeminiConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 60 // requests per minute
	}

	return &Client{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(float64(config.RateLimit)/60.0), 1),
	}
}

// Generate performs one generateContent call and maps the reply onto the
// domain response. It makes exactly one attempt; retry policy belongs to
// callers, none of which retry.
func (c *Client) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("model selector cannot be empty")
	}

	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	wireReq, err := buildWireRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build generate request: %w", err)
	}

	jsonBody, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	model := strings.TrimPrefix(req.Model, "models/")
	callURL := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", callURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create generate request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NewRemoteCallError("generate", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewRemoteCallError("generate", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewRemoteCallError("generate", resp.StatusCode, errors.New(apiErrorMessage(body)))
	}

	var wireResp GenerateContentResponse
	if err := json.Unmarshal(body, &wireResp); err != nil {
		return nil, fmt.Errorf("failed to parse generate response: %w", err)
	}

	return convertToDomainResponse(&wireResp), nil
}

// buildWireRequest maps a domain generate request onto the wire envelope.
// Parts keep their order; image bytes are base64-encoded inline.
func buildWireRequest(req *domain.GenerateRequest) (*GenerateContentRequest, error) {
	parts := make([]Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		switch {
		case p.Image != nil:
			parts = append(parts, Part{
				InlineData: &InlineData{
					MIMEType: p.Image.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(p.Image.Data),
				},
			})
		case p.Text != "":
			parts = append(parts, Part{Text: p.Text})
		default:
			return nil, fmt.Errorf("content part carries neither text nor image")
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("generate request carries no content parts")
	}

	wireReq := &GenerateContentRequest{
		Contents: []Content{{Role: "user", Parts: parts}},
	}

	if req.SystemInstruction != "" {
		wireReq.SystemInstruction = &Content{
			Parts: []Part{{Text: req.SystemInstruction}},
		}
	}

	for _, directive := range req.Tools {
		switch directive.Kind {
		case domain.WEB_SEARCH:
			wireReq.Tools = append(wireReq.Tools, Tool{GoogleSearch: &GoogleSearch{}})
		case domain.MAPS_SEARCH:
			wireReq.Tools = append(wireReq.Tools, Tool{GoogleMaps: &GoogleMaps{}})
			wireReq.ToolConfig = &ToolConfig{
				RetrievalConfig: &RetrievalConfig{
					LatLng: &LatLng{
						Latitude:  directive.Latitude,
						Longitude: directive.Longitude,
					},
				},
			}
		default:
			return nil, fmt.Errorf("unsupported tool directive %q", directive.Kind)
		}
	}

	if req.Temperature != nil {
		wireReq.GenerationConfig = &GenerationConfig{Temperature: req.Temperature}
	}

	return wireReq, nil
}

// convertToDomainResponse flattens the first candidate into reply text plus
// tagged grounding chunks. A reply without candidates yields empty text, and
// callers treat that as a failed call.
func convertToDomainResponse(wireResp *GenerateContentResponse) *domain.GenerateResponse {
	out := &domain.GenerateResponse{}

	if len(wireResp.Candidates) == 0 {
		return out
	}
	candidate := wireResp.Candidates[0]

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	out.Text = sb.String()

	if candidate.GroundingMetadata == nil {
		return out
	}

	for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
		switch {
		case chunk.Web != nil:
			out.Grounding = append(out.Grounding, domain.GroundingChunk{
				Kind:  domain.WEB_GROUNDING,
				Title: chunk.Web.Title,
				URI:   chunk.Web.URI,
			})
		case chunk.Maps != nil:
			out.Grounding = append(out.Grounding, domain.GroundingChunk{
				Kind:    domain.MAPS_GROUNDING,
				Title:   chunk.Maps.Title,
				URI:     chunk.Maps.URI,
				Address: chunk.Maps.Text,
			})
		}
	}

	return out
}

// apiErrorMessage pulls the error message out of a non-2xx body, falling
// back to the raw body when it is not the standard error envelope.
func apiErrorMessage(body []byte) string {
	var apiErr APIErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}

	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	if trimmed == "" {
		return "upstream returned an empty error body"
	}
	return trimmed
}
