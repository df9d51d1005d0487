package domain

import (
	"context"
	"time"
)

// ToolKind selects a grounding capability requested from the model.
type ToolKind string

const (
	WEB_SEARCH  ToolKind = "web_search"
	MAPS_SEARCH ToolKind = "maps_search"
)

// ToolDirective asks the model to ground its answer with one retrieval
// capability. Latitude/Longitude anchor a MAPS_SEARCH directive and are
// ignored otherwise.
type ToolDirective struct {
	Kind      ToolKind `json:"kind"`
	Latitude  float64  `json:"latitude,omitempty"`
	Longitude float64  `json:"longitude,omitempty"`
}

// ImagePart is a binary attachment with its declared media type.
type ImagePart struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// ContentPart is one element of the ordered model payload. Exactly one of
// Text or Image is set.
type ContentPart struct {
	Text  string     `json:"text,omitempty"`
	Image *ImagePart `json:"image,omitempty"`
}

// GroundingKind tags the origin of a grounding citation.
type GroundingKind string

const (
	WEB_GROUNDING  GroundingKind = "web"
	MAPS_GROUNDING GroundingKind = "maps"
)

// GroundingChunk is one citation returned alongside generated text, tagged as
// a web reference or a maps listing. Address is populated for maps chunks
// only.
type GroundingChunk struct {
	Kind    GroundingKind `json:"kind"`
	Title   string        `json:"title"`
	URI     string        `json:"uri"`
	Address string        `json:"address,omitempty"`
}

// GenerateRequest describes one model invocation: the capability selector,
// the ordered content parts, an optional system instruction, requested
// grounding tools, and an optional sampling temperature (nil leaves the
// remote default in place).
type GenerateRequest struct {
	Model             string          `json:"model"`
	Parts             []ContentPart   `json:"parts"`
	SystemInstruction string          `json:"system_instruction,omitempty"`
	Tools             []ToolDirective `json:"tools,omitempty"`
	Temperature       *float64        `json:"temperature,omitempty"`
}

// GenerateResponse is the model's reply: the generated text plus any tagged
// grounding citations.
type GenerateResponse struct {
	Text      string           `json:"text"`
	Grounding []GroundingChunk `json:"grounding,omitempty"`
}

// ModelClient is the remote generative-model dependency. Implementations
// issue exactly one upstream call per Generate and must report unreachable,
// rate-limited, or empty upstream responses as errors rather than panicking.
type ModelClient interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// Position is a resolved geographic coordinate pair.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PositionOptions tunes a position request. MaxAge is the oldest cached fix
// the caller will accept.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxAge       time.Duration
}

// DefaultPositionOptions returns the standard acquisition settings: a 20
// second timeout with tolerance for fixes up to five minutes old.
func DefaultPositionOptions() PositionOptions {
	return PositionOptions{
		HighAccuracy: true,
		Timeout:      20 * time.Second,
		MaxAge:       5 * time.Minute,
	}
}

// Locator resolves the caller's current position. Failures are reported as
// GeolocationError values with denied, unavailable, and timeout kept
// distinct.
type Locator interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error)
}
