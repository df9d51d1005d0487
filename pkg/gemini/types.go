package gemini

// Wire structures for the Generative Language REST API (v1beta
// models/{model}:generateContent). Field names follow the JSON casing the
// API expects.

// GenerateContentRequest is the request envelope for a generateContent call.
type GenerateContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	ToolConfig        *ToolConfig       `json:"toolConfig,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is an ordered list of parts attributed to one role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a single piece of content: text or inline binary data, never both.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64-encoded media bytes.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Tool enables one grounding capability for the call.
type Tool struct {
	GoogleSearch *GoogleSearch `json:"googleSearch,omitempty"`
	GoogleMaps   *GoogleMaps   `json:"googleMaps,omitempty"`
}

// GoogleSearch requests web-search grounding.
type GoogleSearch struct{}

// GoogleMaps requests maps grounding.
type GoogleMaps struct{}

// ToolConfig tunes enabled tools; maps grounding reads the anchor
// coordinates from the retrieval config.
type ToolConfig struct {
	RetrievalConfig *RetrievalConfig `json:"retrievalConfig,omitempty"`
}

// RetrievalConfig anchors retrieval-backed tools at a position.
type RetrievalConfig struct {
	LatLng *LatLng `json:"latLng,omitempty"`
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GenerationConfig carries sampling parameters.
type GenerationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

// GenerateContentResponse is the response envelope from a generateContent
// call.
type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated reply.
type Candidate struct {
	Content           Content            `json:"content"`
	FinishReason      string             `json:"finishReason,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

// GroundingMetadata lists the sources a grounded reply drew on.
type GroundingMetadata struct {
	GroundingChunks []GroundingChunk `json:"groundingChunks,omitempty"`
}

// GroundingChunk is one cited source; exactly one of Web or Maps is set.
type GroundingChunk struct {
	Web  *WebSource  `json:"web,omitempty"`
	Maps *MapsSource `json:"maps,omitempty"`
}

// WebSource is a web-search citation.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// MapsSource is a maps citation; Text carries the place snippet, typically
// the street address.
type MapsSource struct {
	URI     string `json:"uri"`
	Title   string `json:"title"`
	Text    string `json:"text,omitempty"`
	PlaceID string `json:"placeId,omitempty"`
}

// APIErrorResponse is the error envelope returned with non-2xx statuses.
type APIErrorResponse struct {
	Error APIErrorDetail `json:"error"`
}

// APIErrorDetail describes one API error.
type APIErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
