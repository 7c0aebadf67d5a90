package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// ChatOptions configures a Chat client.
type ChatOptions struct {
	BaseURL string // API root; /chat/completions is appended
	APIKey  string
	Model   string
	Timeout time.Duration // Per generation call; zero means no extra limit
	Client  *http.Client
}

// Chat generates meshes through an OpenAI-compatible Chat Completions API.
type Chat struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	client  *http.Client
}

// NewChat returns a Chat client. An empty base URL means DefaultBaseURL.
func NewChat(opts ChatOptions) *Chat {
	u := strings.TrimSuffix(opts.BaseURL, "/")
	if u == "" {
		u = DefaultBaseURL
	}
	c := &Chat{
		baseURL: u,
		apiKey:  opts.APIKey,
		model:   opts.Model,
		timeout: opts.Timeout,
		client:  opts.Client,
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	return c
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatMessage content is either a string or a list of contentParts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate asks the model for OBJ text and returns it without markdown
// fences.
func (c *Chat) Generate(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	style := req.Style
	if style == "" {
		style = DefaultStyle
	}
	user := fmt.Sprintf("Now generate a %s style .obj file for: %s", style, req.Prompt)

	reply, err := c.complete(ctx, generationPrompt, user, req.Image, 0.7, 8192)
	if err != nil {
		return "", err
	}

	text := StripFences(reply)
	if !looksLikeOBJ(text) {
		return "", ErrNotOBJ
	}
	return text + "\n", nil
}

// complete sends one system and one user message, with an optional image
// attached to the user message, and returns the assistant reply.
func (c *Chat) complete(ctx context.Context, system, user string, image []byte, temperature float64, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("chat: API key not set")
	}

	var content any = user
	if len(image) > 0 {
		content = []contentPart{
			{Type: "text", Text: user},
			{Type: "image_url", ImageURL: &imageURL{URL: DataURL(image)}},
		}
	}
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: content},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	defer resp.Body.Close()

	var out chatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("chat: %s: %s", resp.Status, out.Error.Message)
		}
		return "", fmt.Errorf("chat: %s", resp.Status)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("chat: %w", decodeErr)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat: no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}

// DataURL encodes an image as a base64 data URL, sniffing its media type.
func DataURL(image []byte) string {
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// DecodeImage decodes a base64 image, tolerating a data URL prefix.
func DecodeImage(s string) ([]byte, error) {
	if _, after, ok := strings.Cut(s, ","); ok {
		s = after
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return data, nil
}

const generationPrompt = `You are an expert 3D modeler. Generate valid Wavefront .obj file content based on user descriptions.

CRITICAL RULES:
1. Output ONLY the .obj file content, no explanations
2. Use simple, clean geometry (50-500 vertices for low-poly)
3. Include vertex normals (vn) for proper lighting
4. Use triangular faces (3 vertices per face)
5. Add comments to tag semantic groups: # GROUP:leaf, # GROUP:stem, etc.
6. Ensure manifold geometry (no holes or duplicate vertices)

EXAMPLE OBJ FORMAT:
# Object: strawberry
o Strawberry
# GROUP:body
v 0.0 0.0 0.0
v 1.0 0.0 0.0
v 0.5 1.0 0.0
vn 0.0 0.0 1.0
f 1//1 2//1 3//1
# GROUP:leaf
v 0.5 1.2 0.0
v 0.6 1.5 0.1
...`
