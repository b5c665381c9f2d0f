// Package llm talks to the natural-language extraction service. The service
// interprets free text; this package only enforces the wire contract: every
// call returns a single JSON object matching a fixed schema, and anything
// else surfaces as a distinguishable error instead of a guessed default.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// ErrBadResponse marks a structurally invalid model response: unparsable
// JSON, an unknown enum value, or a missing required field. Transport errors
// are wrapped separately; both abort the turn.
var ErrBadResponse = errors.New("malformed extraction response")

// Models occasionally wrap the object in a Markdown code fence despite
// instructions. Strip the fence before parsing, nothing more.
var codeFence = regexp.MustCompile("(?s)```(?:json)?\n?(.*?)```")

// Client is an HTTP client for a chat-completion style extraction endpoint.
type Client struct {
	endpoint string
	model    string
	http     *http.Client
}

func NewClient(endpoint, model string) *Client {
	return &Client{
		endpoint: endpoint,
		model:    model,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Think    bool          `json:"think"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Classify maps free text to one of the four intents.
func (c *Client) Classify(ctx context.Context, text string) (Intent, error) {
	var out struct {
		Type string `json:"type"`
	}
	if err := c.complete(ctx, classifyPrompt, text, nil, &out); err != nil {
		return "", err
	}
	return ParseIntent(out.Type)
}

// ExtractTask pulls {title, due} out of free text. An empty title is a valid
// model answer (the caller treats it as a validation failure), so it is not
// rejected here.
func (c *Client) ExtractTask(ctx context.Context, text string, today time.Time) (TaskExtraction, error) {
	var out TaskExtraction
	ctxData := map[string]interface{}{
		"current_date": today.Format("Monday 02-01-2006"),
	}
	if err := c.complete(ctx, extractTaskPrompt, text, ctxData, &out); err != nil {
		return TaskExtraction{}, err
	}
	if out.Due != nil && out.Due.Type != "relative" && out.Due.Type != "absolute" {
		return TaskExtraction{}, fmt.Errorf("%w: unknown due type %q", ErrBadResponse, out.Due.Type)
	}
	return out, nil
}

// AssignCategory scores the best existing category for a title.
func (c *Client) AssignCategory(ctx context.Context, title string, categories []CategoryRef) (CategoryMatch, error) {
	var out struct {
		CategoryID *uint  `json:"category_id"`
		Confidence string `json:"confidence"`
	}
	ctxData := map[string]interface{}{
		"task_title": title,
		"categories": categories,
	}
	if err := c.complete(ctx, assignCategoryPrompt, title, ctxData, &out); err != nil {
		return CategoryMatch{}, err
	}
	// An absent confidence is a non-answer, not a protocol violation: the
	// caller treats it like low and pauses for a manual selection. Only a
	// present-but-unknown value is rejected.
	if out.Confidence == "" {
		return CategoryMatch{CategoryID: out.CategoryID, Confidence: ConfidenceLow}, nil
	}
	confidence, err := ParseConfidence(out.Confidence)
	if err != nil {
		return CategoryMatch{}, err
	}
	return CategoryMatch{CategoryID: out.CategoryID, Confidence: confidence}, nil
}

// TimeExpression maps a free-form date phrase onto the supported symbolic
// vocabulary. Returns "" when the phrase carries no usable time reference.
func (c *Client) TimeExpression(ctx context.Context, phrase string) (string, error) {
	var out struct {
		TimeExpression *string `json:"time_expression"`
	}
	if err := c.complete(ctx, timeExpressionPrompt, phrase, nil, &out); err != nil {
		return "", err
	}
	if out.TimeExpression == nil {
		return "", nil
	}
	return *out.TimeExpression, nil
}

// SelectTask identifies which pending task the user wants to close.
func (c *Client) SelectTask(ctx context.Context, text string, today time.Time, tasks []TaskRef) (TaskSelection, error) {
	var out TaskSelection
	ctxData := map[string]interface{}{
		"current_date":  today.Format("Monday 02-01-2006"),
		"current_tasks": tasks,
		"has_tasks":     len(tasks) > 0,
	}
	if err := c.complete(ctx, markAsDonePrompt, text, ctxData, &out); err != nil {
		return TaskSelection{}, err
	}
	return out, nil
}

// ResolveCategoryName extracts the category name the user wants to create.
// Returns "" when the model could not determine one.
func (c *Client) ResolveCategoryName(ctx context.Context, text string, categories []CategoryRef) (string, error) {
	var out struct {
		CategoryName *string `json:"category_name"`
	}
	ctxData := map[string]interface{}{
		"categories": categories,
	}
	if err := c.complete(ctx, categoryNamePrompt, text, ctxData, &out); err != nil {
		return "", err
	}
	if out.CategoryName == nil {
		return "", nil
	}
	return strings.TrimSpace(*out.CategoryName), nil
}

// Chat answers a free-form question with the user's tasks as context.
func (c *Client) Chat(ctx context.Context, text string, today time.Time, tasks []TaskRef, categories []CategoryRef) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	ctxData := map[string]interface{}{
		"current_date":   today.Format("Monday 02-01-2006"),
		"current_tasks":  tasks,
		"has_tasks":      len(tasks) > 0,
		"categories":     categories,
		"has_categories": len(categories) > 0,
	}
	if err := c.complete(ctx, chatPrompt, text, ctxData, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Message) == "" {
		return "", fmt.Errorf("%w: empty chat message", ErrBadResponse)
	}
	return out.Message, nil
}

// complete sends one chat request and unmarshals the model's JSON answer
// into out. The optional context object is appended to the system prompt.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, contextData map[string]interface{}, out interface{}) error {
	system := systemPrompt
	if contextData != nil {
		encoded, err := json.MarshalIndent(contextData, "", "  ")
		if err != nil {
			return fmt.Errorf("encode context: %w", err)
		}
		system += "\n\nContext (JSON):\n" + string(encoded)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("extraction request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("extraction request: unexpected status %d", res.StatusCode)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var envelope chatResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	content := unfence(envelope.Message.Content)
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty content", ErrBadResponse)
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

func unfence(content string) string {
	if m := codeFence.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return content
}
