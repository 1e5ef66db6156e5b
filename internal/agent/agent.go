// Package agent proposes calendar events with an LLM.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

// ErrEmptyResponse is returned when the model produces no usable output.
var ErrEmptyResponse = errors.New("agent: empty response")

const (
	scheduleInstructions = `You schedule social media content on a publishing calendar.
Return a JSON object {"calendar_events": [...]} where each event has
content_id (int), research_id (int), platform (youtube|x|instagram|linkedin),
title, scheduled_date (YYYY-MM-DD), scheduled_time (HH:MM:SS), status and notes.
Use the content_id and research_id of the item being scheduled.`

	fromTextInstructions = `You turn a free-form description into publishing calendar events.
Return a JSON object {"calendar_events": [...]} where each event has
platform (youtube|x|instagram|linkedin|google_calendar), title,
scheduled_date (YYYY-MM-DD), scheduled_time (HH:MM:SS), status and notes.`
)

// Options configure a Client.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls OpenAI chat completions with JSON-object output.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	now     func() time.Time
}

func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("agent: api key required")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	modelName := opts.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: modelName, timeout: timeout, now: time.Now}, nil
}

type proposal struct {
	CalendarEvents []model.ProposedEvent `json:"calendar_events"`
}

// ProposeCalendarEvents asks the model to place items on the calendar
// following the preferences text.
func (c *Client) ProposeCalendarEvents(ctx context.Context, items []model.ContentWithResearch, preferences string) ([]model.ProposedEvent, error) {
	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode content items: %w", err)
	}
	input := fmt.Sprintf("Content to schedule:\n%s\n\nPreferences:\n%s", payload, preferences)
	return c.propose(ctx, scheduleInstructions, input)
}

// ProposeCalendarEventsFromText extracts calendar events from free text.
func (c *Client) ProposeCalendarEventsFromText(ctx context.Context, text string) ([]model.ProposedEvent, error) {
	input := fmt.Sprintf("Today is %s.\n\n%s", c.now().Format("2006-01-02 (Monday)"), text)
	return c.propose(ctx, fromTextInstructions, input)
}

func (c *Client) propose(ctx context.Context, instructions, input string) ([]model.ProposedEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("agent: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return decodeProposal(resp.Choices[0].Message.Content)
}

func decodeProposal(content string) ([]model.ProposedEvent, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyResponse
	}
	var p proposal
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, fmt.Errorf("agent: decode proposal: %w", err)
	}
	return p.CalendarEvents, nil
}
