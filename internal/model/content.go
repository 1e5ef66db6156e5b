package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PlatformPayload is the platform-specific body of a generated content item.
// Exactly one implementation exists per publishing platform.
type PlatformPayload interface {
	Platform() Platform
	Validate() error
}

// YouTubeContent is a generated video description with chapter markers.
type YouTubeContent struct {
	Description string   `json:"description"`
	Chapters    []string `json:"chapters"`
}

func (YouTubeContent) Platform() Platform { return PlatformYouTube }

func (c YouTubeContent) Validate() error {
	if strings.TrimSpace(c.Description) == "" {
		return errors.New("youtube: description is required")
	}
	return nil
}

// TweetContent is a tweet with optional thread replies.
type TweetContent struct {
	Tweet   string   `json:"tweet"`
	Replies []string `json:"replies,omitempty"`
}

// MaxTweetLen is the character limit of a single tweet.
const MaxTweetLen = 280

func (TweetContent) Platform() Platform { return PlatformX }

func (c TweetContent) Validate() error {
	if strings.TrimSpace(c.Tweet) == "" {
		return errors.New("x: tweet is required")
	}
	if n := len([]rune(c.Tweet)); n > MaxTweetLen {
		return fmt.Errorf("x: tweet is %d characters, limit is %d", n, MaxTweetLen)
	}
	for i, r := range c.Replies {
		if n := len([]rune(r)); n > MaxTweetLen {
			return fmt.Errorf("x: reply %d is %d characters, limit is %d", i+1, n, MaxTweetLen)
		}
	}
	return nil
}

// InstagramContent is a caption with an optional image.
type InstagramContent struct {
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url,omitempty"`
}

// MaxCaptionLen is Instagram's caption limit.
const MaxCaptionLen = 2200

func (InstagramContent) Platform() Platform { return PlatformInstagram }

func (c InstagramContent) Validate() error {
	if strings.TrimSpace(c.Caption) == "" {
		return errors.New("instagram: caption is required")
	}
	if n := len([]rune(c.Caption)); n > MaxCaptionLen {
		return fmt.Errorf("instagram: caption is %d characters, limit is %d", n, MaxCaptionLen)
	}
	return nil
}

// LinkedInContent is the commentary of a LinkedIn post.
type LinkedInContent struct {
	Commentary string `json:"commentary"`
	Visibility string `json:"visibility,omitempty"`
}

func (LinkedInContent) Platform() Platform { return PlatformLinkedIn }

func (c LinkedInContent) Validate() error {
	if strings.TrimSpace(c.Commentary) == "" {
		return errors.New("linkedin: commentary is required")
	}
	switch c.Visibility {
	case "", "PUBLIC", "CONNECTIONS":
		return nil
	}
	return fmt.Errorf("linkedin: unknown visibility %q", c.Visibility)
}

// DecodePayload decodes raw JSON into the payload type registered for platform.
func DecodePayload(platform Platform, raw json.RawMessage) (PlatformPayload, error) {
	var p PlatformPayload
	switch platform {
	case PlatformYouTube:
		p = &YouTubeContent{}
	case PlatformX:
		p = &TweetContent{}
	case PlatformInstagram:
		p = &InstagramContent{}
	case PlatformLinkedIn:
		p = &LinkedInContent{}
	default:
		return nil, fmt.Errorf("unsupported content platform %q", platform)
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s content: %w", platform, err)
	}
	return p, p.Validate()
}

// PlatformContent is a stored, generated content item.
type PlatformContent struct {
	ID         int             `json:"id"`
	ResearchID int             `json:"research_id"`
	Platform   Platform        `json:"platform"`
	Payload    PlatformPayload `json:"-"`
	Used       bool            `json:"used"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type platformContentJSON struct {
	ID         int             `json:"id"`
	ResearchID int             `json:"research_id"`
	Platform   Platform        `json:"platform"`
	Content    json.RawMessage `json:"content"`
	Used       bool            `json:"used"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (c PlatformContent) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(c.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(platformContentJSON{
		ID:         c.ID,
		ResearchID: c.ResearchID,
		Platform:   c.Platform,
		Content:    raw,
		Used:       c.Used,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	})
}

func (c *PlatformContent) UnmarshalJSON(b []byte) error {
	var aux platformContentJSON
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	payload, err := DecodePayload(aux.Platform, aux.Content)
	if err != nil {
		return err
	}
	*c = PlatformContent{
		ID:         aux.ID,
		ResearchID: aux.ResearchID,
		Platform:   aux.Platform,
		Payload:    payload,
		Used:       aux.Used,
		CreatedAt:  aux.CreatedAt,
		UpdatedAt:  aux.UpdatedAt,
	}
	return nil
}

// Research is the summary a content item was generated from.
type Research struct {
	ID               int      `json:"id"`
	Query            string   `json:"query"`
	Summary          string   `json:"summary"`
	KeyHighlights    []string `json:"key_highlights"`
	NoteworthyPoints []string `json:"noteworthy_points"`
	ActionItems      []string `json:"action_items,omitempty"`
	URLs             []string `json:"urls"`
}

// ContentWithResearch is a content item joined with its research record.
type ContentWithResearch struct {
	Content  PlatformContent `json:"content"`
	Research Research        `json:"research"`
}

// SaveContentRequest is the body of POST /api/content.
type SaveContentRequest struct {
	ResearchID int             `json:"research_id"`
	Platform   Platform        `json:"platform"`
	Content    json.RawMessage `json:"content"`
}
