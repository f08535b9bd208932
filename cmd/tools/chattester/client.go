package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type chatRequest struct {
	Message     string `json:"message"`
	GuestID     string `json:"guestId,omitempty"`
	WeddingID   string `json:"weddingId,omitempty"`
	WebsiteSlug string `json:"websiteSlug,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	Language    string `json:"language,omitempty"`
}

type chatResponse struct {
	Response         string         `json:"response"`
	SessionID        string         `json:"sessionId"`
	Suggestions      []string       `json:"suggestions"`
	ResponseMetadata map[string]any `json:"responseMetadata"`
	Metadata         map[string]any `json:"metadata"`
	Error            string         `json:"error"`
}

type transcriptMessage struct {
	MessageType string    `json:"messageType"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

type transcript struct {
	SessionID string              `json:"sessionId"`
	Messages  []transcriptMessage `json:"messages"`
}

type apiError struct {
	Error string `json:"error"`
}

type client struct {
	http *resty.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("User-Agent", "ShadiCards-Chattester/1.0").
			SetTimeout(timeout),
	}
}

func (c *client) Ask(ctx context.Context, req chatRequest) (*chatResponse, error) {
	var (
		out    chatResponse
		failed apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&failed).
		Post("/api/chatbot")
	if err != nil {
		return nil, fmt.Errorf("post chatbot: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chatbot returned %d: %s", resp.StatusCode(), failed.Error)
	}
	return &out, nil
}

func (c *client) Transcript(ctx context.Context, sessionID string) (*transcript, error) {
	var (
		out    transcript
		failed apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("sessionID", sessionID).
		SetResult(&out).
		SetError(&failed).
		Get("/api/chatbot/sessions/{sessionID}/messages")
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("transcript returned %d: %s", resp.StatusCode(), failed.Error)
	}
	return &out, nil
}

func printReply(w io.Writer, resp *chatResponse) {
	fmt.Fprintf(w, "session: %s\n", resp.SessionID)
	fmt.Fprintf(w, "reply:   %s\n", resp.Response)
	if resp.Error != "" {
		fmt.Fprintf(w, "error:   %s\n", resp.Error)
	}
	if len(resp.Suggestions) > 0 {
		fmt.Fprintln(w, "suggestions:")
		for _, s := range resp.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	if len(resp.ResponseMetadata) > 0 {
		fmt.Fprintf(w, "annotations: %v\n", resp.ResponseMetadata)
	}
}

func printTranscript(w io.Writer, t *transcript) {
	fmt.Fprintf(w, "session: %s (%d messages)\n", t.SessionID, len(t.Messages))
	for _, m := range t.Messages {
		fmt.Fprintf(w, "[%s] %-9s %s\n", m.CreatedAt.Format(time.RFC3339), m.MessageType, m.Content)
	}
}
