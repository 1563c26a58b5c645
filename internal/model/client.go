package model

import (
	"context"
	"strings"

	"github.com/harunnryd/jarvis/internal/model/contract"
)

// Client pins a router to one model for the single-shot prompts used by batch
// jobs (coach comments, diet scoring, report writing).
type Client struct {
	router ModelRouter
	model  string
	system string
}

func NewClient(router ModelRouter, model, system string) *Client {
	return &Client{router: router, model: model, system: system}
}

// Complete sends prompt as a single user message and returns the trimmed text reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.router.Route(ctx, c.model, contract.CompletionRequest{
		System:   c.system,
		Messages: []contract.Message{{Role: contract.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// WithSystem returns a copy of the client using a different system prompt.
func (c *Client) WithSystem(system string) *Client {
	return &Client{router: c.router, model: c.model, system: system}
}
