package providers

import (
	"context"

	"github.com/jordanhubbard/llm-router/internal/catalogue"
)

// Completer is the minimal capability a wire adapter exposes: send one
// prompt to one model id and get back the normalised result.
type Completer interface {
	Complete(ctx context.Context, prompt string, modelID string) (Result, error)
}

// Client is the orchestrator's dependency: the union of a provider's wire
// adapter and its model catalogue. The catalogue owns the static model list;
// the adapter owns the wire call. Client composes them into the single
// capability set the orchestrator drives.
type Client struct {
	Completer
	*catalogue.Catalogue
}

// NewClient binds an adapter to its catalogue.
func NewClient(completer Completer, cat *catalogue.Catalogue) *Client {
	return &Client{Completer: completer, Catalogue: cat}
}
