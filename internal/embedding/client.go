package embedding

import (
	"fmt"
	"os"

	"github.com/openai/openai-go"
)

// Client wraps the OpenAI client used for embedding generation.
type Client struct {
	client *openai.Client
}

// NewClient creates the OpenAI client, failing fast when OPENAI_API_KEY is
// not set so misconfiguration surfaces at startup instead of on first use.
func NewClient() (*Client, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	// openai-go reads OPENAI_API_KEY from the environment.
	client := openai.NewClient()
	return &Client{client: &client}, nil
}

// Client exposes the underlying OpenAI client for packages that share it,
// such as answer generation.
func (c *Client) Client() *openai.Client {
	return c.client
}
