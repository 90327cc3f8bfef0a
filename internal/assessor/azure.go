package assessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"
)

// DefaultOpenAIEndpoint is used by the openai provider when no endpoint is set.
const DefaultOpenAIEndpoint = "https://api.openai.com/v1"

var errNoCompletion = errors.New("no completion received from the service")

// ChatClient sends prompts to Azure OpenAI or OpenAI chat completions.
type ChatClient struct {
	client *azopenai.Client
	model  string
}

var _ contract.CompletionClient = &ChatClient{} // Compile-time check

// NewChatClient creates a completion client from the assessment service config.
func NewChatClient(cfg contract.AssessorConfig) (*ChatClient, error) {
	if err := contract.ValidateAssessorConfig(cfg); err != nil {
		return nil, err
	}
	cred := azcore.NewKeyCredential(cfg.APIKey)

	var (
		client *azopenai.Client
		err    error
	)
	switch cfg.Provider {
	case schema.OpenAIProvider:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = DefaultOpenAIEndpoint
		}
		client, err = azopenai.NewClientForOpenAI(endpoint, cred, nil)
	default:
		client, err = azopenai.NewClientWithKeyCredential(cfg.Endpoint, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating %s completion client: %w", cfg.Provider, err)
	}
	return &ChatClient{client: client, model: cfg.Model}, nil
}

// Complete implements the contract.CompletionClient interface.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.GetChatCompletions(
		ctx,
		azopenai.ChatCompletionsOptions{
			DeploymentName: to.Ptr(c.model),
			Messages: []azopenai.ChatRequestMessageClassification{
				&azopenai.ChatRequestUserMessage{
					Content: azopenai.NewChatRequestUserMessageContent(prompt),
				},
			},
			Temperature: to.Ptr(float32(0)),
		},
		nil,
	)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil && resp.Choices[0].Message.Content != nil {
		return *resp.Choices[0].Message.Content, nil
	}
	return "", errNoCompletion
}
