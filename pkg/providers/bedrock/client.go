// Package bedrock implements the model client on the Amazon Bedrock
// Converse API.
package bedrock

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"

	"github.com/toolflowhq/toolflow/pkg/llm"
	"github.com/toolflowhq/toolflow/pkg/resilience"
)

// Settings configure the Bedrock runtime connection. Leaving the key
// pair empty falls back to the default AWS credential chain.
type Settings struct {
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
}

type converseAPI interface {
	Converse(ctx context.Context, in *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Client is a llm.ModelClient backed by the Bedrock Converse API.
type Client struct {
	api converseAPI
}

func New(ctx context.Context, s Settings) (*Client, error) {
	if s.Region == "" {
		return nil, fmt.Errorf("bedrock region is empty")
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.Region),
	}
	if s.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, s.SessionToken),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Client{api: bedrockruntime.NewFromConfig(cfg)}, nil
}

func (c *Client) Name() string { return "bedrock" }

func (c *Client) Converse(ctx context.Context, req llm.Request) (llm.Response, error) {
	input, err := buildConverseInput(req)
	if err != nil {
		return llm.Response{}, fmt.Errorf("build converse input: %w", err)
	}
	out, err := c.api.Converse(ctx, input)
	if err != nil {
		if isThrottling(err) {
			return llm.Response{}, resilience.RateLimitError{Provider: "bedrock", Message: err.Error()}
		}
		return llm.Response{}, fmt.Errorf("converse: %w", err)
	}
	return parseConverseOutput(out)
}

func isThrottling(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ThrottlingException", "TooManyRequestsException", "ServiceQuotaExceededException":
		return true
	}
	return false
}
