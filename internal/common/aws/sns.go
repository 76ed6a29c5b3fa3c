// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the subset of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	client SNSAPI
}

func NewSNSClient(ctx context.Context, region string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SNSClient{client: sns.NewFromConfig(cfg)}, nil
}

func NewSNSClientWithAPI(api SNSAPI) *SNSClient {
	return &SNSClient{client: api}
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input)
}

// Event is a JSON message published to a topic. Attributes become string
// message attributes for subscription filter policies.
type Event struct {
	TopicARN   string
	Subject    string
	Payload    interface{}
	Attributes map[string]string
	GroupID    string
	DedupeID   string
}

// PublishEvent marshals the payload and publishes it. Group and dedupe ids
// are only sent to FIFO topics.
func (s *SNSClient) PublishEvent(ctx context.Context, event Event) (string, error) {
	body, err := json.Marshal(event.Payload)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: awssdk.String(event.TopicARN),
		Message:  awssdk.String(string(body)),
	}
	if event.Subject != "" {
		input.Subject = awssdk.String(event.Subject)
	}
	if len(event.Attributes) > 0 {
		input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(event.Attributes))
		for k, v := range event.Attributes {
			input.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(v),
			}
		}
	}
	if strings.HasSuffix(event.TopicARN, ".fifo") {
		input.MessageGroupId = awssdk.String(event.GroupID)
		input.MessageDeduplicationId = awssdk.String(event.DedupeID)
	}

	out, err := s.client.Publish(ctx, input)
	if err != nil {
		return "", fmt.Errorf("sns publish: %w", err)
	}
	return awssdk.ToString(out.MessageId), nil
}
