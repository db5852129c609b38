package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSEmitter publishes intents as JSON to a queue for a downstream SMS gateway.
type SQSEmitter struct {
	client   sqsAPI
	queueURL string
}

func NewSQSEmitter(client *sqs.Client, queueURL string) *SQSEmitter {
	if client == nil {
		panic("notify: SQS client cannot be nil")
	}
	return newSQSEmitter(client, queueURL)
}

func newSQSEmitter(client sqsAPI, queueURL string) *SQSEmitter {
	if queueURL == "" {
		panic("notify: SQS queueURL cannot be empty")
	}
	return &SQSEmitter{client: client, queueURL: queueURL}
}

func (e *SQSEmitter) Emit(ctx context.Context, msg Message) error {
	if msg.Phone == "" {
		return errors.New("notify: phone required")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notify: marshal message: %w", err)
	}
	_, err = e.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(e.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String(string(msg.Kind))},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: send SQS message: %w", err)
	}
	return nil
}

var _ Emitter = (*SQSEmitter)(nil)
