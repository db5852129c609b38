package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// wizardItem is the table row. expiresAt is the table's TTL attribute.
type wizardItem struct {
	SessionID string `dynamodbav:"sessionId"`
	Payload   string `dynamodbav:"payload"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt"`
}

// DynamoWizardStore keeps sessions in a DynamoDB table keyed by sessionId.
// DynamoDB deletes expired rows lazily, so Load also checks expiresAt.
type DynamoWizardStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

func NewDynamoWizardStore(client dynamoAPI, tableName string, ttl time.Duration) *DynamoWizardStore {
	if client == nil {
		panic("booking: dynamodb client required")
	}
	if tableName == "" {
		panic("booking: wizard table name required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DynamoWizardStore{client: client, tableName: tableName, ttl: ttl, now: time.Now}
}

func (s *DynamoWizardStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"sessionId": &types.AttributeValueMemberS{Value: id},
	}
}

func (s *DynamoWizardStore) Load(ctx context.Context, id string) (*Wizard, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("booking: load wizard: %w", err)
	}
	if out.Item == nil {
		return nil, ErrSessionNotFound
	}
	var item wizardItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("booking: decode wizard item: %w", err)
	}
	if item.ExpiresAt <= s.now().Unix() {
		return nil, ErrSessionNotFound
	}
	var w Wizard
	if err := json.Unmarshal([]byte(item.Payload), &w); err != nil {
		return nil, fmt.Errorf("booking: decode wizard: %w", err)
	}
	return &w, nil
}

func (s *DynamoWizardStore) Save(ctx context.Context, w *Wizard) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("booking: encode wizard: %w", err)
	}
	now := s.now().UTC()
	item, err := attributevalue.MarshalMap(wizardItem{
		SessionID: w.ID,
		Payload:   string(data),
		UpdatedAt: now.Format(time.RFC3339Nano),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("booking: encode wizard item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("booking: save wizard: %w", err)
	}
	return nil
}

func (s *DynamoWizardStore) Delete(ctx context.Context, id string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(id),
	}); err != nil {
		return fmt.Errorf("booking: delete wizard: %w", err)
	}
	return nil
}

var _ WizardStore = (*DynamoWizardStore)(nil)
