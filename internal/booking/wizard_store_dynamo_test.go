package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items in a map keyed by sessionId.
type fakeDynamo struct {
	mu     sync.Mutex
	items  map[string]map[string]types.AttributeValue
	puts   []*dynamodb.PutItemInput
	gets   []*dynamodb.GetItemInput
	getErr error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func sessionKey(key map[string]types.AttributeValue) string {
	if v, ok := key["sessionId"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)
	f.items[sessionKey(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, in)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dynamodb.GetItemOutput{Item: f.items[sessionKey(in.Key)]}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, sessionKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoWizardStore_RoundTrip(t *testing.T) {
	fake := newFakeDynamo()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := NewDynamoWizardStore(fake, "booking_sessions", 30*time.Minute)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	w := &Wizard{ID: "s1", Step: StepPatient, DoctorID: "d1", Date: "2025-06-10", Time: "10:00"}
	require.NoError(t, s.Save(ctx, w))

	require.Len(t, fake.puts, 1)
	assert.Equal(t, "booking_sessions", *fake.puts[0].TableName)
	var item wizardItem
	require.NoError(t, attributevalue.UnmarshalMap(fake.puts[0].Item, &item))
	assert.Equal(t, "s1", item.SessionID)
	assert.Equal(t, now.Add(30*time.Minute).Unix(), item.ExpiresAt)

	got, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "10:00", got.Time)
	assert.Equal(t, StepPatient, got.Step)
	require.NotEmpty(t, fake.gets)
	assert.True(t, *fake.gets[0].ConsistentRead)

	require.NoError(t, s.Delete(ctx, "s1"))
	_, err = s.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDynamoWizardStore_ExpiredRowIsMissing(t *testing.T) {
	fake := newFakeDynamo()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := NewDynamoWizardStore(fake, "booking_sessions", time.Minute)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, NewWizard("s1")))
	now = now.Add(2 * time.Minute)

	_, err := s.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDynamoWizardStore_LoadError(t *testing.T) {
	fake := newFakeDynamo()
	fake.getErr = errors.New("throttled")
	s := NewDynamoWizardStore(fake, "booking_sessions", 0)

	_, err := s.Load(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
	assert.Contains(t, err.Error(), "throttled")
}
