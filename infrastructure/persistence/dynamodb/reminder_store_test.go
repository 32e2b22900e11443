package dynamodb

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"automation-backend/application/ports"
	"automation-backend/domain/core/entities"
	pkgerrors "automation-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

type fakeClient struct {
	puts    []*dynamodb.PutItemInput
	gets    []*dynamodb.GetItemInput
	queries []*dynamodb.QueryInput
	updates []*dynamodb.UpdateItemInput

	queryPages []*dynamodb.QueryOutput
	getOutput  *dynamodb.GetItemOutput
	putErr     error
	updateErr  error
}

func (f *fakeClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, params)
	if len(f.queryPages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.queryPages[0]
	f.queryPages = f.queryPages[1:]
	return page, nil
}

func (f *fakeClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, params)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.gets = append(f.gets, params)
	if f.getOutput == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOutput, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, params)
	return &dynamodb.UpdateItemOutput{}, f.updateErr
}

func newTestStore(client *fakeClient) *ReminderStore {
	return NewReminderStore(client, "sessions", "DueIndex", zap.NewNop())
}

func newReminder(t *testing.T) *entities.Reminder {
	t.Helper()
	reminder, err := entities.NewReminder("S", "check the deployment", now.Add(time.Hour), now, 0, "ops@example.com")
	require.NoError(t, err)
	return reminder
}

func marshalReminder(t *testing.T, r *entities.Reminder) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(toReminderItem(r))
	require.NoError(t, err)
	return av
}

func stringAttr(t *testing.T, item map[string]types.AttributeValue, name string) string {
	t.Helper()
	value, ok := item[name].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %s is not a string", name)
	return value.Value
}

func TestPutReminder_WritesPendingItem(t *testing.T) {
	client := &fakeClient{}
	store := newTestStore(client)
	reminder := newReminder(t)

	require.NoError(t, store.PutReminder(context.Background(), reminder))
	require.Len(t, client.puts, 1)

	item := client.puts[0].Item
	assert.Equal(t, "sessions", aws.ToString(client.puts[0].TableName))
	assert.Equal(t, "S", stringAttr(t, item, attrSessionID))
	assert.Equal(t, "reminder#"+reminder.ID.String(), stringAttr(t, item, attrSortKey))
	assert.Equal(t, "2026-03-10T15:30:00.000Z", stringAttr(t, item, attrReminderTime))
	assert.Equal(t, pendingBucket, stringAttr(t, item, attrDueBucket))
	assert.NotContains(t, item, attrSentAt)
	assert.NotContains(t, item, attrClaimedBy)

	expires, ok := item["expiresAt"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, strconv.FormatInt(reminder.ExpiresAt.Unix(), 10), expires.Value)
}

func TestPutReminder_DeliveredHasNoDueBucket(t *testing.T) {
	reminder := newReminder(t)
	require.NoError(t, reminder.MarkDelivered(now))

	item := marshalReminder(t, reminder)
	assert.NotContains(t, item, attrDueBucket)
	assert.Equal(t, "2026-03-10T14:30:00.000Z", stringAttr(t, item, attrSentAt))
}

func TestPutReminder_WrapsServiceError(t *testing.T) {
	client := &fakeClient{putErr: &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException", Message: "slow down"}}
	store := newTestStore(client)

	err := store.PutReminder(context.Background(), newReminder(t))
	require.Error(t, err)

	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeDatabase, appErr.Type)
	assert.Equal(t, "ProvisionedThroughputExceededException", appErr.Code)
}

func TestPutReminder_DeadlineIsTimeout(t *testing.T) {
	client := &fakeClient{putErr: context.DeadlineExceeded}
	store := newTestStore(client)

	err := store.PutReminder(context.Background(), newReminder(t))
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeTimeout))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueryReminders_FollowsPages(t *testing.T) {
	first := newReminder(t)
	second := newReminder(t)
	client := &fakeClient{
		queryPages: []*dynamodb.QueryOutput{
			{
				Items:            []map[string]types.AttributeValue{marshalReminder(t, first)},
				LastEvaluatedKey: itemKey("S", first.SortKey()),
			},
			{
				Items: []map[string]types.AttributeValue{marshalReminder(t, second)},
			},
		},
	}
	store := newTestStore(client)

	reminders, err := store.QueryReminders(context.Background(), "S")
	require.NoError(t, err)
	require.Len(t, reminders, 2)
	assert.Equal(t, first.ID, reminders[0].ID)
	assert.Equal(t, second.ID, reminders[1].ID)
	assert.Equal(t, "ops@example.com", reminders[0].Recipient)
	assert.True(t, first.ReminderTime.Equal(reminders[0].ReminderTime))

	require.Len(t, client.queries, 2)
	assert.Nil(t, client.queries[0].IndexName)
	assert.NotEmpty(t, client.queries[1].ExclusiveStartKey)
	assert.Contains(t, client.queries[0].ExpressionAttributeValues, ":1")
}

func TestQueryRemovals(t *testing.T) {
	reminder := newReminder(t)
	removal, err := entities.NewRemoval("S", reminder.ID, now, 0)
	require.NoError(t, err)
	av, err := attributevalue.MarshalMap(toRemovalItem(removal))
	require.NoError(t, err)

	client := &fakeClient{queryPages: []*dynamodb.QueryOutput{{Items: []map[string]types.AttributeValue{av}}}}
	store := newTestStore(client)

	removals, err := store.QueryRemovals(context.Background(), "S")
	require.NoError(t, err)
	require.Len(t, removals, 1)
	assert.Equal(t, reminder.ID, removals[0].ReminderID)
	assert.Equal(t, removal.ExpiresAt.Unix(), removals[0].ExpiresAt.Unix())
}

func TestHasRemoval(t *testing.T) {
	reminder := newReminder(t)

	client := &fakeClient{}
	store := newTestStore(client)
	has, err := store.HasRemoval(context.Background(), "S", reminder.ID)
	require.NoError(t, err)
	assert.False(t, has)
	require.Len(t, client.gets, 1)
	assert.Equal(t, "removal#"+reminder.ID.String(), stringAttr(t, client.gets[0].Key, attrSortKey))

	client.getOutput = &dynamodb.GetItemOutput{Item: itemKey("S", reminder.ID.RemovalSortKey())}
	has, err = store.HasRemoval(context.Background(), "S", reminder.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestQueryDue_UsesIndexAndSkipsDelivered(t *testing.T) {
	pending := newReminder(t)
	delivered := newReminder(t)
	require.NoError(t, delivered.MarkDelivered(now))

	client := &fakeClient{
		queryPages: []*dynamodb.QueryOutput{{
			Items: []map[string]types.AttributeValue{
				marshalReminder(t, pending),
				marshalReminder(t, delivered),
			},
		}},
	}
	store := newTestStore(client)

	due, err := store.QueryDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, pending.ID, due[0].ID)

	require.Len(t, client.queries, 1)
	input := client.queries[0]
	assert.Equal(t, "DueIndex", aws.ToString(input.IndexName))

	var values []string
	for _, v := range input.ExpressionAttributeValues {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			values = append(values, s.Value)
		}
	}
	assert.ElementsMatch(t, []string{pendingBucket, "2026-03-10T14:30:00.000Z"}, values)
}

func TestClaimForDelivery_ConditionFailed(t *testing.T) {
	client := &fakeClient{updateErr: &types.ConditionalCheckFailedException{Message: aws.String("claimed")}}
	store := newTestStore(client)
	reminder := newReminder(t)

	err := store.ClaimForDelivery(context.Background(), reminder, "worker-1", now, now.Add(time.Minute))
	assert.ErrorIs(t, err, ports.ErrConditionFailed)

	require.Len(t, client.updates, 1)
	input := client.updates[0]
	assert.Equal(t, reminder.SortKey(), stringAttr(t, input.Key, attrSortKey))
	assert.NotEmpty(t, aws.ToString(input.ConditionExpression))
	assert.Contains(t, aws.ToString(input.UpdateExpression), "SET")
}

func TestMarkDelivered_RemovesDueBucket(t *testing.T) {
	client := &fakeClient{}
	store := newTestStore(client)
	reminder := newReminder(t)

	require.NoError(t, store.MarkDelivered(context.Background(), reminder, "worker-1", now))
	require.Len(t, client.updates, 1)

	input := client.updates[0]
	assert.Contains(t, aws.ToString(input.UpdateExpression), "REMOVE")

	var names []string
	for _, name := range input.ExpressionAttributeNames {
		names = append(names, name)
	}
	assert.Subset(t, names, []string{attrSentAt, attrDueBucket, attrClaimedBy, attrClaimExpiresAt})
}

func TestReleaseClaim_IgnoresLostLease(t *testing.T) {
	client := &fakeClient{updateErr: &types.ConditionalCheckFailedException{}}
	store := newTestStore(client)

	assert.NoError(t, store.ReleaseClaim(context.Background(), newReminder(t), "worker-1"))
}

func TestReleaseClaim_PropagatesOtherErrors(t *testing.T) {
	client := &fakeClient{updateErr: errors.New("connection reset")}
	store := newTestStore(client)

	err := store.ReleaseClaim(context.Background(), newReminder(t), "worker-1")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
}
