package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"automation-backend/application/ports"
	"automation-backend/domain/core/entities"
	"automation-backend/domain/core/valueobjects"
	pkgerrors "automation-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses
type DynamoDBAPI interface {
	dynamodb.QueryAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// ReminderStore implements ports.ReminderStore on a single sessions table.
//
// Table: partition key sessionId, sort key sortKey, TTL on expiresAt.
// Due index: partition key dueBucket, sort key reminderTime, projection ALL.
// Only undelivered reminders carry dueBucket, which keeps the index sparse.
type ReminderStore struct {
	client       DynamoDBAPI
	tableName    string
	dueIndexName string
	logger       *zap.Logger
}

// NewReminderStore creates a new ReminderStore
func NewReminderStore(client DynamoDBAPI, tableName, dueIndexName string, logger *zap.Logger) *ReminderStore {
	return &ReminderStore{
		client:       client,
		tableName:    tableName,
		dueIndexName: dueIndexName,
		logger:       logger,
	}
}

var _ ports.ReminderStore = (*ReminderStore)(nil)

// PutReminder persists a reminder record
func (s *ReminderStore) PutReminder(ctx context.Context, reminder *entities.Reminder) error {
	av, err := attributevalue.MarshalMap(toReminderItem(reminder))
	if err != nil {
		return fmt.Errorf("failed to marshal reminder: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		s.logger.Error("Failed to save reminder",
			zap.Error(err),
			zap.String("sessionId", reminder.SessionID),
			zap.String("reminderId", reminder.ID.String()),
		)
		return wrapError("put_reminder", err)
	}

	s.logger.Debug("Saved reminder",
		zap.String("sessionId", reminder.SessionID),
		zap.String("sortKey", reminder.SortKey()),
	)
	return nil
}

// PutRemoval persists a tombstone
func (s *ReminderStore) PutRemoval(ctx context.Context, removal *entities.Removal) error {
	av, err := attributevalue.MarshalMap(toRemovalItem(removal))
	if err != nil {
		return fmt.Errorf("failed to marshal removal: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		s.logger.Error("Failed to save removal",
			zap.Error(err),
			zap.String("sessionId", removal.SessionID),
			zap.String("reminderId", removal.ReminderID.String()),
		)
		return wrapError("put_removal", err)
	}
	return nil
}

// QueryReminders returns every reminder record in the session
func (s *ReminderStore) QueryReminders(ctx context.Context, sessionID string) ([]*entities.Reminder, error) {
	items, err := s.queryPrefix(ctx, sessionID, valueobjects.ReminderKeyPrefix)
	if err != nil {
		return nil, err
	}

	reminders := make([]*entities.Reminder, 0, len(items))
	for _, raw := range items {
		var item reminderItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reminder: %w", err)
		}
		reminder, err := item.toEntity()
		if err != nil {
			s.logger.Warn("Skipping malformed reminder", zap.Error(err), zap.String("sessionId", sessionID))
			continue
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}

// QueryRemovals returns every tombstone in the session
func (s *ReminderStore) QueryRemovals(ctx context.Context, sessionID string) ([]*entities.Removal, error) {
	items, err := s.queryPrefix(ctx, sessionID, valueobjects.RemovalKeyPrefix)
	if err != nil {
		return nil, err
	}

	removals := make([]*entities.Removal, 0, len(items))
	for _, raw := range items {
		var item removalItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal removal: %w", err)
		}
		removal, err := item.toEntity()
		if err != nil {
			s.logger.Warn("Skipping malformed removal", zap.Error(err), zap.String("sessionId", sessionID))
			continue
		}
		removals = append(removals, removal)
	}
	return removals, nil
}

// HasRemoval reports whether a tombstone exists for reminderID
func (s *ReminderStore) HasRemoval(ctx context.Context, sessionID string, reminderID valueobjects.ReminderID) (bool, error) {
	input := &dynamodb.GetItemInput{
		TableName:            aws.String(s.tableName),
		Key:                  itemKey(sessionID, reminderID.RemovalSortKey()),
		ProjectionExpression: aws.String(attrSortKey),
	}

	result, err := s.client.GetItem(ctx, input)
	if err != nil {
		return false, wrapError("get_removal", err)
	}
	return len(result.Item) > 0, nil
}

// QueryDue reads the sparse due index for pending reminders at or before now
func (s *ReminderStore) QueryDue(ctx context.Context, now time.Time) ([]*entities.Reminder, error) {
	keyCond := expression.Key(attrDueBucket).Equal(expression.Value(pendingBucket)).
		And(expression.Key(attrReminderTime).LessThanEqual(expression.Value(formatTime(now))))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build due query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.dueIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	items, err := s.query(ctx, input, "query_due")
	if err != nil {
		return nil, err
	}

	due := make([]*entities.Reminder, 0, len(items))
	for _, raw := range items {
		var item reminderItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reminder: %w", err)
		}
		reminder, err := item.toEntity()
		if err != nil {
			s.logger.Warn("Skipping malformed due reminder", zap.Error(err))
			continue
		}
		// The index is eventually consistent; drop anything already delivered.
		if reminder.IsDelivered() {
			continue
		}
		due = append(due, reminder)
	}

	s.logger.Debug("Queried due reminders",
		zap.Int("count", len(due)),
		zap.Time("now", now),
	)
	return due, nil
}

// ClaimForDelivery takes the delivery lease if the reminder is undelivered and unclaimed
func (s *ReminderStore) ClaimForDelivery(ctx context.Context, reminder *entities.Reminder, owner string, now, leaseUntil time.Time) error {
	update := expression.
		Set(expression.Name(attrClaimedBy), expression.Value(owner)).
		Set(expression.Name(attrClaimExpiresAt), expression.Value(formatTime(leaseUntil)))

	cond := expression.AttributeExists(expression.Name(attrSortKey)).And(
		expression.AttributeNotExists(expression.Name(attrSentAt)),
		expression.Or(
			expression.AttributeNotExists(expression.Name(attrClaimExpiresAt)),
			expression.Name(attrClaimExpiresAt).LessThan(expression.Value(formatTime(now))),
		),
	)

	return s.conditionalUpdate(ctx, "claim_reminder", reminder, update, cond)
}

// MarkDelivered records sentAt and retires the reminder from the due index
func (s *ReminderStore) MarkDelivered(ctx context.Context, reminder *entities.Reminder, owner string, sentAt time.Time) error {
	update := expression.
		Set(expression.Name(attrSentAt), expression.Value(formatTime(sentAt))).
		Remove(expression.Name(attrDueBucket)).
		Remove(expression.Name(attrClaimedBy)).
		Remove(expression.Name(attrClaimExpiresAt))

	cond := expression.AttributeNotExists(expression.Name(attrSentAt)).And(
		expression.Name(attrClaimedBy).Equal(expression.Value(owner)),
	)

	return s.conditionalUpdate(ctx, "mark_delivered", reminder, update, cond)
}

// ReleaseClaim drops owner's lease. A lease that already moved on is not an error.
func (s *ReminderStore) ReleaseClaim(ctx context.Context, reminder *entities.Reminder, owner string) error {
	update := expression.
		Remove(expression.Name(attrClaimedBy)).
		Remove(expression.Name(attrClaimExpiresAt))

	cond := expression.Name(attrClaimedBy).Equal(expression.Value(owner))

	err := s.conditionalUpdate(ctx, "release_claim", reminder, update, cond)
	if errors.Is(err, ports.ErrConditionFailed) {
		return nil
	}
	return err
}

func (s *ReminderStore) conditionalUpdate(
	ctx context.Context,
	operation string,
	reminder *entities.Reminder,
	update expression.UpdateBuilder,
	cond expression.ConditionBuilder,
) error {
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build %s expression: %w", operation, err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       itemKey(reminder.SessionID, reminder.SortKey()),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			s.logger.Debug("Conditional update rejected",
				zap.String("operation", operation),
				zap.String("sessionId", reminder.SessionID),
				zap.String("reminderId", reminder.ID.String()),
			)
			return ports.ErrConditionFailed
		}
		return wrapError(operation, err)
	}
	return nil
}

func (s *ReminderStore) queryPrefix(ctx context.Context, sessionID, prefix string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key(attrSessionID).Equal(expression.Value(sessionID)).
		And(expression.KeyBeginsWith(expression.Key(attrSortKey), prefix))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build session query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	return s.query(ctx, input, "query_session")
}

func (s *ReminderStore) query(ctx context.Context, input *dynamodb.QueryInput, operation string) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue

	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapError(operation, err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func itemKey(sessionID, sortKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrSessionID: &types.AttributeValueMemberS{Value: sessionID},
		attrSortKey:   &types.AttributeValueMemberS{Value: sortKey},
	}
}

// wrapError classifies an SDK error, keeping the service error code when there is one
func wrapError(operation string, err error) error {
	appErr := pkgerrors.NewDatabaseError(operation, err)

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		appErr.WithCode(apiErr.ErrorCode())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewTimeoutError(operation, err)
	}
	return appErr
}
