package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"automation-backend/domain/core/entities"
	"automation-backend/domain/events"
	pkgerrors "automation-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEventBridge struct {
	inputs []*eventbridge.PutEventsInput
	output *eventbridge.PutEventsOutput
	err    error
}

func (f *fakeEventBridge) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.output == nil {
		return &eventbridge.PutEventsOutput{}, nil
	}
	return f.output, nil
}

func reminderCreated(t *testing.T) events.ReminderCreated {
	t.Helper()
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	reminder, err := entities.NewReminder("S", "check the deployment", now.Add(time.Hour), now, 0, "")
	require.NoError(t, err)
	return events.NewReminderCreated(reminder, entities.Requester{ID: "u1", Name: "Dana"}, now)
}

func TestPublish_BuildsEntry(t *testing.T) {
	client := &fakeEventBridge{}
	publisher := NewPublisher(client, "automation-bus", "", zap.NewNop())
	event := reminderCreated(t)

	require.NoError(t, publisher.Publish(context.Background(), event))
	require.Len(t, client.inputs, 1)
	require.Len(t, client.inputs[0].Entries, 1)

	entry := client.inputs[0].Entries[0]
	assert.Equal(t, "automation-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, "automation.bot", aws.ToString(entry.Source))
	assert.Equal(t, "ReminderCreated", aws.ToString(entry.DetailType))
	assert.Equal(t, event.OccurredAt, aws.ToTime(entry.Time))

	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "S", detail["sessionId"])
	assert.Equal(t, event.ReminderID, detail["reminderId"])
	assert.Equal(t, "check the deployment", detail["message"])
}

func TestPublish_CustomSource(t *testing.T) {
	client := &fakeEventBridge{}
	publisher := NewPublisher(client, "bus", "automation.bot.staging", zap.NewNop())

	require.NoError(t, publisher.Publish(context.Background(), reminderCreated(t)))
	assert.Equal(t, "automation.bot.staging", aws.ToString(client.inputs[0].Entries[0].Source))
}

func TestPublish_ClientError(t *testing.T) {
	client := &fakeEventBridge{err: errors.New("throttled")}
	publisher := NewPublisher(client, "bus", "", zap.NewNop())

	err := publisher.Publish(context.Background(), reminderCreated(t))
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
}

func TestPublish_FailedEntries(t *testing.T) {
	client := &fakeEventBridge{
		output: &eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("try again")},
			},
		},
	}
	publisher := NewPublisher(client, "bus", "", zap.NewNop())

	err := publisher.Publish(context.Background(), reminderCreated(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 events failed to publish")
}
