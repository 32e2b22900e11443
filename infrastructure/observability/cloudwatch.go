package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// PutMetricDataAPI is the subset of the CloudWatch client the reporter uses
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// SweepReporter pushes dispatch sweep counts to CloudWatch.
// The dispatcher Lambda has no scrape endpoint, so it reports after each run.
type SweepReporter struct {
	namespace string
	client    PutMetricDataAPI
	logger    *zap.Logger
}

// NewSweepReporter creates a new reporter. A nil client disables reporting.
func NewSweepReporter(namespace string, client PutMetricDataAPI, logger *zap.Logger) *SweepReporter {
	return &SweepReporter{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// ReportSweep records one sweep's counts. Failures are logged, never returned.
func (r *SweepReporter) ReportSweep(ctx context.Context, candidates, delivered, skipped, failed int, duration time.Duration) {
	if r == nil || r.client == nil {
		return
	}

	now := time.Now()
	count := func(name string, value int) types.MetricDatum {
		return types.MetricDatum{
			MetricName: aws.String(name),
			Value:      aws.Float64(float64(value)),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
		}
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(r.namespace),
		MetricData: []types.MetricDatum{
			count("DueReminders", candidates),
			count("RemindersDelivered", delivered),
			count("RemindersSkipped", skipped),
			count("RemindersFailed", failed),
			{
				MetricName: aws.String("SweepDuration"),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       types.StandardUnitMilliseconds,
				Timestamp:  aws.Time(now),
			},
		},
	}

	if _, err := r.client.PutMetricData(ctx, input); err != nil {
		r.logger.Warn("Failed to send sweep metrics", zap.Error(err), zap.String("namespace", r.namespace))
	}
}
