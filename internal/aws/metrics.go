package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics publishes checkout counters to CloudWatch. A Metrics with an empty
// namespace or nil client drops every datapoint.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// Count records value occurrences of name, dimensioned by table.
func (m *Metrics) Count(ctx context.Context, name, table string, value float64) error {
	if m == nil || m.client == nil || m.namespace == "" {
		return nil
	}
	now := m.nowFunc()
	datum := cwtypes.MetricDatum{
		MetricName: awsString(name),
		Timestamp:  &now,
		Unit:       cwtypes.StandardUnitCount,
		Value:      &value,
	}
	if table != "" {
		datum.Dimensions = []cwtypes.Dimension{
			{Name: awsString("Table"), Value: awsString(table)},
		}
	}
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  awsString(m.namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		return fmt.Errorf("put metric data %s: %w", name, err)
	}
	return nil
}
