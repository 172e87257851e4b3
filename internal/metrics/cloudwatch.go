package metrics

import (
	"context"
	"time"

	"github.com/airplanegirl/cards-for-care-api/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "CardsForCare/API"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// putMetricDataAPI is the subset of the CloudWatch client used here
type putMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      putMetricDataAPI
	enabled     bool
	environment string
}

// NewClient creates a new CloudWatch metrics client
func NewClient(ctx context.Context, environment string) (*Client, error) {
	// Only enable in production
	if environment != "production" {
		logger.Info("CloudWatch metrics disabled", logger.Fields{"environment": environment})
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Warn("Failed to load AWS config for CloudWatch", logger.Fields{"error": err.Error()})
		return &Client{enabled: false}, nil
	}

	logger.Info("CloudWatch metrics enabled", logger.Fields{"namespace": namespace})
	return newClientWithAPI(cloudwatch.NewFromConfig(cfg), environment), nil
}

func newClientWithAPI(api putMetricDataAPI, environment string) *Client {
	return &Client{
		client:      api,
		enabled:     true,
		environment: environment,
	}
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if m == nil || !m.enabled {
		return
	}

	go m.publishAPIRequest(endpoint, statusCode, duration)
}

func (m *Client) publishAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	metricName := "APIRequests"
	if statusCode >= httpStatusServerError {
		metricName = "APIErrors"
	}

	dimensions := []types.Dimension{
		{
			Name:  aws.String("Endpoint"),
			Value: aws.String(endpoint),
		},
		{
			Name:  aws.String("Environment"),
			Value: aws.String(m.environment),
		},
	}

	m.put(metricName, 1, types.StandardUnitCount, dimensions)
	m.put("APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
}

// RecordGeneration records the outcome of one card generation
func (m *Client) RecordGeneration(event GenerationEvent) {
	if m == nil || !m.enabled {
		return
	}

	go m.publishGeneration(event)
}

func (m *Client) publishGeneration(event GenerationEvent) {
	dimensions := []types.Dimension{
		{
			Name:  aws.String("Provider"),
			Value: aws.String(event.Provider),
		},
		{
			Name:  aws.String("Outcome"),
			Value: aws.String(event.Outcome()),
		},
		{
			Name:  aws.String("Environment"),
			Value: aws.String(m.environment),
		},
	}

	m.put("GenerationDuration", float64(event.Duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
	if event.Attempts > 1 {
		m.put("ProviderRetries", float64(event.Attempts-1), types.StandardUnitCount, dimensions)
	}
	if event.TotalTokens > 0 {
		m.put("ImageTokens/Total", float64(event.TotalTokens), types.StandardUnitCount, dimensions)
	}
}

func (m *Client) put(metricName string, value float64, unit types.StandardUnit, dimensions []types.Dimension) {
	if err := m.putMetric(metricName, value, unit, dimensions); err != nil {
		logger.Warn("Failed to record CloudWatch metric", logger.Fields{
			"metric": metricName,
			"error":  err.Error(),
		})
	}
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	// Create context with timeout for CloudWatch call
	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}
