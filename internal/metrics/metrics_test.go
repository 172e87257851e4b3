package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudWatch struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func (f *fakeCloudWatch) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, in := range f.inputs {
		out = append(out, aws.ToString(in.MetricData[0].MetricName))
	}
	return out
}

func TestNewClientDisabledOutsideProduction(t *testing.T) {
	client, err := NewClient(context.Background(), "development")
	require.NoError(t, err)
	assert.False(t, client.enabled)

	// no-op, must not panic
	client.RecordAPIRequest("/generate", 200, time.Millisecond)
	client.RecordGeneration(GenerationEvent{Provider: "openai"})
}

func TestPublishAPIRequest(t *testing.T) {
	fake := &fakeCloudWatch{}
	client := newClientWithAPI(fake, "production")

	client.publishAPIRequest("/generate", 200, 120*time.Millisecond)
	client.publishAPIRequest("/generate", 502, 10*time.Millisecond)

	assert.Equal(t, []string{"APIRequests", "APILatency", "APIErrors", "APILatency"}, fake.names())
	assert.Equal(t, namespace, aws.ToString(fake.inputs[0].Namespace))
}

func TestPublishGeneration(t *testing.T) {
	fake := &fakeCloudWatch{}
	client := newClientWithAPI(fake, "production")

	client.publishGeneration(GenerationEvent{
		Provider:    "openai",
		Model:       "gpt-image-1",
		Duration:    time.Second,
		Attempts:    2,
		TotalTokens: 300,
	})

	assert.Equal(t, []string{"GenerationDuration", "ProviderRetries", "ImageTokens/Total"}, fake.names())
	dims := fake.inputs[0].MetricData[0].Dimensions
	require.Len(t, dims, 3)
	assert.Equal(t, "success", aws.ToString(dims[1].Value))
}

func TestPublishErrorsAreSwallowed(t *testing.T) {
	fake := &fakeCloudWatch{err: errors.New("throttled")}
	client := newClientWithAPI(fake, "production")

	client.publishGeneration(GenerationEvent{Provider: "gemini", ErrorKind: "provider_timeout", Attempts: 1})
	assert.Equal(t, []string{"GenerationDuration"}, fake.names())
}

func TestGenerationEventOutcome(t *testing.T) {
	assert.Equal(t, "success", GenerationEvent{}.Outcome())
	assert.Equal(t, "provider_rejected", GenerationEvent{ErrorKind: "provider_rejected"}.Outcome())
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.RecordAPIRequest(context.Background(), "/generate", 200, time.Millisecond)
	r.RecordGeneration(context.Background(), GenerationEvent{})

	r = NewRecorder(NewSentryMetrics(), nil)
	r.RecordAPIRequest(context.Background(), "/generate", 500, time.Millisecond)
	r.RecordGeneration(context.Background(), GenerationEvent{ErrorKind: "provider_timeout"})
}
