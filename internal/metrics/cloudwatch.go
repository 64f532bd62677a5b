package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace             = "Stagehand/Bridge"
	httpStatusServerError = 500
	putTimeout            = 5 * time.Second
)

// Client publishes bridge metrics to CloudWatch. Outside production it is
// a no-op, as is a nil *Client.
type Client struct {
	client      *cloudwatch.Client
	environment string
}

// NewClient loads the default AWS config in production. A config failure
// is logged and yields a disabled client so startup never depends on AWS.
func NewClient(ctx context.Context, environment string) (*Client, error) {
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{environment: environment}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{environment: environment}, nil
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)
	return &Client{client: cloudwatch.NewFromConfig(cfg), environment: environment}, nil
}

// Enabled reports whether datapoints are actually sent
func (m *Client) Enabled() bool {
	return m != nil && m.client != nil
}

// RecordAPIRequest publishes APIRequests or APIErrors plus APILatency
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.Enabled() {
		return
	}
	m.publish(apiData(endpoint, m.environment, statusCode, duration, time.Now()))
}

// RecordCommand publishes CommandCount or CommandErrors plus CommandLatency
func (m *Client) RecordCommand(command, errorKind string, duration time.Duration) {
	if !m.Enabled() {
		return
	}
	m.publish(commandData(command, m.environment, errorKind, duration, time.Now()))
}

// RecordCollaboratorCall publishes CollaboratorLatency
func (m *Client) RecordCollaboratorCall(collaborator string, duration time.Duration, success bool) {
	if !m.Enabled() {
		return
	}
	m.publish(collaboratorData(collaborator, m.environment, success, duration, time.Now()))
}

// publish sends one batch in the background; metrics never slow a command
func (m *Client) publish(data []types.MetricDatum) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), putTimeout)
		defer cancel()

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(namespace),
			MetricData: data,
		})
		if err != nil {
			log.Printf("Failed to publish %d CloudWatch datapoints: %v", len(data), err)
		}
	}()
}

func apiData(endpoint, env string, statusCode int, d time.Duration, at time.Time) []types.MetricDatum {
	dims := dimensions("Endpoint", endpoint, "Environment", env)
	name := "APIRequests"
	if statusCode >= httpStatusServerError {
		name = "APIErrors"
	}
	return []types.MetricDatum{
		count(name, dims, at),
		latency("APILatency", d, dims, at),
	}
}

func commandData(command, env, errorKind string, d time.Duration, at time.Time) []types.MetricDatum {
	dims := dimensions("Command", command, "Environment", env)
	counted := count("CommandCount", dims, at)
	if errorKind != "" {
		counted = count("CommandErrors", append(dimensions("ErrorKind", errorKind), dims...), at)
	}
	return []types.MetricDatum{counted, latency("CommandLatency", d, dims, at)}
}

func collaboratorData(collaborator, env string, success bool, d time.Duration, at time.Time) []types.MetricDatum {
	outcome := "false"
	if success {
		outcome = "true"
	}
	dims := dimensions("Collaborator", collaborator, "Success", outcome, "Environment", env)
	return []types.MetricDatum{latency("CollaboratorLatency", d, dims, at)}
}

// dimensions pairs up name, value arguments
func dimensions(pairs ...string) []types.Dimension {
	dims := make([]types.Dimension, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		dims = append(dims, types.Dimension{Name: aws.String(pairs[i]), Value: aws.String(pairs[i+1])})
	}
	return dims
}

func count(name string, dims []types.Dimension, at time.Time) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(at),
		Dimensions: dims,
	}
}

func latency(name string, d time.Duration, dims []types.Dimension, at time.Time) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(float64(d.Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
		Timestamp:  aws.Time(at),
		Dimensions: dims,
	}
}
