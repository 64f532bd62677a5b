package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Snapshot(t *testing.T) {
	r := NewRecorder(NewSentryMetrics(false), nil)
	ctx := context.Background()

	r.RecordCommand(ctx, "set_volume", "", 10*time.Millisecond)
	r.RecordCommand(ctx, "set_volume", "", 20*time.Millisecond)
	r.RecordCommand(ctx, "create_clip", "STATE", 5*time.Millisecond)
	r.RecordCollaboratorCall(ctx, "generation", 100*time.Millisecond, false)

	snap := r.Snapshot()
	require.Contains(t, snap.Commands, "set_volume")
	assert.Equal(t, int64(2), snap.Commands["set_volume"].Count)
	assert.InDelta(t, 15.0, snap.Commands["set_volume"].AvgLatencyMs, 0.001)
	assert.Equal(t, int64(1), snap.Commands["create_clip"].ErrorKinds["STATE"])
	assert.Equal(t, []string{"set_volume", "create_clip"}, snap.TopCommands)
	assert.Equal(t, int64(1), snap.Collaborators["generation"].Failures)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.RecordCommand(context.Background(), "play", "", time.Millisecond)
	snap := r.Snapshot()
	assert.Empty(t, snap.Commands)
}

func TestNewClient_DisabledOutsideProduction(t *testing.T) {
	c, err := NewClient(context.Background(), "development")
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	c.RecordCommand("play", "", time.Millisecond)

	var none *Client
	assert.False(t, none.Enabled())
	none.RecordAPIRequest("/health", 200, time.Millisecond)
}

func TestCommandData(t *testing.T) {
	at := time.Unix(1700000000, 0)

	ok := commandData("set_volume", "production", "", 12*time.Millisecond, at)
	require.Len(t, ok, 2)
	assert.Equal(t, "CommandCount", aws.ToString(ok[0].MetricName))
	assert.Equal(t, "CommandLatency", aws.ToString(ok[1].MetricName))
	assert.Equal(t, 12.0, aws.ToFloat64(ok[1].Value))
	assert.Equal(t, types.StandardUnitMilliseconds, ok[1].Unit)

	failed := commandData("create_clip", "production", "STATE", time.Millisecond, at)
	assert.Equal(t, "CommandErrors", aws.ToString(failed[0].MetricName))
	require.Len(t, failed[0].Dimensions, 3)
	assert.Equal(t, "ErrorKind", aws.ToString(failed[0].Dimensions[0].Name))
	assert.Equal(t, "STATE", aws.ToString(failed[0].Dimensions[0].Value))
	assert.Len(t, failed[1].Dimensions, 2)
}

func TestAPIData_ServerErrors(t *testing.T) {
	at := time.Now()
	assert.Equal(t, "APIRequests", aws.ToString(apiData("/health", "production", 200, 0, at)[0].MetricName))
	assert.Equal(t, "APIErrors", aws.ToString(apiData("/health", "production", 503, 0, at)[0].MetricName))
}

func TestCollaboratorData(t *testing.T) {
	data := collaboratorData("generation", "production", false, 250*time.Millisecond, time.Now())
	require.Len(t, data, 1)
	dims := data[0].Dimensions
	require.Len(t, dims, 3)
	assert.Equal(t, "Success", aws.ToString(dims[1].Name))
	assert.Equal(t, "false", aws.ToString(dims[1].Value))
}
