package bridge

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/stagehand/internal/host"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

func newBridge(t *testing.T) (*Client, *host.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	session := host.NewDemoSession()
	router := gin.New()
	NewHandler(session).Register(router.Group("/"))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client()), session
}

func kindOf(err error) remote.Kind {
	var rerr *remote.Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return remote.KindUnknown
}

func TestClient_GetSetRoundTrip(t *testing.T) {
	client, session := newBridge(t)
	ctx := context.Background()

	track, err := client.Lookup(ctx, "live_set tracks 0")
	require.NoError(t, err)
	require.NoError(t, track.Set("volume", 0.5))

	volume, err := track.Get("volume")
	require.NoError(t, err)
	assert.Equal(t, 0.5, volume)

	got, _ := session.Track(0)
	assert.Equal(t, 0.5, got.Volume)
}

func TestClient_ErrorKindsSurviveTheWire(t *testing.T) {
	client, session := newBridge(t)
	ctx := context.Background()

	_, err := client.Lookup(ctx, "live_set tracks 99")
	assert.Equal(t, remote.KindInvalidPath, kindOf(err))

	param, err := client.Lookup(ctx, "live_set tracks 1 devices 0 parameters 4")
	require.NoError(t, err)
	assert.Equal(t, remote.KindPermission, kindOf(param.Set("value", 0.3)))

	slot, err := client.Lookup(ctx, "live_set tracks 0 clip_slots 0")
	require.NoError(t, err)
	_, err = slot.Call("create_clip", 4)
	require.NoError(t, err)
	_, err = slot.Call("create_clip", 4)
	assert.Equal(t, remote.KindState, kindOf(err))

	session.FailNext("live_set tracks 2", remote.KindTransient, 1)
	_, err = client.Lookup(ctx, "live_set tracks 2")
	assert.Equal(t, remote.KindTransient, kindOf(err))
	assert.True(t, remote.Classify(err).Retryable)
}

func TestClient_UnreachableIsConnection(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil)
	err := client.Ping(context.Background())
	assert.Equal(t, remote.KindConnection, kindOf(err))
}

func TestClient_WorksWithAccess(t *testing.T) {
	client, _ := newBridge(t)
	access := remote.NewAccess(client, remote.NewStateCache(0), remote.DefaultRetryPolicy())

	name, err := access.Get(context.Background(), "live_set tracks 1", "name")
	require.NoError(t, err)
	assert.Equal(t, "Bass", name)
}
