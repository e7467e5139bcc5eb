package events

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
)

func TestPubSubPublisher_Send(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	client, err := pubsub.NewClient(ctx, "todolab-test", option.WithGRPCConn(conn))
	require.NoError(t, err)

	p, err := NewPubSubPublisher(ctx, client, "todolab-events", zap.NewNop())
	require.NoError(t, err)
	defer p.Close()

	err = p.Send(ctx, sharedBus.BrokerMessage{
		Type:    "UserRegisteredIntegrationEvent",
		Key:     []byte("user-1"),
		Body:    []byte(`{"email":"ana@example.com"}`),
		Headers: map[string]string{sharedBus.HeaderEventType: "UserRegisteredIntegrationEvent"},
	})
	require.NoError(t, err)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, `{"email":"ana@example.com"}`, string(msgs[0].Data))
	assert.Equal(t, "UserRegisteredIntegrationEvent", msgs[0].Attributes[sharedBus.HeaderEventType])
}
