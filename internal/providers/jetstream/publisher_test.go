package jetstream_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/mocks"
	js "github.com/feral-file/nft-registry/internal/providers/jetstream"
)

func testConfig() js.Config {
	return js.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "REGISTRY_EVENTS",
		SubjectPrefix:  "registry.events",
		ConsumerName:   "agent",
		MaxReconnects:  3,
		ReconnectWait:  time.Second,
		ConnectionName: "registry-node",
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
	}
}

func TestConfig_Subject(t *testing.T) {
	assert.Equal(t, "registry.events.transfer", testConfig().Subject(domain.EventKindTransfer))
}

func TestNewPublisher(t *testing.T) {
	tests := []struct {
		name        string
		setupMocks  func(*mocks.MockNatsJetStream, *mocks.MockNatsConn, *mocks.MockJetStream)
		expectedErr string
	}{
		{
			name: "creates stream",
			setupMocks: func(natsJS *mocks.MockNatsJetStream, nc *mocks.MockNatsConn, jsm *mocks.MockJetStream) {
				natsJS.EXPECT().Connect("nats://localhost:4222", gomock.Any()).Return(nc, jsm, nil)
				jsm.EXPECT().
					CreateOrUpdateStream(gomock.Any(), jetstream.StreamConfig{
						Name:     "REGISTRY_EVENTS",
						Subjects: []string{"registry.events.>"},
					}).
					Return(nil)
			},
		},
		{
			name: "connect failure",
			setupMocks: func(natsJS *mocks.MockNatsJetStream, nc *mocks.MockNatsConn, jsm *mocks.MockJetStream) {
				natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nil, nil, nats.ErrNoServers)
			},
			expectedErr: "failed to connect to NATS",
		},
		{
			name: "stream failure closes connection",
			setupMocks: func(natsJS *mocks.MockNatsJetStream, nc *mocks.MockNatsConn, jsm *mocks.MockJetStream) {
				natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nc, jsm, nil)
				jsm.EXPECT().CreateOrUpdateStream(gomock.Any(), gomock.Any()).Return(assert.AnError)
				nc.EXPECT().Close()
			},
			expectedErr: "failed to create or update stream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			natsJS := mocks.NewMockNatsJetStream(ctrl)
			nc := mocks.NewMockNatsConn(ctrl)
			jsm := mocks.NewMockJetStream(ctrl)
			tt.setupMocks(natsJS, nc, jsm)

			p, err := js.NewPublisher(context.Background(), testConfig(), natsJS, adapter.NewJSON())
			if tt.expectedErr != "" {
				assert.ErrorContains(t, err, tt.expectedErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func TestPublisher_PublishEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	natsJS := mocks.NewMockNatsJetStream(ctrl)
	nc := mocks.NewMockNatsConn(ctrl)
	jsm := mocks.NewMockJetStream(ctrl)

	natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nc, jsm, nil)
	jsm.EXPECT().CreateOrUpdateStream(gomock.Any(), gomock.Any()).Return(nil)

	p, err := js.NewPublisher(ctx, testConfig(), natsJS, adapter.NewJSON())
	require.NoError(t, err)

	event := &domain.Event{
		ID:           "01HZX3K6Y1J9V4A8Q2W5E7R0TB",
		Kind:         domain.EventKindMint,
		TokenID:      domain.DeriveTokenID("tx", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
		Participants: []domain.Address{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		BlockHeight:  7,
	}

	jsm.EXPECT().
		Publish(ctx, "registry.events.mint", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
			var decoded domain.Event
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, *event, decoded)
			assert.Len(t, opts, 1, "message id is set for deduplication")
			return &jetstream.PubAck{Stream: "REGISTRY_EVENTS", Sequence: 1}, nil
		})
	require.NoError(t, p.PublishEvent(ctx, event))

	jsm.EXPECT().Publish(ctx, "registry.events.burn", gomock.Any()).Return(nil, assert.AnError)
	err = p.PublishEvent(ctx, &domain.Event{Kind: domain.EventKindBurn})
	assert.ErrorIs(t, err, assert.AnError)

	nc.EXPECT().Close()
	p.Close()
}
