package agent_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-registry/internal/agent"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/messaging"
	"github.com/feral-file/nft-registry/internal/mocks"
)

func TestWatch(t *testing.T) {
	alice := domain.Address("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	bob := domain.Address("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")

	events := []*domain.Event{
		{Kind: domain.EventKindMint, TokenID: "0x01", Participants: []domain.Address{alice}},
		{Kind: domain.EventKindMint, TokenID: "0x02", Participants: []domain.Address{bob}},
		{Kind: domain.EventKindTransfer, TokenID: "0x01", Participants: []domain.Address{alice, bob}},
	}

	tests := []struct {
		name     string
		addr     domain.Address
		expected []domain.TokenID
	}{
		{"all events", "", []domain.TokenID{"0x01", "0x02", "0x01"}},
		{"alice only", alice, []domain.TokenID{"0x01", "0x01"}},
		{"bob only", bob, []domain.TokenID{"0x02", "0x01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			sub := mocks.NewMockSubscriber(ctrl)
			sub.EXPECT().Subscribe(gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, handler messaging.EventHandler) error {
					for _, e := range events {
						if err := handler(ctx, e); err != nil {
							return err
						}
					}
					return nil
				})

			var got []domain.TokenID
			err := agent.Watch(context.Background(), sub, tt.addr, func(_ context.Context, e *domain.Event) error {
				got = append(got, e.TokenID)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
