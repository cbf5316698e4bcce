package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftride/messaging/internal/core/domain"
)

func TestAppendAndList(t *testing.T) {
	repo := NewMessageRepository()
	ctx := context.Background()

	first, err := repo.Append(ctx, "R1", "u1", domain.SenderRider, "hello")
	require.NoError(t, err)
	second, err := repo.Append(ctx, "R1", "d1", domain.SenderDriver, "on my way")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, second.CreatedAt.Before(first.CreatedAt))

	msgs, err := repo.ListByRide(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "on my way", msgs[1].Text)
}

func TestListEmptyRide(t *testing.T) {
	repo := NewMessageRepository()

	msgs, err := repo.ListByRide(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestRidesDoNotInterfere(t *testing.T) {
	repo := NewMessageRepository()
	ctx := context.Background()

	_, err := repo.Append(ctx, "R1", "u1", domain.SenderRider, "for R1")
	require.NoError(t, err)
	_, err = repo.Append(ctx, "R2", "u2", domain.SenderRider, "for R2")
	require.NoError(t, err)

	msgs, err := repo.ListByRide(ctx, "R2")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "for R2", msgs[0].Text)
}

func TestAppendRejectsInvalidInput(t *testing.T) {
	repo := NewMessageRepository()
	ctx := context.Background()

	_, err := repo.Append(ctx, "R1", "u1", domain.SenderType("passenger"), "hi")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	msgs, err := repo.ListByRide(ctx, "R1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestConcurrentAppendsTotalOrder(t *testing.T) {
	repo := NewMessageRepository()
	ctx := context.Background()

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_, err := repo.Append(ctx, "R1", fmt.Sprintf("u%d", i), domain.SenderRider, fmt.Sprintf("msg %d-%d", i, j))
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	msgs, err := repo.ListByRide(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, msgs, writers*perWriter)

	ids := make(map[string]struct{}, len(msgs))
	for i, msg := range msgs {
		ids[msg.ID] = struct{}{}
		if i > 0 {
			assert.True(t, msgs[i-1].CreatedAt.Before(msg.CreatedAt),
				"createdAt must be strictly increasing within a ride, got %v then %v", msgs[i-1].CreatedAt, msg.CreatedAt)
		}
	}
	assert.Len(t, ids, writers*perWriter, "every id must be unique")
}
