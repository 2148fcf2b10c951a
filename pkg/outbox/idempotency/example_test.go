package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type exampleStore struct {
	values []bool
	index  int
}

func (s *exampleStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (s *exampleStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	result := false
	if s.index < len(s.values) {
		result = s.values[s.index]
	}
	s.index++
	return result, nil
}

func (s *exampleStore) IdempotencyKey(scope, id string) string {
	return "oop:idempotency:" + scope + ":" + id
}

func (s *exampleStore) Del(context.Context, ...string) error {
	return nil
}

type exampleChannel struct {
	name    string
	manager *Manager
}

func (c *exampleChannel) send(ctx context.Context, dispatchID uuid.UUID) string {
	alreadySent, _ := c.manager.CheckAndMarkProcessed(ctx, c.name, dispatchID)
	if alreadySent {
		return "already sent"
	}
	return "sending message"
}

func ExampleManager_CheckAndMarkProcessed() {
	ctx := context.Background()
	store := &exampleStore{values: []bool{true, false}}
	manager, _ := NewManager(store, 7*24*time.Hour)
	channel := &exampleChannel{name: "notify-whatsapp", manager: manager}
	dispatchID := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

	fmt.Println(channel.send(ctx, dispatchID))
	fmt.Println(channel.send(ctx, dispatchID))
	// Output:
	// sending message
	// already sent
}
