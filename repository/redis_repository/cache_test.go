package redis_repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestCacheAgainstRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redisC, err := tcRedis.RunContainer(ctx, testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp")))
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	defer func() { _ = client.Close() }()

	c := NewCache(client)
	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, "synonyms:korea:ai", `["AI"]`, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, err := c.Get(ctx, "synonyms:korea:ai"); err != nil || !ok || v != `["AI"]` {
		t.Fatalf("get = %q %v %v", v, ok, err)
	}

	token, ok, err := c.TryLock(ctx, "lock:job", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := c.TryLock(ctx, "lock:job", time.Minute); ok {
		t.Fatalf("second lock should fail")
	}
	if err := c.Unlock(ctx, "lock:job", "other-token"); err != nil {
		t.Fatalf("unlock other: %v", err)
	}
	if _, ok, _ := c.TryLock(ctx, "lock:job", time.Minute); ok {
		t.Fatalf("lock released by foreign token")
	}
	if err := c.Unlock(ctx, "lock:job", token); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, ok, _ := c.TryLock(ctx, "lock:job", time.Minute); !ok {
		t.Fatalf("lock should be free after unlock")
	}
}
