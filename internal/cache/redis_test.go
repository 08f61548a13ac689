package cache

import (
	"context"
	"testing"

	"github.com/bizframe/internal/config"
	"github.com/bizframe/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	if err := SetOrderSnapshot(ctx, &models.Order{Sn: "20240101000000" + "12345"}); err != nil {
		t.Fatalf("set on disabled cache should be noop: %v", err)
	}
	order, hit, err := GetOrderSnapshot(ctx, "2024010100000012345")
	if err != nil || hit || order != nil {
		t.Fatalf("disabled cache should miss: order=%v hit=%v err=%v", order, hit, err)
	}
	if err := DeleteOrderSnapshot(ctx, "2024010100000012345"); err != nil {
		t.Fatalf("delete on disabled cache should be noop: %v", err)
	}
	if err := Ping(ctx); err != nil {
		t.Fatalf("ping on disabled cache should be noop: %v", err)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	redisPrefix = "shop"
	defer func() { redisPrefix = "" }()
	if got := BuildKey(" order:sn:1 "); got != "shop:order:sn:1" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := BuildKey(""); got != "shop" {
		t.Fatalf("empty key should collapse to prefix, got %s", got)
	}
	redisPrefix = ""
	if got := BuildKey("x"); got != "biz:x" {
		t.Fatalf("default prefix want biz:x got %s", got)
	}
}
