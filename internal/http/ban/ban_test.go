package ban

import (
	"context"
	"testing"
)

func TestWithoutRedis_NoOp(t *testing.T) {
	SetRedisService(nil)
	ctx := context.Background()

	for range 10 {
		banned, err := RegisterStrike(ctx, "10.0.0.1", "/login")
		if err != nil || banned {
			t.Fatalf("expected no ban without redis, got banned=%v err=%v", banned, err)
		}
	}

	banned, err := IsBanned(ctx, "10.0.0.1")
	if err != nil || banned {
		t.Fatalf("expected not banned, got %v %v", banned, err)
	}

	summary, err := DrainBanSummary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 0 {
		t.Errorf("expected empty summary, got %d", summary.Total)
	}
}
