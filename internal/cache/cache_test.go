package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ReportCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, ttl, nil), srv
}

type report struct {
	Total float64 `json:"total"`
}

func TestNew_Defaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	c := New(client, 0, nil)
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
	if c.logger == nil {
		t.Error("logger is nil")
	}
}

func TestReportKey(t *testing.T) {
	c := New(nil, time.Minute, nil)

	tests := []struct {
		gen  int64
		key  string
		want string
	}{
		{0, "weekly:2024-10-07:", "timesheet:reports:0:weekly:2024-10-07:"},
		{12, "monthly:2024-10:Apollo", "timesheet:reports:12:monthly:2024-10:Apollo"},
	}
	for _, tt := range tests {
		if got := c.reportKey(tt.gen, tt.key); got != tt.want {
			t.Errorf("reportKey(%d, %q) = %q, want %q", tt.gen, tt.key, got, tt.want)
		}
	}
	if got := c.generationKey(); got != "timesheet:reports:generation" {
		t.Errorf("generationKey() = %q", got)
	}
}

func TestOpen_InvalidURL(t *testing.T) {
	if _, err := Open(context.Background(), "not a redis url"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestReportCache_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := New(client, time.Minute, nil)
	ctx := context.Background()

	var dst map[string]any
	if _, ok, err := c.Get(ctx, "weekly", &dst); ok || err == nil {
		t.Errorf("Get = (%v, %v), want an error", ok, err)
	}
	if err := c.Set(ctx, 0, "weekly", map[string]int{"a": 1}); err == nil {
		t.Error("Set succeeded against an unreachable server")
	}
	if err := c.Invalidate(ctx); err == nil {
		t.Error("Invalidate succeeded against an unreachable server")
	}
}

// =============================================================================
// Behaviour against an in-memory Redis
// =============================================================================

func TestReportCache_Contract(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		run     func(t *testing.T, c *ReportCache, srv *miniredis.Miniredis)
		wantHit bool
		want    float64
	}{
		{
			name: "miss on empty cache",
			run:  func(*testing.T, *ReportCache, *miniredis.Miniredis) {},
		},
		{
			name: "set then get",
			run: func(t *testing.T, c *ReportCache, _ *miniredis.Miniredis) {
				gen, _, _ := c.Get(ctx, "weekly", &report{})
				if err := c.Set(ctx, gen, "weekly", report{Total: 8}); err != nil {
					t.Fatal(err)
				}
			},
			wantHit: true,
			want:    8,
		},
		{
			name: "invalidate hides stored report",
			run: func(t *testing.T, c *ReportCache, _ *miniredis.Miniredis) {
				gen, _, _ := c.Get(ctx, "weekly", &report{})
				if err := c.Set(ctx, gen, "weekly", report{Total: 8}); err != nil {
					t.Fatal(err)
				}
				if err := c.Invalidate(ctx); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "invalidate while computing drops the stale write",
			run: func(t *testing.T, c *ReportCache, _ *miniredis.Miniredis) {
				gen, hit, err := c.Get(ctx, "weekly", &report{})
				if err != nil || hit {
					t.Fatalf("Get = (%v, %v)", hit, err)
				}
				if err := c.Invalidate(ctx); err != nil {
					t.Fatal(err)
				}
				if err := c.Set(ctx, gen, "weekly", report{Total: 8}); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "expires after ttl",
			run: func(t *testing.T, c *ReportCache, srv *miniredis.Miniredis) {
				gen, _, _ := c.Get(ctx, "weekly", &report{})
				if err := c.Set(ctx, gen, "weekly", report{Total: 8}); err != nil {
					t.Fatal(err)
				}
				srv.FastForward(2 * time.Minute)
			},
		},
		{
			name: "keys are independent",
			run: func(t *testing.T, c *ReportCache, _ *miniredis.Miniredis) {
				gen, _, _ := c.Get(ctx, "monthly", &report{})
				if err := c.Set(ctx, gen, "monthly", report{Total: 3}); err != nil {
					t.Fatal(err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestCache(t, time.Minute)
			tt.run(t, c, srv)

			var got report
			_, hit, err := c.Get(ctx, "weekly", &got)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if hit != tt.wantHit {
				t.Fatalf("hit = %v, want %v", hit, tt.wantHit)
			}
			if hit && got.Total != tt.want {
				t.Errorf("Total = %v, want %v", got.Total, tt.want)
			}
		})
	}
}

func TestReportCache_GenerationAndTTL(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t, time.Minute)

	gen, _, err := c.Get(ctx, "weekly", &report{})
	if err != nil || gen != 0 {
		t.Fatalf("Get = (gen %d, %v), want generation 0", gen, err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	gen, _, _ = c.Get(ctx, "weekly", &report{})
	if gen != 1 {
		t.Fatalf("generation = %d after Invalidate, want 1", gen)
	}

	if err := c.Set(ctx, gen, "weekly", report{Total: 5}); err != nil {
		t.Fatal(err)
	}
	key := c.reportKey(gen, "weekly")
	if !srv.Exists(key) {
		t.Fatalf("%s not stored", key)
	}
	if ttl := srv.TTL(key); ttl != time.Minute {
		t.Errorf("TTL = %v, want %v", ttl, time.Minute)
	}
}

func TestReportCache_CorruptValue(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t, time.Minute)
	if err := srv.Set(c.reportKey(0, "weekly"), "{not json"); err != nil {
		t.Fatal(err)
	}

	_, hit, err := c.Get(ctx, "weekly", &report{})
	if hit || err == nil {
		t.Errorf("Get = (%v, %v), want a decode error", hit, err)
	}
}
