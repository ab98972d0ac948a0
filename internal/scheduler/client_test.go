package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"fieldcrm_backend/internal/events"
	"fieldcrm_backend/internal/leads/domain"
	"fieldcrm_backend/internal/leads/repository"
	"fieldcrm_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type schedulerConfig struct {
	redisURL string
	insecure bool
}

func (c schedulerConfig) GetRedisURL() string                     { return c.redisURL }
func (c schedulerConfig) GetRedisTLSInsecure() bool               { return c.insecure }
func (c schedulerConfig) GetAsynqQueueName() string               { return "default" }
func (c schedulerConfig) GetAsynqConcurrency() int                { return 1 }
func (c schedulerConfig) GetCallLaterScanInterval() time.Duration { return time.Minute }

func TestRedisOptFromURL(t *testing.T) {
	srv := miniredis.RunT(t)

	opt, err := RedisOpt(schedulerConfig{redisURL: "redis://" + srv.Addr() + "/2"})
	if err != nil {
		t.Fatalf("RedisOpt: %v", err)
	}
	if opt.Addr != srv.Addr() {
		t.Errorf("addr = %q, want %q", opt.Addr, srv.Addr())
	}
	if opt.DB != 2 {
		t.Errorf("db = %d, want 2", opt.DB)
	}

	// The parsed options must actually reach the server.
	client := redis.NewClient(&redis.Options{Addr: opt.Addr, DB: opt.DB})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping via parsed options: %v", err)
	}
}

func TestRedisOptRejectsBadURL(t *testing.T) {
	if _, err := RedisOpt(schedulerConfig{redisURL: "not-a-url"}); err == nil {
		t.Fatal("expected error for malformed redis url")
	}
}

type fakeDueStore struct {
	leads []repository.Lead
}

func (f *fakeDueStore) ListDueOnDate(_ context.Context, _ time.Time) ([]repository.Lead, error) {
	return f.leads, nil
}

type captureHandler struct {
	mu  sync.Mutex
	got []events.CallLaterDue
}

func (h *captureHandler) Handle(_ context.Context, raw events.Event) error {
	if e, ok := raw.(events.CallLaterDue); ok {
		h.mu.Lock()
		h.got = append(h.got, e)
		h.mu.Unlock()
	}
	return nil
}

func (h *captureHandler) events() []events.CallLaterDue {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.CallLaterDue(nil), h.got...)
}

func TestScanPublishesOneEventPerDueLead(t *testing.T) {
	operator := uuid.New()
	date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	store := &fakeDueStore{leads: []repository.Lead{
		{ID: uuid.New(), CustomerName: "Asha Verma", Status: domain.StatusHold, CallOperatorID: &operator, ScheduledCallDate: &date},
		{ID: uuid.New(), CustomerName: "Ravi Kumar", Status: domain.StatusNew, CallOperatorID: &operator, ScheduledCallDate: &date},
	}}

	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	handler := &captureHandler{}
	bus.Subscribe(events.CallLaterDue{}.EventName(), handler)

	worker := NewWorker(store, bus, log)
	dispatched, err := worker.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if dispatched != 2 {
		t.Errorf("dispatched = %d, want 2", dispatched)
	}

	// Publish is asynchronous; give handlers a beat to run.
	deadline := time.Now().Add(time.Second)
	for len(handler.events()) < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	got := handler.events()
	if len(got) != 2 {
		t.Fatalf("handled events = %d, want 2", len(got))
	}
	if got[0].ScheduledDate != "2026-08-31" {
		t.Errorf("scheduled date = %q, want 2026-08-31", got[0].ScheduledDate)
	}
}
