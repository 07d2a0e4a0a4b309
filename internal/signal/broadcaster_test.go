package signal

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"aviatorpro/internal/metrics"
	"aviatorpro/internal/models"
)

func TestBroadcaster_DeliversByPlatform(t *testing.T) {
	b := NewBroadcaster(nil)
	a, cancelA := b.Subscribe("aviator_a", 2)
	defer cancelA()
	other, cancelB := b.Subscribe("aviator_b", 2)
	defer cancelB()

	_ = b.Notify(context.Background(), models.Signal{ID: "s1", Platform: "aviator_a"})

	select {
	case got := <-a:
		if got.ID != "s1" {
			t.Fatalf("id=%q", got.ID)
		}
	default:
		t.Fatalf("aviator_a subscriber got nothing")
	}
	select {
	case got := <-other:
		t.Fatalf("aviator_b received %+v", got)
	default:
	}
}

func TestBroadcaster_DropsWhenFull(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	b := NewBroadcaster(m)
	_, cancel := b.Subscribe("aviator_a", 1)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := b.Notify(context.Background(), models.Signal{Platform: "aviator_a"}); err != nil {
			t.Fatalf("err=%v", err)
		}
	}
	if got := b.Dropped(); got != 2 {
		t.Fatalf("dropped=%d want=2", got)
	}
	if got := testutil.ToFloat64(m.SubscriberDrops); got != 2 {
		t.Fatalf("metric=%v want=2", got)
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster(nil)
	ch, cancel := b.Subscribe("aviator_a", 0)
	if b.Subscribers("aviator_a") != 1 {
		t.Fatalf("subscribers=%d", b.Subscribers("aviator_a"))
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed")
	}
	if b.Subscribers("aviator_a") != 0 {
		t.Fatalf("subscriber not removed")
	}
	_ = b.Notify(context.Background(), models.Signal{Platform: "aviator_a"})
}
