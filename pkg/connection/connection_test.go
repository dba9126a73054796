package connection

import (
	"testing"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

func TestCreateStartsIdle(t *testing.T) {
	m := NewManager()
	m.Create(&model.Connection{ID: "conn-1"})

	c, err := m.Get("conn-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Status != model.ConnIdle {
		t.Fatalf("expected IDLE, got %s", c.Status)
	}
}

func TestFullSetupLifecycle(t *testing.T) {
	m := NewManager()
	m.Create(&model.Connection{ID: "conn-1"})

	steps := []struct {
		ev   Event
		want model.ConnectionStatus
	}{
		{EventPlanned, model.ConnPlanned},
		{EventSetupRequested, model.ConnSetupPending},
		{EventSetupCompleted, model.ConnActive},
	}
	for _, s := range steps {
		got, err := m.Apply("conn-1", s.ev)
		if err != nil {
			t.Fatalf("apply %s: %v", s.ev, err)
		}
		if got != s.want {
			t.Fatalf("apply %s: expected %s, got %s", s.ev, s.want, got)
		}
	}
}

func TestDegradeReconfigureRecover(t *testing.T) {
	m := NewManager()
	m.Create(&model.Connection{ID: "conn-1"})
	for _, ev := range []Event{EventPlanned, EventSetupRequested, EventSetupCompleted} {
		if _, err := m.Apply("conn-1", ev); err != nil {
			t.Fatalf("apply %s: %v", ev, err)
		}
	}

	if got, err := m.Apply("conn-1", EventDegradationFound); err != nil || got != model.ConnDegraded {
		t.Fatalf("expected DEGRADED, got %s err %v", got, err)
	}
	if got, err := m.Apply("conn-1", EventReconfigRequested); err != nil || got != model.ConnReconfigPending {
		t.Fatalf("expected RECONFIG_PENDING, got %s err %v", got, err)
	}
	if got, err := m.Apply("conn-1", EventReconfigCompleted); err != nil || got != model.ConnActive {
		t.Fatalf("expected ACTIVE, got %s err %v", got, err)
	}
}

func TestInvalidTransitionRejected(t *testing.T) {
	m := NewManager()
	m.Create(&model.Connection{ID: "conn-1"})

	if _, err := m.Apply("conn-1", EventSetupCompleted); err == nil {
		t.Fatal("expected error transitioning straight from IDLE to ACTIVE")
	}
}

func TestTeardownDeletesFromDegraded(t *testing.T) {
	m := NewManager()
	m.Create(&model.Connection{ID: "conn-1"})
	for _, ev := range []Event{EventPlanned, EventSetupRequested, EventSetupCompleted, EventDegradationFound} {
		if _, err := m.Apply("conn-1", ev); err != nil {
			t.Fatalf("apply %s: %v", ev, err)
		}
	}

	if got, err := m.Apply("conn-1", EventTeardownRequested); err != nil || got != model.ConnTeardown {
		t.Fatalf("expected TEARDOWN, got %s err %v", got, err)
	}
	if got, err := m.Apply("conn-1", EventTeardownCompleted); err != nil || got != model.ConnDeleted {
		t.Fatalf("expected DELETED, got %s err %v", got, err)
	}

	m.Delete("conn-1")
	if _, err := m.Get("conn-1"); err == nil {
		t.Fatal("expected connection to be gone after Delete")
	}
}

func TestMutateUpdatesRecordUnderLock(t *testing.T) {
	m := NewManager()
	m.Create(&model.Connection{ID: "conn-1"})

	err := m.Mutate("conn-1", func(c *model.Connection) {
		c.Path = []model.PathHop{{LinkID: "link-1", POPA: "pop-a", POPB: "pop-b"}}
		c.Slots = model.SlotRange{StartIndex: 0, Count: 8}
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	c, _ := m.Get("conn-1")
	if len(c.Path) != 1 || c.Slots.Count != 8 {
		t.Fatalf("unexpected connection after mutate: %+v", c)
	}
}

func TestListReturnsSnapshot(t *testing.T) {
	m := NewManager()
	m.Create(&model.Connection{ID: "conn-1"})
	m.Create(&model.Connection{ID: "conn-2"})

	if got := m.List(); len(got) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(got))
	}
}
