package ctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdb"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbapi"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbclient"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/messages"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/qot"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/store"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []struct {
		key   string
		value []byte
	}
}

func (f *fakePublisher) Publish(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, struct {
		key   string
		value []byte
	}{key, value})
	return nil
}

func (f *fakePublisher) last(t *testing.T) messages.CommandEnvelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		t.Fatal("expected at least one published command")
	}
	var env messages.CommandEnvelope
	if err := json.Unmarshal(f.msgs[len(f.msgs)-1].value, &env); err != nil {
		t.Fatalf("unmarshal command: %v", err)
	}
	return env
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func postJSON(t *testing.T, baseURL, path string, v interface{}) {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		t.Fatalf("post %s: unexpected status %d", path, resp.StatusCode)
	}
}

func newTopology(t *testing.T) *httptest.Server {
	t.Helper()
	svc := linkdb.NewService(store.NewMemoryStore())
	ts := httptest.NewServer(linkdbapi.New(svc, apiserver.DefaultOptions()).Handler())
	postJSON(t, ts.URL, "/api/pops", model.POP{ID: "pop-a"})
	postJSON(t, ts.URL, "/api/pops", model.POP{ID: "pop-b"})
	postJSON(t, ts.URL, "/api/links", map[string]interface{}{
		"id": "link-ab", "pop_a": "pop-a", "pop_b": "pop-b", "distance_km": 80.0, "num_slots": 40,
	})
	return ts
}

func linkSlots(t *testing.T, baseURL, linkID string) []model.Slot {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/frequencies/" + linkID)
	if err != nil {
		t.Fatalf("get frequencies: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Slots []model.Slot `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode frequencies: %v", err)
	}
	return body.Slots
}

func testOptions() Options {
	return Options{
		VOpID:          "vop1",
		CommandTimeout: 50 * time.Millisecond,
		QoT: qot.Options{
			OSNRThresholdDB: 18.0, BERThreshold: 1e-3, PersistencySamples: 3,
			Cooldown: time.Second, TxStepDB: 1.0, TxMinDBm: -15.0, TxMaxDBm: 0.0, AdjustMode: "both",
		},
	}
}

func TestCreateConnectionAllocatesPathAndSlots(t *testing.T) {
	ts := newTopology(t)
	defer ts.Close()
	c := New(linkdbclient.New(ts.URL), &fakePublisher{}, testOptions())

	conn, err := c.CreateConnection(context.Background(), CreateConnectionRequest{
		ID: "conn-1", SourcePOP: "pop-a", DestPOP: "pop-b", BandwidthGbps: 100, Modulation: "DP-16QAM",
		Endpoints: []model.EndpointConfig{
			{POPID: "pop-a", NodeID: "r1", PortID: "Ethernet1"},
			{POPID: "pop-b", NodeID: "r2", PortID: "Ethernet1"},
		},
	})
	if err != nil {
		t.Fatalf("create connection: %v", err)
	}
	if conn.Status != model.ConnPlanned {
		t.Fatalf("expected PLANNED, got %s", conn.Status)
	}
	if len(conn.Path) == 0 {
		t.Fatal("expected a computed path")
	}
	if conn.Slots.Count == 0 {
		t.Fatal("expected allocated slots")
	}
	slots := linkSlots(t, ts.URL, "link-ab")
	if got := slots[conn.Slots.StartIndex].Status; got != model.SlotReserved {
		t.Fatalf("expected a PLANNED connection's slots to be RESERVED, got %s", got)
	}
}

func TestSetupPublishesCommandAndAwaitsAcks(t *testing.T) {
	ts := newTopology(t)
	defer ts.Close()
	pub := &fakePublisher{}
	c := New(linkdbclient.New(ts.URL), pub, testOptions())

	conn, err := c.CreateConnection(context.Background(), CreateConnectionRequest{
		ID: "conn-1", SourcePOP: "pop-a", DestPOP: "pop-b", BandwidthGbps: 100, Modulation: "DP-16QAM",
		Endpoints: []model.EndpointConfig{
			{POPID: "pop-a", NodeID: "r1", PortID: "Ethernet1"},
			{POPID: "pop-b", NodeID: "r2", PortID: "Ethernet1"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := c.Setup(context.Background(), conn.ID); err != nil {
		t.Fatalf("setup: %v", err)
	}
	got, _ := c.Get(conn.ID)
	if got.Status != model.ConnSetupPending {
		t.Fatalf("expected SETUP_PENDING, got %s", got.Status)
	}

	env := pub.last(t)
	if env.Action != model.ActionSetupConnection {
		t.Fatalf("expected setupConnection, got %s", env.Action)
	}

	c.handleAck(messages.NewAck(env.CommandID, "r1", model.AckOK, "", nil))
	still, _ := c.Get(conn.ID)
	if still.Status != model.ConnSetupPending {
		t.Fatalf("expected still pending after one of two acks, got %s", still.Status)
	}

	c.handleAck(messages.NewAck(env.CommandID, "r2", model.AckOK, "", nil))
	active, _ := c.Get(conn.ID)
	if active.Status != model.ConnActive {
		t.Fatalf("expected ACTIVE after both acks, got %s", active.Status)
	}
	slots := linkSlots(t, ts.URL, "link-ab")
	if got := slots[active.Slots.StartIndex].Status; got != model.SlotActive {
		t.Fatalf("expected slots promoted to ACTIVE once setup completes, got %s", got)
	}
}

func TestSetupTimesOutToFailed(t *testing.T) {
	ts := newTopology(t)
	defer ts.Close()
	pub := &fakePublisher{}
	opts := testOptions()
	opts.CommandTimeout = 20 * time.Millisecond
	c := New(linkdbclient.New(ts.URL), pub, opts)

	conn, err := c.CreateConnection(context.Background(), CreateConnectionRequest{
		ID: "conn-1", SourcePOP: "pop-a", DestPOP: "pop-b", BandwidthGbps: 100, Modulation: "DP-16QAM",
		Endpoints: []model.EndpointConfig{{POPID: "pop-a", NodeID: "r1", PortID: "Ethernet1"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := c.Setup(context.Background(), conn.ID); err != nil {
		t.Fatalf("setup: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	got, _ := c.Get(conn.ID)
	if got.Status != model.ConnFailed {
		t.Fatalf("expected FAILED after timeout, got %s", got.Status)
	}
	slots := linkSlots(t, ts.URL, "link-ab")
	if s := slots[conn.Slots.StartIndex].Status; s != model.SlotFree {
		t.Fatalf("expected spectrum released after setup timeout, got %s", s)
	}
}

func TestAckNackTransitionsToFailed(t *testing.T) {
	ts := newTopology(t)
	defer ts.Close()
	pub := &fakePublisher{}
	c := New(linkdbclient.New(ts.URL), pub, testOptions())

	conn, err := c.CreateConnection(context.Background(), CreateConnectionRequest{
		ID: "conn-1", SourcePOP: "pop-a", DestPOP: "pop-b", BandwidthGbps: 100, Modulation: "DP-16QAM",
		Endpoints: []model.EndpointConfig{{POPID: "pop-a", NodeID: "r1", PortID: "Ethernet1"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := c.Setup(context.Background(), conn.ID); err != nil {
		t.Fatalf("setup: %v", err)
	}
	env := pub.last(t)
	c.handleAck(messages.NewAck(env.CommandID, "r1", model.AckError, "hardware", map[string]interface{}{"error": "laser fault"}))

	got, _ := c.Get(conn.ID)
	if got.Status != model.ConnFailed {
		t.Fatalf("expected FAILED after a nack, got %s", got.Status)
	}
	slots := linkSlots(t, ts.URL, "link-ab")
	if s := slots[conn.Slots.StartIndex].Status; s != model.SlotFree {
		t.Fatalf("expected spectrum released after a setup nack, got %s", s)
	}
}

func TestTelemetryFeedsQoTMonitor(t *testing.T) {
	ts := newTopology(t)
	defer ts.Close()
	pub := &fakePublisher{}
	c := New(linkdbclient.New(ts.URL), pub, testOptions())

	conn, err := c.CreateConnection(context.Background(), CreateConnectionRequest{
		ID: "conn-1", SourcePOP: "pop-a", DestPOP: "pop-b", BandwidthGbps: 100, Modulation: "DP-16QAM",
		Endpoints: []model.EndpointConfig{{POPID: "pop-a", NodeID: "r1", PortID: "Ethernet1"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := c.Setup(context.Background(), conn.ID); err != nil {
		t.Fatalf("setup: %v", err)
	}
	env := pub.last(t)
	c.handleAck(messages.NewAck(env.CommandID, "r1", model.AckOK, "", nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.qotMon.Run(ctx)

	tm := messages.TelemetryMessage{
		Type: "telemetry", AgentID: "r1", POPID: "pop-a", RouterID: "r1",
		Data: messages.TelemetryData{
			ConnectionID: conn.ID, Interface: "Ethernet1", Timestamp: float64(time.Now().Unix()),
			Fields: messages.TelemetryFields{OSNRdB: 22.0, PreFECBER: 1e-6},
		},
	}
	raw, _ := json.Marshal(tm)
	c.handleMonitoringMessage(raw)
	time.Sleep(30 * time.Millisecond)

	status, err := c.qotMon.GetStatus(conn.ID)
	if err != nil {
		t.Fatalf("get qot status: %v", err)
	}
	if status.Level != qot.LevelNormal {
		t.Fatalf("expected NORMAL level, got %s", status.Level)
	}
}

func TestTeardownReleasesSlotsAndDeletesConnection(t *testing.T) {
	ts := newTopology(t)
	defer ts.Close()
	pub := &fakePublisher{}
	c := New(linkdbclient.New(ts.URL), pub, testOptions())

	conn, err := c.CreateConnection(context.Background(), CreateConnectionRequest{
		ID: "conn-1", SourcePOP: "pop-a", DestPOP: "pop-b", BandwidthGbps: 100, Modulation: "DP-16QAM",
		Endpoints: []model.EndpointConfig{{POPID: "pop-a", NodeID: "r1", PortID: "Ethernet1"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := c.Setup(context.Background(), conn.ID); err != nil {
		t.Fatalf("setup: %v", err)
	}
	env := pub.last(t)
	c.handleAck(messages.NewAck(env.CommandID, "r1", model.AckOK, "", nil))

	if err := c.Teardown(context.Background(), conn.ID); err != nil {
		t.Fatalf("teardown: %v", err)
	}
	if _, err := c.Get(conn.ID); err == nil {
		t.Fatal("expected connection removed after teardown")
	}
	teardownEnv := pub.last(t)
	if teardownEnv.Action != model.ActionTeardownConnection {
		t.Fatalf("expected teardownConnection published, got %s", teardownEnv.Action)
	}
}
