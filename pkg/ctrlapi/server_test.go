package ctrlapi

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
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/ctrl"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdb"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbapi"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbclient"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/qot"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/store"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (f *fakePublisher) Publish(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, value)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func postJSON(t *testing.T, baseURL, path string, v interface{}) *http.Response {
	t.Helper()
	body, _ := json.Marshal(v)
	resp, err := http.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	return resp
}

func newTestServer(t *testing.T) (*httptest.Server, *httptest.Server, *fakePublisher) {
	t.Helper()
	linkdbSvc := linkdb.NewService(store.NewMemoryStore())
	linkdbTS := httptest.NewServer(linkdbapi.New(linkdbSvc, apiserver.DefaultOptions()).Handler())

	postJSON(t, linkdbTS.URL, "/api/pops", model.POP{ID: "pop-a"}).Body.Close()
	postJSON(t, linkdbTS.URL, "/api/pops", model.POP{ID: "pop-b"}).Body.Close()
	postJSON(t, linkdbTS.URL, "/api/links", map[string]interface{}{
		"id": "link-ab", "pop_a": "pop-a", "pop_b": "pop-b", "distance_km": 80.0, "num_slots": 40,
	}).Body.Close()

	pub := &fakePublisher{}
	c := ctrl.New(linkdbclient.New(linkdbTS.URL), pub, ctrl.Options{
		VOpID: "vop1", CommandTimeout: 50 * time.Millisecond,
		QoT: qot.Options{
			OSNRThresholdDB: 18.0, BERThreshold: 1e-3, PersistencySamples: 3,
			Cooldown: time.Second, TxStepDB: 1.0, TxMinDBm: -15.0, TxMaxDBm: 0.0, AdjustMode: "both",
		},
	})
	srv := New(c, apiserver.DefaultOptions())
	return httptest.NewServer(srv.Handler()), linkdbTS, pub
}

func TestHealth(t *testing.T) {
	ts, linkdbTS, _ := newTestServer(t)
	defer ts.Close()
	defer linkdbTS.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCreateGetSetupAndTeardownConnection(t *testing.T) {
	ts, linkdbTS, pub := newTestServer(t)
	defer ts.Close()
	defer linkdbTS.Close()

	createReq := map[string]interface{}{
		"id": "conn-1", "source_pop": "pop-a", "dest_pop": "pop-b",
		"bandwidth_gbps": 100, "modulation": "DP-16QAM",
		"endpoints": []model.EndpointConfig{
			{POPID: "pop-a", NodeID: "r1", PortID: "Ethernet1"},
			{POPID: "pop-b", NodeID: "r2", PortID: "Ethernet1"},
		},
	}
	resp := postJSON(t, ts.URL, "/api/v1/connections", createReq)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var conn model.Connection
	if err := json.NewDecoder(resp.Body).Decode(&conn); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if conn.Status != model.ConnPlanned {
		t.Fatalf("expected PLANNED, got %s", conn.Status)
	}

	getResp, err := http.Get(ts.URL + "/api/v1/connections/conn-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", getResp.StatusCode)
	}

	listResp, _ := http.Get(ts.URL + "/api/v1/connections")
	var conns []model.Connection
	json.NewDecoder(listResp.Body).Decode(&conns)
	listResp.Body.Close()
	if len(conns) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(conns))
	}

	setupResp := postJSON(t, ts.URL, "/api/v1/connections/conn-1/setup", nil)
	setupResp.Body.Close()
	if setupResp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", setupResp.StatusCode)
	}
	if pub.count() == 0 {
		t.Fatal("expected a setup command published")
	}

	time.Sleep(80 * time.Millisecond)

	delReq, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/connections/conn-1", nil)
	delResp, err := http.DefaultClient.Do(delReq)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", delResp.StatusCode)
	}

	missingResp, _ := http.Get(ts.URL + "/api/v1/connections/conn-1")
	missingResp.Body.Close()
	if missingResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after teardown, got %d", missingResp.StatusCode)
	}
}

func TestCreateConnectionRejectsInfeasiblePath(t *testing.T) {
	ts, linkdbTS, _ := newTestServer(t)
	defer ts.Close()
	defer linkdbTS.Close()

	resp := postJSON(t, ts.URL, "/api/v1/connections", map[string]interface{}{
		"id": "conn-1", "source_pop": "pop-a", "dest_pop": "pop-nonexistent",
		"bandwidth_gbps": 100, "modulation": "DP-16QAM",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an infeasible path, got %d", resp.StatusCode)
	}
}

func TestPathAndStatusAndAgentsEndpoints(t *testing.T) {
	ts, linkdbTS, _ := newTestServer(t)
	defer ts.Close()
	defer linkdbTS.Close()

	pathResp, err := http.Get(ts.URL + "/api/v1/topology/path/pop-a/pop-b")
	if err != nil {
		t.Fatalf("get path: %v", err)
	}
	defer pathResp.Body.Close()
	if pathResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", pathResp.StatusCode)
	}

	statusResp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer statusResp.Body.Close()
	if statusResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", statusResp.StatusCode)
	}

	agentsResp, err := http.Get(ts.URL + "/api/v1/agents")
	if err != nil {
		t.Fatalf("get agents: %v", err)
	}
	defer agentsResp.Body.Close()
	if agentsResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", agentsResp.StatusCode)
	}
	var agents []ctrl.AgentHealth
	json.NewDecoder(agentsResp.Body).Decode(&agents)
	if len(agents) != 0 {
		t.Fatalf("expected no agents observed yet, got %d", len(agents))
	}
}
