package slicemanapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/kafkaio"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdb"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbapi"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbclient"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/sliceman"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/store"
)

type fakeTopics struct{}

func (fakeTopics) EnsureTopics(ctx context.Context, specs []kafkaio.TopicSpec) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *httptest.Server) {
	t.Helper()
	linkdbSvc := linkdb.NewService(store.NewMemoryStore())
	linkdbTS := httptest.NewServer(linkdbapi.New(linkdbSvc, apiserver.DefaultOptions()).Handler())

	client := linkdbclient.New(linkdbTS.URL)
	vopStore := store.NewMemoryStore().VOps()
	svc := sliceman.New(vopStore, client, fakeTopics{}, sliceman.Options{Partitions: 3, ReplicationFactor: 1})
	srv := New(svc, apiserver.DefaultOptions())
	return httptest.NewServer(srv.Handler()), linkdbTS
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

func TestHealth(t *testing.T) {
	ts, linkdbTS := newTestServer(t)
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

func TestActivateRejectsMissingInterfaces(t *testing.T) {
	ts, linkdbTS := newTestServer(t)
	defer ts.Close()
	defer linkdbTS.Close()

	resp := postJSON(t, ts.URL, "/api/v1/vops", map[string]string{"id": "vop1", "tenant": "acme"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError && resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected an error status for a vop with no interfaces, got %d", resp.StatusCode)
	}
}

func TestActivateListGetDeactivate(t *testing.T) {
	ts, linkdbTS := newTestServer(t)
	defer ts.Close()
	defer linkdbTS.Close()

	postJSON(t, linkdbTS.URL, "/api/pops", model.POP{ID: "pop-a"}).Body.Close()
	postJSON(t, linkdbTS.URL, "/api/routers", model.Router{ID: "rtr-1", POPID: "pop-a"}).Body.Close()
	postJSON(t, linkdbTS.URL, "/api/interfaces", model.Interface{
		ID: "Ethernet1", RouterID: "rtr-1", POPID: "pop-a",
		Transceiver: &model.Transceiver{Vendor: "acme", PartNumber: "abc"},
	}).Body.Close()

	activateReq := map[string]interface{}{
		"id":     "vop1",
		"tenant": "acme",
		"interfaces": []model.InterfaceRef{
			{POPID: "pop-a", RouterID: "rtr-1", InterfaceID: "Ethernet1"},
		},
	}
	resp := postJSON(t, ts.URL, "/api/v1/vops", activateReq)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp2, _ := http.Get(ts.URL + "/api/v1/vops")
	var vops []model.VOp
	json.NewDecoder(resp2.Body).Decode(&vops)
	resp2.Body.Close()
	if len(vops) != 1 {
		t.Fatalf("expected 1 vop, got %d", len(vops))
	}

	resp3, _ := http.Get(ts.URL + "/api/v1/vops/vop1")
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp3.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/vops/vop1", nil)
	resp4, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp4.Body.Close()
	if resp4.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp4.StatusCode)
	}

	resp5, _ := http.Get(ts.URL + "/api/v1/vops/vop1")
	resp5.Body.Close()
	if resp5.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after deactivate, got %d", resp5.StatusCode)
	}
}
