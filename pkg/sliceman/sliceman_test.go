package sliceman

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/kafkaio"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdb"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbapi"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbclient"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/store"
)

var errBoom = errors.New("broker unreachable")

// fakeTopics is a no-op TopicProvisioner, avoiding a real Kafka broker.
type fakeTopics struct {
	calls [][]kafkaio.TopicSpec
	err   error
}

func (f *fakeTopics) EnsureTopics(ctx context.Context, specs []kafkaio.TopicSpec) error {
	f.calls = append(f.calls, specs)
	return f.err
}

func newLinkDBBackend(t *testing.T) *httptest.Server {
	t.Helper()
	svc := linkdb.NewService(store.NewMemoryStore())
	return httptest.NewServer(linkdbapi.New(svc, apiserver.DefaultOptions()).Handler())
}

func newHarness(t *testing.T, ts *httptest.Server) (*Service, *fakeTopics) {
	t.Helper()
	client := linkdbclient.New(ts.URL)
	vopStore := store.NewMemoryStore().VOps()
	topics := &fakeTopics{}
	svc := New(vopStore, client, topics, Options{Partitions: 3, ReplicationFactor: 1, MonitoringRetentionMs: 1000})
	return svc, topics
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

// setupTopologyFor provisions a pop/router/interface (with a transceiver)
// against the LinkDB test backend so activation's verifyInterfaces step
// can succeed.
func setupTopologyFor(t *testing.T, baseURL, interfaceID string) {
	t.Helper()
	postJSON(t, baseURL, "/api/pops", model.POP{ID: "pop-a"})
	postJSON(t, baseURL, "/api/routers", model.Router{ID: "rtr-1", POPID: "pop-a"})
	postJSON(t, baseURL, "/api/interfaces", model.Interface{
		ID: interfaceID, RouterID: "rtr-1", POPID: "pop-a",
		Transceiver: &model.Transceiver{Vendor: "acme", PartNumber: "abc"},
	})
}

func TestActivateRejectsInvalidID(t *testing.T) {
	ts := newLinkDBBackend(t)
	defer ts.Close()
	svc, _ := newHarness(t, ts)

	_, err := svc.Activate(context.Background(), ActivateRequest{ID: "bad id!"})
	if err == nil {
		t.Fatal("expected error for invalid vop id")
	}
}

func TestActivateRejectsMissingInterfaces(t *testing.T) {
	ts := newLinkDBBackend(t)
	defer ts.Close()
	svc, _ := newHarness(t, ts)

	_, err := svc.Activate(context.Background(), ActivateRequest{ID: "vop1"})
	if err == nil {
		t.Fatal("expected error for vop with no interfaces")
	}
}

func TestActivateFullSagaSucceeds(t *testing.T) {
	ts := newLinkDBBackend(t)
	defer ts.Close()
	svc, topics := newHarness(t, ts)
	setupTopologyFor(t, ts.URL, "Ethernet1")

	req := ActivateRequest{
		ID:     "vop1",
		Tenant: "acme",
		Interfaces: []model.InterfaceRef{
			{POPID: "pop-a", RouterID: "rtr-1", InterfaceID: "Ethernet1"},
		},
	}
	vop, err := svc.Activate(context.Background(), req)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if vop.Status != model.VOpActive {
		t.Fatalf("expected ACTIVE, got %s", vop.Status)
	}
	if len(topics.calls) != 1 || len(topics.calls[0]) != 3 {
		t.Fatalf("expected one EnsureTopics call with 3 specs, got %v", topics.calls)
	}
}

func TestActivateUnwindsOnTopicFailure(t *testing.T) {
	ts := newLinkDBBackend(t)
	defer ts.Close()
	setupTopologyFor(t, ts.URL, "Ethernet1")

	client := linkdbclient.New(ts.URL)
	vopStore := store.NewMemoryStore().VOps()
	topics := &fakeTopics{err: errBoom}
	svc := New(vopStore, client, topics, Options{Partitions: 3, ReplicationFactor: 1})

	req := ActivateRequest{
		ID:     "vop1",
		Tenant: "acme",
		Interfaces: []model.InterfaceRef{
			{POPID: "pop-a", RouterID: "rtr-1", InterfaceID: "Ethernet1"},
		},
	}
	_, err := svc.Activate(context.Background(), req)
	if err == nil {
		t.Fatal("expected error when topic provisioning fails")
	}

	// The interface must have been released by the unwind.
	if err := client.ReserveInterface(context.Background(), "Ethernet1", "someone-else"); err != nil {
		t.Fatalf("expected interface to be free after saga unwind, reserve failed: %v", err)
	}
}

func TestActivateRejectsAlreadyReservedInterface(t *testing.T) {
	ts := newLinkDBBackend(t)
	defer ts.Close()
	svc, _ := newHarness(t, ts)
	setupTopologyFor(t, ts.URL, "Ethernet1")

	client := linkdbclient.New(ts.URL)
	if err := client.ReserveInterface(context.Background(), "Ethernet1", "other-vop"); err != nil {
		t.Fatalf("pre-reserve: %v", err)
	}

	req := ActivateRequest{
		ID:     "vop1",
		Tenant: "acme",
		Interfaces: []model.InterfaceRef{
			{POPID: "pop-a", RouterID: "rtr-1", InterfaceID: "Ethernet1"},
		},
	}
	_, err := svc.Activate(context.Background(), req)
	if err == nil {
		t.Fatal("expected InterfaceUnavailable for an already-reserved interface")
	}
}

func TestDeactivateReleasesInterfacesAndDeletes(t *testing.T) {
	ts := newLinkDBBackend(t)
	defer ts.Close()
	svc, _ := newHarness(t, ts)
	setupTopologyFor(t, ts.URL, "Ethernet1")

	req := ActivateRequest{
		ID:     "vop1",
		Tenant: "acme",
		Interfaces: []model.InterfaceRef{
			{POPID: "pop-a", RouterID: "rtr-1", InterfaceID: "Ethernet1"},
		},
	}
	if _, err := svc.Activate(context.Background(), req); err != nil {
		t.Fatalf("activate: %v", err)
	}

	if err := svc.Deactivate(context.Background(), "vop1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := svc.Get("vop1"); err == nil {
		t.Fatal("expected vop to be deleted after deactivate")
	}

	client := linkdbclient.New(ts.URL)
	if err := client.ReserveInterface(context.Background(), "Ethernet1", "someone-else"); err != nil {
		t.Fatalf("expected interface free after deactivate, reserve failed: %v", err)
	}
}
