// Package linkdbclient is the HTTP client Slice Manager and Controller use
// to talk to LinkDB: topology reads, interface reserve/release, and
// connection spectrum allocate/release, generalized from the teacher's
// single-purpose node-registration client into a typed RPC client for
// LinkDB's whole surface.
package linkdbclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/retry"
)

// Client talks to one LinkDB instance over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client targeting baseURL (e.g. "http://linkdb:8081").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return retry.Do(ctx, func() error {
		var reader io.Reader
		if body != nil {
			b, err := json.Marshal(body)
			if err != nil {
				return retry.Permanent(fmt.Errorf("marshal request: %w", err))
			}
			reader = bytes.NewReader(b)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return retry.Permanent(fmt.Errorf("build request: %w", err))
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err) // transient: network error, retry
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("%s %s: server error %d: %s", method, path, resp.StatusCode, string(b))
		}
		if resp.StatusCode >= 400 {
			b, _ := io.ReadAll(resp.Body)
			return retry.Permanent(fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(b)))
		}
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Permanent(fmt.Errorf("%s %s: decode response: %w", method, path, err))
			}
		}
		return nil
	})
}

// Topology mirrors linkdb.Topology for clients that only have this
// package's import, not pkg/linkdb itself.
type Topology struct {
	POPs       []model.POP       `json:"POPs"`
	Routers    []model.Router    `json:"Routers"`
	Links      []model.Link      `json:"Links"`
	Interfaces []model.Interface `json:"Interfaces"`
}

// GetTopology fetches the full topology snapshot.
func (c *Client) GetTopology(ctx context.Context) (*Topology, error) {
	var topo Topology
	if err := c.do(ctx, http.MethodGet, "/api/topology", nil, &topo); err != nil {
		return nil, err
	}
	return &topo, nil
}

// Path fetches the k-shortest paths between two POPs.
func (c *Client) Path(ctx context.Context, src, dst string, k int) ([][]model.PathHop, error) {
	var paths [][]model.PathHop
	url := fmt.Sprintf("/api/topology/path/%s/%s?k=%d", src, dst, k)
	if err := c.do(ctx, http.MethodGet, url, nil, &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// ReserveInterface grants vopID exclusive use of interface id.
func (c *Client) ReserveInterface(ctx context.Context, id, vopID string) error {
	return c.do(ctx, http.MethodPost, "/api/interfaces/"+id+"/reserve", map[string]string{"vop_id": vopID}, nil)
}

// ReleaseInterface relinquishes vopID's ownership of interface id.
func (c *Client) ReleaseInterface(ctx context.Context, id, vopID string) error {
	return c.do(ctx, http.MethodPost, "/api/interfaces/"+id+"/release", map[string]string{"vop_id": vopID}, nil)
}

// AllocateResult is the response to Allocate.
type AllocateResult struct {
	StartIndex int `json:"start_index"`
	Count      int `json:"count"`
}

// Allocate requests a contiguous spectrum window for connectionID along
// path.
func (c *Client) Allocate(ctx context.Context, connectionID string, path []model.PathHop, slotsRequired int) (model.SlotRange, error) {
	req := map[string]interface{}{
		"connection_id":  connectionID,
		"path":           path,
		"slots_required": slotsRequired,
	}
	var window model.SlotRange
	if err := c.do(ctx, http.MethodPost, "/api/connections/allocate", req, &window); err != nil {
		return model.SlotRange{}, err
	}
	return window, nil
}

// Activate promotes a connection's RESERVED slot window to ACTIVE on every
// link in linkIDs, once every agent has acked setup.
func (c *Client) Activate(ctx context.Context, connectionID string, linkIDs []string, window model.SlotRange) error {
	req := map[string]interface{}{"link_ids": linkIDs, "window": window}
	return c.do(ctx, http.MethodPost, "/api/connections/"+connectionID+"/activate", req, nil)
}

// Release returns a connection's slot window on every link in linkIDs.
func (c *Client) Release(ctx context.Context, connectionID string, linkIDs []string, window model.SlotRange) error {
	req := map[string]interface{}{"link_ids": linkIDs, "window": window}
	return c.do(ctx, http.MethodDelete, "/api/connections/"+connectionID, req, nil)
}

// Frequencies fetches a link's raw slot list and utilization fraction.
func (c *Client) Frequencies(ctx context.Context, linkID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/api/frequencies/"+linkID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
