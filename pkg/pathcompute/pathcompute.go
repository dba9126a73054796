// Package pathcompute implements shortest-path routing over the physical
// optical graph and the bandwidth/modulation to spectrum-slot capacity
// table. It is shared by LinkDB's path helper and the Controller's path
// computation (spec §4.1, §4.3) rather than duplicated.
package pathcompute

import (
	"container/heap"
	"fmt"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

// SlotWidthMHz is the fixed spectrum grid granularity (12.5 GHz channels,
// as in the flex-grid ITU-T G.694.1 plan the original controller assumes).
const SlotWidthMHz = 12500

// spectralEfficiency maps a modulation format to bits/s/Hz. DP-16QAM is the
// default when a connection does not name a modulation (matches 400G ZR).
var spectralEfficiency = map[string]float64{
	"DP-QPSK":  2.0,
	"DP-8QAM":  3.0,
	"DP-16QAM": 4.0,
}

// RequiredSlots returns the number of SlotWidthMHz-wide slots needed to
// carry bandwidthGbps at the given modulation, rounding up.
func RequiredSlots(bandwidthGbps int, modulation string) int {
	eff, ok := spectralEfficiency[modulation]
	if !ok {
		eff = spectralEfficiency["DP-16QAM"]
	}
	requiredMHz := float64(bandwidthGbps) * 1000 / eff
	slotWidthGHzEquivalent := float64(SlotWidthMHz)
	slots := int((requiredMHz + slotWidthGHzEquivalent - 1) / slotWidthGHzEquivalent)
	if slots < 1 {
		slots = 1
	}
	return slots
}

// Edge is one traversable link in the physical graph.
type Edge struct {
	LinkID     string
	POPA, POPB string
	WeightKm   float64
}

// Graph is an adjacency-list view of the physical topology, keyed by POP ID.
type Graph struct {
	adj map[string][]neighbor
}

type neighbor struct {
	pop    string
	linkID string
	weight float64
}

// BuildGraph constructs a Graph from a flat edge list. Each edge is
// traversable in both directions.
func BuildGraph(links []model.Link) *Graph {
	g := &Graph{adj: make(map[string][]neighbor)}
	for _, l := range links {
		g.adj[l.POPA] = append(g.adj[l.POPA], neighbor{pop: l.POPB, linkID: l.ID, weight: l.DistanceKm})
		g.adj[l.POPB] = append(g.adj[l.POPB], neighbor{pop: l.POPA, linkID: l.ID, weight: l.DistanceKm})
	}
	return g
}

// pqItem is one entry in the Dijkstra priority queue.
type pqItem struct {
	pop  string
	dist float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)         { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// ShortestPath runs Dijkstra from source to destination, weighted by link
// distance, and returns the ordered list of hops. Returns an error if
// either POP is absent from the graph or no path exists.
func (g *Graph) ShortestPath(source, destination string) ([]model.PathHop, error) {
	if _, ok := g.adj[source]; !ok {
		return nil, fmt.Errorf("source pop %q not in topology", source)
	}
	if _, ok := g.adj[destination]; !ok {
		return nil, fmt.Errorf("destination pop %q not in topology", destination)
	}

	dist := map[string]float64{source: 0}
	prevLink := map[string]string{}
	prevPOP := map[string]string{}
	visited := map[string]bool{}

	pq := &priorityQueue{{pop: source, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if cur.pop == destination {
			break
		}
		if visited[cur.pop] {
			continue
		}
		visited[cur.pop] = true

		for _, n := range g.adj[cur.pop] {
			newDist := cur.dist + n.weight
			if existing, ok := dist[n.pop]; !ok || newDist < existing {
				dist[n.pop] = newDist
				prevPOP[n.pop] = cur.pop
				prevLink[n.pop] = n.linkID
				heap.Push(pq, pqItem{pop: n.pop, dist: newDist})
			}
		}
	}

	if _, ok := dist[destination]; !ok {
		return nil, fmt.Errorf("no path from %q to %q", source, destination)
	}

	var hops []model.PathHop
	cur := destination
	for cur != source {
		linkID := prevLink[cur]
		prev := prevPOP[cur]
		hops = append([]model.PathHop{{LinkID: linkID, POPA: prev, POPB: cur}}, hops...)
		cur = prev
	}
	return hops, nil
}

// KShortestPaths returns up to k loopless shortest paths from source to
// destination ordered by increasing total distance, using Yen's algorithm
// layered on top of ShortestPath. Used when the first-fit spectrum search
// on the primary path is infeasible and the caller wants alternates to try.
func (g *Graph) KShortestPaths(source, destination string, k int) ([][]model.PathHop, error) {
	first, err := g.ShortestPath(source, destination)
	if err != nil {
		return nil, err
	}
	paths := [][]model.PathHop{first}
	candidates := make([][]model.PathHop, 0)

	for len(paths) < k {
		lastPath := paths[len(paths)-1]
		for i := range lastPath {
			spurPOP := lastPath[i].POPA
			rootPath := lastPath[:i]

			removedLinks := map[string]bool{}
			for _, p := range paths {
				if pathHasPrefix(p, rootPath) && i < len(p) {
					removedLinks[p[i].LinkID] = true
				}
			}

			pruned := g.withoutLinks(removedLinks)
			spurPath, err := pruned.ShortestPath(spurPOP, destination)
			if err != nil {
				continue
			}
			total := append(append([]model.PathHop{}, rootPath...), spurPath...)
			if !containsPath(candidates, total) && !containsPath(paths, total) {
				candidates = append(candidates, total)
			}
		}
		if len(candidates) == 0 {
			break
		}
		best := candidates[0]
		bestIdx := 0
		for i, c := range candidates {
			if pathLength(g, c) < pathLength(g, best) {
				best = c
				bestIdx = i
			}
		}
		candidates = append(candidates[:bestIdx], candidates[bestIdx+1:]...)
		paths = append(paths, best)
	}
	return paths, nil
}

func (g *Graph) withoutLinks(removed map[string]bool) *Graph {
	pruned := &Graph{adj: make(map[string][]neighbor, len(g.adj))}
	for pop, neighbors := range g.adj {
		for _, n := range neighbors {
			if !removed[n.linkID] {
				pruned.adj[pop] = append(pruned.adj[pop], n)
			}
		}
	}
	return pruned
}

func pathHasPrefix(path, prefix []model.PathHop) bool {
	if len(path) < len(prefix) {
		return false
	}
	for i := range prefix {
		if path[i].LinkID != prefix[i].LinkID {
			return false
		}
	}
	return true
}

func containsPath(paths [][]model.PathHop, target []model.PathHop) bool {
	for _, p := range paths {
		if len(p) != len(target) {
			continue
		}
		match := true
		for i := range p {
			if p[i].LinkID != target[i].LinkID {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func pathLength(g *Graph, path []model.PathHop) float64 {
	linkWeight := make(map[string]float64)
	for _, neighbors := range g.adj {
		for _, n := range neighbors {
			linkWeight[n.linkID] = n.weight
		}
	}
	var total float64
	for _, hop := range path {
		total += linkWeight[hop.LinkID]
	}
	return total
}

// EstimatePathOSNR gives a coarse optical-signal-to-noise-ratio estimate
// from total path length, used only as a pre-setup feasibility hint before
// real telemetry is available (original_source path_computer.py's
// simplified model: OSNR scales inversely with distance, anchored at 25dB
// for 100km).
func EstimatePathOSNR(links []model.Link, hops []model.PathHop) float64 {
	lengthByID := make(map[string]float64, len(links))
	for _, l := range links {
		lengthByID[l.ID] = l.DistanceKm
	}
	var total float64
	for _, h := range hops {
		total += lengthByID[h.LinkID]
	}
	if total <= 0 {
		return 0
	}
	return 25 * (100 / total)
}
