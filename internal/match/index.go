package match

import (
	"github.com/coder/hnsw"

	"github.com/faceguard/faceguard/internal/identity"
)

const (
	// indexMaxNeighbors is the HNSW M parameter.
	indexMaxNeighbors = 16
	// indexCandidates is how many nearest poses the index returns per probe.
	// Each pose maps back to its identity, so the exact per-identity minimum
	// is still computed over the shortlist.
	indexCandidates = 8
)

// poseIndex is an approximate nearest-neighbor graph over every reference
// pose in the snapshot. Node keys are running pose numbers; poseOwner maps
// them back to the identity index the pose belongs to.
type poseIndex struct {
	graph     *hnsw.Graph[int]
	poseOwner map[int]int
}

func buildPoseIndex(ids []identity.Identity) *poseIndex {
	g := hnsw.NewGraph[int]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	idx := &poseIndex{graph: g, poseOwner: make(map[int]int)}

	node := 0
	for i := range ids {
		for _, ref := range ids[i].Embeddings {
			vec := make([]float32, len(ref))
			for j, v := range ref {
				vec[j] = float32(v)
			}
			g.Add(hnsw.MakeNode(node, vec))
			idx.poseOwner[node] = i
			node++
		}
	}
	return idx
}

// candidates returns the identity indexes owning the poses nearest to the
// probe, deduplicated.
func (idx *poseIndex) candidates(probe identity.Embedding) []int {
	vec := make([]float32, len(probe))
	for i, v := range probe {
		vec[i] = float32(v)
	}

	neighbors := idx.graph.Search(vec, indexCandidates)

	seen := make(map[int]struct{}, len(neighbors))
	out := make([]int, 0, len(neighbors))
	for _, n := range neighbors {
		owner := idx.poseOwner[n.Key]
		if _, ok := seen[owner]; ok {
			continue
		}
		seen[owner] = struct{}{}
		out = append(out, owner)
	}
	return out
}
