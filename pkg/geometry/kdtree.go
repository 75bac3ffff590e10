package geometry

import (
	"sort"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

// Leaf threshold: if we have this many or fewer surfaces, store them in a leaf node
const leafThreshold = 8

// maxKDDepth stops subdivision for pathological inputs (e.g. many coincident centroids)
const maxKDDepth = 32

// boxPadding keeps rounding in the slab test from culling geometry lying on a box face
const boxPadding = 1e-7

// KDNode is a node of the KD-tree. Surfaces is non-nil only at leaves.
type KDNode struct {
	Box      core.AABB
	Left     *KDNode
	Right    *KDNode
	Surfaces []Surface
}

// IsLeaf reports whether the node stores surfaces directly
func (n *KDNode) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// KDTree partitions surfaces by cycling split axes for fast nearest-hit queries.
// It is immutable after construction and safe for concurrent queries.
type KDTree struct {
	Root *KDNode
}

// BuildKDTree constructs a KD-tree from a slice of surfaces
func BuildKDTree(surfaces []Surface) *KDTree {
	if len(surfaces) == 0 {
		return &KDTree{Root: nil}
	}

	// Copy so that sorting during the build never reorders the caller's slice
	surfacesCopy := make([]Surface, len(surfaces))
	copy(surfacesCopy, surfaces)

	return &KDTree{Root: buildKDNode(surfacesCopy, 0)}
}

// buildKDNode recursively builds a node whose box tightly bounds its surfaces
func buildKDNode(surfaces []Surface, depth int) *KDNode {
	box := surfaces[0].BoundingBox()
	for _, surface := range surfaces[1:] {
		box = box.Union(surface.BoundingBox())
	}
	box = box.Expand(boxPadding)

	if len(surfaces) <= leafThreshold || depth >= maxKDDepth {
		return &KDNode{Box: box, Surfaces: surfaces}
	}

	// Cycle x, y, z; skip axes on which every centroid coincides
	for shift := 0; shift < 3; shift++ {
		axis := (depth + shift) % 3
		if mid := medianSplit(surfaces, axis); mid > 0 {
			return &KDNode{
				Box:   box,
				Left:  buildKDNode(surfaces[:mid], depth+shift+1),
				Right: buildKDNode(surfaces[mid:], depth+shift+1),
			}
		}
	}
	return &KDNode{Box: box, Surfaces: surfaces}
}

// medianSplit sorts surfaces along axis and returns the index of the first surface
// whose centroid is on the right of the median plane, or 0 if no split separates them
func medianSplit(surfaces []Surface, axis int) int {
	sortByCentroid(surfaces, axis)
	split := surfaces[len(surfaces)/2].Centroid().Axis(axis)

	mid := sort.Search(len(surfaces), func(i int) bool {
		return surfaces[i].Centroid().Axis(axis) >= split
	})
	if mid == 0 {
		// The median is also the minimum; put everything on it to the left
		mid = sort.Search(len(surfaces), func(i int) bool {
			return surfaces[i].Centroid().Axis(axis) > split
		})
	}
	if mid == len(surfaces) {
		return 0
	}
	return mid
}

// sortByCentroid sorts surfaces by their centroid along the specified axis
func sortByCentroid(surfaces []Surface, axis int) {
	sort.Slice(surfaces, func(i, j int) bool {
		return surfaces[i].Centroid().Axis(axis) < surfaces[j].Centroid().Axis(axis)
	})
}

// Nearest returns the closest surface hit by the ray, or a miss
func (tree *KDTree) Nearest(ray core.Ray) Hit {
	if tree.Root == nil {
		return Miss()
	}
	return queryNearest(tree.Root, ray, Miss())
}

// queryNearest searches node for a hit closer than best
func queryNearest(node *KDNode, ray core.Ray, best Hit) Hit {
	if !node.Box.Hit(ray, 0, best.Distance) {
		return best
	}

	if node.IsLeaf() {
		if hit := nearestOf(node.Surfaces, ray); hit.closer(best) {
			return hit
		}
		return best
	}

	first, second := node.Left, node.Right
	if first == nil || (second != nil && nearerChild(second, first, ray)) {
		first, second = second, first
	}

	if first != nil {
		if hit := queryNearest(first, ray, best); hit.closer(best) {
			best = hit
		}
	}
	if second != nil {
		if hit := queryNearest(second, ray, best); hit.closer(best) {
			best = hit
		}
	}
	return best
}

// nearerChild reports whether a's box center lies closer along the ray than b's
func nearerChild(a, b *KDNode, ray core.Ray) bool {
	da := a.Box.Center().Subtract(ray.Origin).Dot(ray.Direction)
	db := b.Box.Center().Subtract(ray.Origin).Dot(ray.Direction)
	return da < db
}

// Stats returns statistics about the tree structure
func (tree *KDTree) Stats() KDStats {
	stats := KDStats{}
	if tree.Root == nil {
		return stats
	}

	tree.collectStats(tree.Root, 0, &stats)
	if stats.LeafNodes > 0 {
		stats.AvgLeafSize = float64(stats.TotalSurfaces) / float64(stats.LeafNodes)
	}
	return stats
}

// KDStats contains statistics about the KD-tree structure
type KDStats struct {
	TotalNodes    int
	LeafNodes     int
	MaxDepth      int
	TotalSurfaces int // counted per leaf
	AvgLeafSize   float64
}

// collectStats recursively collects statistics about the tree
func (tree *KDTree) collectStats(node *KDNode, depth int, stats *KDStats) {
	stats.TotalNodes++
	stats.MaxDepth = max(stats.MaxDepth, depth)

	if node.IsLeaf() {
		stats.LeafNodes++
		stats.TotalSurfaces += len(node.Surfaces)
		return
	}
	if node.Left != nil {
		tree.collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		tree.collectStats(node.Right, depth+1, stats)
	}
}
