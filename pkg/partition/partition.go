// Package partition maintains an assignment of graph nodes to communities
// together with the per-community aggregates modularity needs.
//
// Communities live in an arena of integer slots. Emptied slots go to a free
// list and the lowest free id is handed out first, which keeps ids dense and
// lets a capacity bound the number of live communities.
package partition

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/dd0wney/cluso-combo/pkg/graph"
)

const (
	// NoCommunity asks Move for a freshly allocated community.
	NoCommunity = -1
	// Unlimited disables the community capacity.
	Unlimited = -1
)

var (
	// ErrCapacity is returned when an operation needs a community slot and
	// the capacity is exhausted.
	ErrCapacity = errors.New("community capacity exhausted")
	// ErrInconsistent reports aggregates that disagree with the assignment.
	ErrInconsistent = errors.New("partition aggregates inconsistent")
	// ErrLabels reports an unusable label vector.
	ErrLabels = errors.New("invalid labels")
)

type slot struct {
	internal float64 // Σ A(a,b) over ordered pairs inside the community
	outSum   float64
	inSum    float64
	size     int
}

// State is a mutable partition of a graph. It is not safe for concurrent
// mutation.
type State struct {
	g        *graph.Graph
	of       []int
	slots    []slot
	free     freeList
	live     int
	capacity int
}

// New returns a partition with every node in community 0.
func New(g *graph.Graph, capacity int) *State {
	labels := make([]int, g.NodeCount())
	s, _ := FromLabels(g, labels, capacity)
	return s
}

// NewSingletons returns a partition with node u in community u. It fails
// when the capacity is smaller than the node count.
func NewSingletons(g *graph.Graph, capacity int) (*State, error) {
	labels := make([]int, g.NodeCount())
	for u := range labels {
		labels[u] = u
	}
	return FromLabels(g, labels, capacity)
}

// FromLabels builds a partition from arbitrary non-negative labels. Labels
// are used as slot ids directly; unused ids below the maximum label become
// free slots.
func FromLabels(g *graph.Graph, labels []int, capacity int) (*State, error) {
	if len(labels) != g.NodeCount() {
		return nil, fmt.Errorf("%w: %d labels for %d nodes", ErrLabels, len(labels), g.NodeCount())
	}

	maxLabel := -1
	for u, c := range labels {
		if c < 0 {
			return nil, fmt.Errorf("%w: node %d has negative label %d", ErrLabels, u, c)
		}
		if c > maxLabel {
			maxLabel = c
		}
	}

	s := &State{
		g:        g,
		of:       append([]int(nil), labels...),
		slots:    make([]slot, maxLabel+1),
		capacity: capacity,
	}
	s.Recompute()

	if capacity != Unlimited && s.live > capacity {
		return nil, fmt.Errorf("%w: %d communities exceed capacity %d", ErrCapacity, s.live, capacity)
	}
	return s, nil
}

// Recompute rebuilds every aggregate and the free list from the assignment.
func (s *State) Recompute() {
	for c := range s.slots {
		s.slots[c] = slot{}
	}
	for u, c := range s.of {
		sl := &s.slots[c]
		sl.size++
		sl.outSum += s.g.OutWeight(u)
		sl.inSum += s.g.InWeight(u)
		sl.internal += s.g.SelfLoop(u)
		to, w := s.g.Out(u)
		for i, v := range to {
			if s.of[v] == c {
				sl.internal += w[i]
			}
		}
	}

	s.free = s.free[:0]
	s.live = 0
	for c := range s.slots {
		if s.slots[c].size > 0 {
			s.live++
		} else {
			s.free = append(s.free, c)
		}
	}
	heap.Init(&s.free)
}

// Graph returns the graph being partitioned.
func (s *State) Graph() *graph.Graph { return s.g }

// CommunityOf returns the community of node u.
func (s *State) CommunityOf(u int) int { return s.of[u] }

// Slots returns the arena length; every community id is below it.
func (s *State) Slots() int { return len(s.slots) }

// Alive reports whether community c currently holds nodes.
func (s *State) Alive(c int) bool { return c >= 0 && c < len(s.slots) && s.slots[c].size > 0 }

// Size returns the number of nodes in c.
func (s *State) Size(c int) int { return s.slots[c].size }

// Internal returns Σ A(a,b) over ordered pairs with both ends in c.
func (s *State) Internal(c int) float64 { return s.slots[c].internal }

// OutSum returns Σ out-weight over the members of c.
func (s *State) OutSum(c int) float64 { return s.slots[c].outSum }

// InSum returns Σ in-weight over the members of c.
func (s *State) InSum(c int) float64 { return s.slots[c].inSum }

// Live returns the number of non-empty communities.
func (s *State) Live() int { return s.live }

// Capacity returns the community bound, or Unlimited.
func (s *State) Capacity() int { return s.capacity }

// CanGrow reports whether a new community may be allocated.
func (s *State) CanGrow() bool {
	return s.capacity == Unlimited || s.live < s.capacity
}

// NextID returns the id the next allocation would use, or NoCommunity when
// the capacity is exhausted.
func (s *State) NextID() int {
	if !s.CanGrow() {
		return NoCommunity
	}
	if len(s.free) > 0 {
		return s.free[0]
	}
	return len(s.slots)
}

func (s *State) allocate() int {
	if len(s.free) > 0 {
		return heap.Pop(&s.free).(int)
	}
	s.slots = append(s.slots, slot{})
	return len(s.slots) - 1
}

func (s *State) release(c int) {
	s.slots[c] = slot{}
	heap.Push(&s.free, c)
	s.live--
}

// Connection returns Σ_{v in c, v != u} A(u,v) + A(v,u).
func (s *State) Connection(u, c int) float64 {
	var conn float64
	to, w := s.g.Out(u)
	for i, v := range to {
		if s.of[v] == c {
			conn += w[i]
		}
	}
	from, w := s.g.In(u)
	for i, v := range from {
		if s.of[v] == c {
			conn += w[i]
		}
	}
	return conn
}

// Move reassigns u to target, or to a new community when target is
// NoCommunity, and returns the destination id. All aggregates are updated
// as part of the move.
func (s *State) Move(u, target int) (int, error) {
	old := s.of[u]
	if target == old {
		return old, nil
	}
	if target == NoCommunity {
		if !s.CanGrow() {
			return NoCommunity, ErrCapacity
		}
		target = s.allocate()
		s.live++
	} else if !s.Alive(target) {
		return NoCommunity, fmt.Errorf("move node %d: community %d is not alive", u, target)
	}

	connOld := s.Connection(u, old)
	connNew := s.Connection(u, target)
	self := s.g.SelfLoop(u)
	out, in := s.g.OutWeight(u), s.g.InWeight(u)

	src := &s.slots[old]
	src.internal -= connOld + self
	src.outSum -= out
	src.inSum -= in
	src.size--

	dst := &s.slots[target]
	dst.internal += connNew + self
	dst.outSum += out
	dst.inSum += in
	dst.size++

	s.of[u] = target
	if src.size == 0 {
		s.release(old)
	}
	return target, nil
}

// Between returns Σ A(a,b) + A(b,a) over a in c1, b in c2.
func (s *State) Between(c1, c2 int) float64 {
	var between float64
	for u, c := range s.of {
		if c != c1 {
			continue
		}
		to, w := s.g.Out(u)
		for i, v := range to {
			if s.of[v] == c2 {
				between += w[i]
			}
		}
		from, w := s.g.In(u)
		for i, v := range from {
			if s.of[v] == c2 {
				between += w[i]
			}
		}
	}
	return between
}

// Merge moves every member of drop into keep.
func (s *State) Merge(keep, drop int) error {
	if keep == drop {
		return nil
	}
	if !s.Alive(keep) || !s.Alive(drop) {
		return fmt.Errorf("merge %d into %d: community not alive", drop, keep)
	}

	between := s.Between(drop, keep)
	for u, c := range s.of {
		if c == drop {
			s.of[u] = keep
		}
	}

	k, d := &s.slots[keep], &s.slots[drop]
	k.internal += d.internal + between
	k.outSum += d.outSum
	k.inSum += d.inSum
	k.size += d.size
	s.release(drop)
	return nil
}

// Split moves nodes (all members of one community, not all of it) into a
// new community and returns its id.
func (s *State) Split(nodes []int) (int, error) {
	if len(nodes) == 0 {
		return NoCommunity, fmt.Errorf("split: no nodes given")
	}
	c := s.of[nodes[0]]
	if len(nodes) >= s.slots[c].size {
		return NoCommunity, fmt.Errorf("split community %d: both sides must be non-empty", c)
	}
	for _, u := range nodes {
		if s.of[u] != c {
			return NoCommunity, fmt.Errorf("split community %d: node %d belongs to %d", c, u, s.of[u])
		}
	}

	target, err := s.Move(nodes[0], NoCommunity)
	if err != nil {
		return NoCommunity, err
	}
	for _, u := range nodes[1:] {
		if _, err := s.Move(u, target); err != nil {
			return NoCommunity, err
		}
	}
	return target, nil
}

// Members returns the nodes of c in increasing order.
func (s *State) Members(c int) []int {
	members := make([]int, 0, s.slots[c].size)
	for u, cu := range s.of {
		if cu == c {
			members = append(members, u)
		}
	}
	return members
}

// Groups returns the members of every slot, nil for empty slots.
func (s *State) Groups() [][]int {
	groups := make([][]int, len(s.slots))
	for c := range s.slots {
		if s.slots[c].size > 0 {
			groups[c] = make([]int, 0, s.slots[c].size)
		}
	}
	for u, c := range s.of {
		groups[c] = append(groups[c], u)
	}
	return groups
}

// Labels returns a dense relabeling: communities are numbered from 0 in the
// order their first member appears.
func (s *State) Labels() []int {
	remap := make([]int, len(s.slots))
	for c := range remap {
		remap[c] = -1
	}
	labels := make([]int, len(s.of))
	next := 0
	for u, c := range s.of {
		if remap[c] < 0 {
			remap[c] = next
			next++
		}
		labels[u] = remap[c]
	}
	return labels
}

// Assignment returns a copy of the raw slot assignment.
func (s *State) Assignment() []int {
	return append([]int(nil), s.of...)
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	c := &State{g: s.g}
	c.CopyFrom(s)
	return c
}

// CopyFrom overwrites s with the contents of o, reusing s's buffers.
func (s *State) CopyFrom(o *State) {
	s.g = o.g
	s.of = append(s.of[:0], o.of...)
	s.slots = append(s.slots[:0], o.slots...)
	s.free = append(s.free[:0], o.free...)
	s.live = o.live
	s.capacity = o.capacity
}

// Verify recomputes the aggregates from scratch and compares them with the
// maintained ones.
func (s *State) Verify() error {
	fresh := &State{
		g:        s.g,
		of:       s.of,
		slots:    make([]slot, len(s.slots)),
		capacity: s.capacity,
	}
	for u, c := range s.of {
		if c < 0 || c >= len(s.slots) {
			return fmt.Errorf("%w: node %d in unknown community %d", ErrInconsistent, u, c)
		}
	}
	fresh.Recompute()

	tol := 1e-9 * math.Max(1, s.g.TotalWeight())
	for c := range s.slots {
		a, b := s.slots[c], fresh.slots[c]
		if a.size != b.size {
			return fmt.Errorf("%w: community %d size %d, recomputed %d", ErrInconsistent, c, a.size, b.size)
		}
		if math.Abs(a.internal-b.internal) > tol ||
			math.Abs(a.outSum-b.outSum) > tol ||
			math.Abs(a.inSum-b.inSum) > tol {
			return fmt.Errorf("%w: community %d aggregates drifted", ErrInconsistent, c)
		}
	}
	if s.live != fresh.live {
		return fmt.Errorf("%w: live count %d, recomputed %d", ErrInconsistent, s.live, fresh.live)
	}
	if len(s.free) != len(fresh.free) {
		return fmt.Errorf("%w: %d free slots, recomputed %d", ErrInconsistent, len(s.free), len(fresh.free))
	}
	if s.capacity != Unlimited && s.live > s.capacity {
		return fmt.Errorf("%w: %d communities exceed capacity %d", ErrInconsistent, s.live, s.capacity)
	}
	return nil
}

// freeList is a min-heap of empty slot ids.
type freeList []int

func (f freeList) Len() int           { return len(f) }
func (f freeList) Less(i, j int) bool { return f[i] < f[j] }
func (f freeList) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *freeList) Push(x any)        { *f = append(*f, x.(int)) }
func (f *freeList) Pop() any {
	old := *f
	n := len(old)
	x := old[n-1]
	*f = old[:n-1]
	return x
}
