package l6smoothing

import (
	"fmt"
	"math"

	"github.com/banshee-data/mvscript/internal/monitoring"
	"github.com/banshee-data/mvscript/internal/motion/l5actions"
)

// Error function constants. Changing them changes every smoothed timeline.
const (
	positionExponent = 1.2
	distanceWeight   = 10
	distanceExponent = 5

	// MaxPasses caps Nudge.
	MaxPasses = 100
	// windowRadius is how many neighbours each side count towards a move.
	windowRadius = 2
)

// Node is a run of consecutive actions moving the same way. Its position
// is the position of its last action.
type Node struct {
	First, Last int // action indices, inclusive
	Sign        int // +1 rising, -1 falling, 0 flat (0 for the first node)

	OriginalPos      int
	Pos              int
	OriginalDistance int
	TargetDistance   int
	// Anchored nodes pay for drifting away from OriginalPos.
	Anchored bool
}

// Optimizer holds the nodes of one timeline in an arena; neighbours are
// adjacent indices.
type Optimizer struct {
	nodes   []Node
	actions int
}

// NewOptimizer groups actions into nodes. The first action is always a
// node of its own.
func NewOptimizer(actions []l5actions.Action) *Optimizer {
	o := &Optimizer{actions: len(actions)}
	for i, a := range actions {
		if i == 0 {
			o.nodes = append(o.nodes, Node{OriginalPos: a.Pos, Pos: a.Pos, Anchored: true})
			continue
		}
		s := sign(a.Pos - actions[i-1].Pos)
		last := &o.nodes[len(o.nodes)-1]
		if len(o.nodes) > 1 && last.Sign == s {
			last.Last = i
			last.OriginalPos = a.Pos
			last.Pos = a.Pos
			continue
		}
		o.nodes = append(o.nodes, Node{First: i, Last: i, Sign: s, OriginalPos: a.Pos, Pos: a.Pos})
	}
	for k := 1; k < len(o.nodes); k++ {
		n, prev := &o.nodes[k], o.nodes[k-1]
		n.OriginalDistance = abs(n.OriginalPos - prev.OriginalPos)
		n.TargetDistance = n.OriginalDistance
		n.Anchored = abs(n.OriginalPos-50) >= abs(prev.OriginalPos-50)
	}
	return o
}

// Nodes returns a copy of the nodes.
func (o *Optimizer) Nodes() []Node {
	out := make([]Node, len(o.nodes))
	copy(out, o.nodes)
	return out
}

// Scale sets every node's target distance to round(original*factor + add),
// limited to [0, 100]. Flat nodes follow the same formula, so a positive
// add opens them up.
func (o *Optimizer) Scale(factor, add float64) {
	for k := 1; k < len(o.nodes); k++ {
		n := &o.nodes[k]
		t := math.Round(float64(n.OriginalDistance)*factor + add)
		n.TargetDistance = int(max(0, min(100, t)))
	}
}

// nodeError is the cost of node k in the current state.
func (o *Optimizer) nodeError(k int) float64 {
	n := o.nodes[k]
	e := 0.0
	if n.Anchored {
		e += math.Pow(math.Abs(float64(n.OriginalPos-n.Pos)), positionExponent)
	}
	if k > 0 {
		d := abs(n.Pos - o.nodes[k-1].Pos)
		e += distanceWeight * math.Pow(math.Abs(float64(n.TargetDistance-d)), distanceExponent)
	}
	return e
}

func (o *Optimizer) windowError(k int) float64 {
	e := 0.0
	for j := max(0, k-windowRadius); j <= min(len(o.nodes)-1, k+windowRadius); j++ {
		e += o.nodeError(j)
	}
	return e
}

// Error returns the total cost of the current state.
func (o *Optimizer) Error() float64 {
	e := 0.0
	for k := range o.nodes {
		e += o.nodeError(k)
	}
	return e
}

// move shifts node k, and its predecessor when paired, by delta. It
// reports false and leaves the state unchanged if a position would leave [0, 100].
func (o *Optimizer) move(k, delta int, paired bool) bool {
	if o.nodes[k].Pos+delta < l5actions.PosMin || o.nodes[k].Pos+delta > l5actions.PosMax {
		return false
	}
	if paired {
		p := o.nodes[k-1].Pos + delta
		if p < l5actions.PosMin || p > l5actions.PosMax {
			return false
		}
		o.nodes[k-1].Pos = p
	}
	o.nodes[k].Pos += delta
	return true
}

// Nudge runs local-search passes until one changes nothing or MaxPasses
// is reached, and returns the number of passes run. Each node tries +1
// and -1 alone and then together with its predecessor, keeping the first
// move that strictly lowers the error of the surrounding window.
func (o *Optimizer) Nudge() int {
	type candidate struct {
		delta  int
		paired bool
	}
	candidates := []candidate{{1, false}, {-1, false}, {1, true}, {-1, true}}

	passes := 0
	for passes < MaxPasses {
		passes++
		changed := 0
		for k := range o.nodes {
			before := o.windowError(k)
			for _, c := range candidates {
				if c.paired && k == 0 {
					continue
				}
				if !o.move(k, c.delta, c.paired) {
					continue
				}
				if o.windowError(k) < before {
					changed++
					break
				}
				o.move(k, -c.delta, c.paired)
			}
		}
		if changed == 0 {
			break
		}
	}
	monitoring.Debugf("[Optimizer] %d nodes settled after %d passes, error=%.2f", len(o.nodes), passes, o.Error())
	return passes
}

// Apply writes the node positions back into actions, which must be the
// timeline the optimizer was built from. Inner actions of a node are
// interpolated between the node's previous and new end points.
func (o *Optimizer) Apply(actions []l5actions.Action) error {
	if len(actions) != o.actions {
		return fmt.Errorf("optimizer built for %d actions, got %d", o.actions, len(actions))
	}
	for k, n := range o.nodes {
		actions[n.Last].Pos = l5actions.Clamp(n.Pos, l5actions.PosMin, l5actions.PosMax)
		if n.First == n.Last {
			continue
		}
		prev := o.nodes[k-1]
		oldStart, oldEnd := float64(prev.OriginalPos), float64(n.OriginalPos)
		newStart, newEnd := float64(prev.Pos), float64(n.Pos)
		span := float64(n.Last - n.First + 1)
		for j := n.First; j < n.Last; j++ {
			t := float64(j-n.First+1) / span
			if oldEnd != oldStart {
				t = (float64(actions[j].Pos) - oldStart) / (oldEnd - oldStart)
			}
			pos := int(math.Round(newStart + t*(newEnd-newStart)))
			actions[j].Pos = l5actions.Clamp(pos, l5actions.PosMin, l5actions.PosMax)
		}
	}
	return nil
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
