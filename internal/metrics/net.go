package metrics

import (
	"math"

	"github.com/san-kum/trajfit/internal/dynamo"
)

// Court geometry for a shot struck from the baseline.
const (
	NetDistance = 11.885
	NetHeight   = 0.914
)

// NetClearance is the height above the net tape when the ball passes the
// net, interpolated between the samples on either side. It is NaN until the
// ball has reached the net.
type NetClearance struct {
	distance float64
	height   float64

	prev      dynamo.State
	clearance float64
	crossed   bool
}

func NewNetClearance(distance, height float64) *NetClearance {
	return &NetClearance{distance: distance, height: height, clearance: math.NaN()}
}

func (n *NetClearance) Name() string { return "net_clearance_m" }

func (n *NetClearance) Observe(t float64, x dynamo.State) {
	if n.crossed {
		return
	}
	if n.prev != nil && n.prev[dynamo.X] < n.distance && x[dynamo.X] >= n.distance {
		f := (n.distance - n.prev[dynamo.X]) / (x[dynamo.X] - n.prev[dynamo.X])
		z := n.prev[dynamo.Z] + f*(x[dynamo.Z]-n.prev[dynamo.Z])
		n.clearance = z - n.height
		n.crossed = true
		return
	}
	n.prev = x.Clone()
}

func (n *NetClearance) Value() float64 { return n.clearance }

func (n *NetClearance) Reset() {
	n.prev = nil
	n.clearance = math.NaN()
	n.crossed = false
}
