package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/lvsim/internal/physics"
	"github.com/san-kum/lvsim/internal/sim"
)

type Document struct {
	Scenario  string             `json:"scenario"`
	Method    string             `json:"method"`
	Params    physics.Params     `json:"params"`
	Initial   sim.Populations    `json:"initial"`
	Samples   int                `json:"samples"`
	Accepted  int                `json:"accepted_steps"`
	Rejected  int                `json:"rejected_steps"`
	Invariant float64            `json:"invariant_initial"`
	Drift     float64            `json:"invariant_drift"`
	Underflow bool               `json:"underflow"`
	Times     []float64          `json:"times"`
	Prey      []float64          `json:"prey"`
	Predator  []float64          `json:"predator"`
	Metrics   map[string]float64 `json:"metrics"`
}

func NewDocument(scenario string, method sim.Method, initial sim.Populations, r *sim.Result) Document {
	return Document{
		Scenario:  scenario,
		Method:    string(method),
		Params:    r.Params,
		Initial:   initial,
		Samples:   r.Trajectory.Len(),
		Accepted:  r.Stats.Accepted,
		Rejected:  r.Stats.Rejected,
		Invariant: r.InvariantInitial,
		Drift:     r.InvariantDrift,
		Underflow: r.Underflow,
		Times:     r.Trajectory.Times,
		Prey:      r.Prey(),
		Predator:  r.Predator(),
		Metrics:   r.Metrics,
	}
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
