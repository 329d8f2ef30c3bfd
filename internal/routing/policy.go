package routing

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/smarttransit/route-planner/internal/models"
)

// Weights holds the tuning constants of one filter
type Weights struct {
	TransferPenalty float64 `yaml:"transfer_penalty" validate:"gte=0"`
	NewLinePenalty  float64 `yaml:"new_line_penalty" validate:"gte=0"`
	WalkPenalty     float64 `yaml:"walk_penalty" validate:"gte=0"`
	DurationWeight  float64 `yaml:"duration_weight" validate:"gte=0"`
	DistanceWeight  float64 `yaml:"distance_weight" validate:"gte=0"`
}

// ChangePenalty is the total penalty charged when an edge boards a different line
func (w Weights) ChangePenalty() float64 {
	return w.TransferPenalty + w.NewLinePenalty
}

// WeightTable holds the weights of every filter
type WeightTable struct {
	Fastest         Weights `yaml:"fastest"`
	FewestTransfers Weights `yaml:"fewest_transfers"`
	Cheapest        Weights `yaml:"cheapest"`
}

// DefaultWeightTable returns the stock tuning
func DefaultWeightTable() WeightTable {
	return WeightTable{
		Fastest: Weights{
			TransferPenalty: 30,
			DurationWeight:  1,
			DistanceWeight:  0.5,
		},
		FewestTransfers: Weights{
			TransferPenalty: 500,
			WalkPenalty:     50,
			DurationWeight:  0.01,
			DistanceWeight:  0.1,
		},
		Cheapest: Weights{
			NewLinePenalty: 300,
			DurationWeight: 0.1,
		},
	}
}

// For returns the weights of a filter; unknown filters get the fastest weights
func (t WeightTable) For(filter models.Filter) Weights {
	switch filter {
	case models.FilterFewestTransfers:
		return t.FewestTransfers
	case models.FilterCheapest:
		return t.Cheapest
	default:
		return t.Fastest
	}
}

// Validate checks that weights are non-negative and that line-change penalties
// are strictly ordered fewest_transfers > cheapest > fastest.
func (t WeightTable) Validate() error {
	v := validator.New()
	if err := v.Struct(t); err != nil {
		return fmt.Errorf("invalid weight table: %w", err)
	}

	fewest := t.FewestTransfers.ChangePenalty()
	cheapest := t.Cheapest.ChangePenalty()
	fastest := t.Fastest.ChangePenalty()
	if !(fewest > cheapest && cheapest > fastest) {
		return fmt.Errorf("invalid weight table: line change penalties must be ordered fewest_transfers (%.2f) > cheapest (%.2f) > fastest (%.2f)",
			fewest, cheapest, fastest)
	}
	return nil
}

// LoadWeightTable reads a YAML weight table. Filters or fields missing from
// the file keep their default values.
func LoadWeightTable(path string) (WeightTable, error) {
	table := DefaultWeightTable()

	data, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("error reading weight table: %w", err)
	}
	if err := yaml.Unmarshal(data, &table); err != nil {
		return table, fmt.Errorf("error parsing weight table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return table, err
	}
	return table, nil
}

// Policy scores edges for the search. It is safe for concurrent use.
type Policy struct {
	table WeightTable
}

// NewPolicy creates a policy over a weight table
func NewPolicy(table WeightTable) *Policy {
	return &Policy{table: table}
}

// DefaultPolicy creates a policy with the stock weights
func DefaultPolicy() *Policy {
	return NewPolicy(DefaultWeightTable())
}

// Table returns the policy's weights
func (p *Policy) Table() WeightTable {
	return p.table
}

// IsLineChange reports whether riding edge after previousLine boards a different line.
// Walking edges and the first ride of a journey are never line changes.
func IsLineChange(edge models.Edge, previousLine string) bool {
	return !edge.IsWalk() && previousLine != "" && edge.LineID != previousLine
}

// Score returns the non-negative search cost of taking edge under filter.
// previousLine is the last line ridden before this edge ("" if none).
func (p *Policy) Score(edge models.Edge, filter models.Filter, previousLine string) float64 {
	w := p.table.For(filter)

	score := float64(edge.DurationMinutes)*w.DurationWeight + edge.DistanceKm*w.DistanceWeight
	if edge.IsWalk() {
		score += w.WalkPenalty
	} else if IsLineChange(edge, previousLine) {
		score += w.ChangePenalty()
	}
	return score
}
