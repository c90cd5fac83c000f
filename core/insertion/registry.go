package insertion

import (
	"fmt"

	"github.com/kilianp07/drt/core/factory"
)

// WeightedCostType names the built-in WeightedCost function.
const WeightedCostType = "weighted"

var costFunctions = factory.NewRegistry[CostFunction](WeightedCostType)

func init() {
	_ = costFunctions.Register(WeightedCostType, func(conf map[string]any) (CostFunction, error) {
		w := DefaultWeightedCost()
		if err := factory.Decode(conf, &w); err != nil {
			return nil, fmt.Errorf("weighted cost: %w", err)
		}
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("weighted cost: %w", err)
		}
		return w, nil
	})
}

// RegisterCostFunction makes a cost function available to configuration.
func RegisterCostFunction(name string, f factory.Factory[CostFunction]) error {
	return costFunctions.Register(name, f)
}

// NewCostFunction builds the cost function selected by cfg. An empty type
// selects WeightedCost.
func NewCostFunction(cfg factory.ModuleConfig) (CostFunction, error) {
	return costFunctions.Create(cfg)
}
