// Package factory instantiates pluggable components, such as cost functions
// or metrics sinks, from a type name and a map of raw settings.
//
//	reg := factory.NewRegistry[insertion.CostFunction]("weighted")
//	_ = reg.Register("weighted", newWeighted)
//	fn, err := reg.Create(factory.ModuleConfig{Conf: map[string]any{"wait_weight": 0.5}})
package factory
