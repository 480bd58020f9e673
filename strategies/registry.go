package strategies

import (
	"fmt"
	"sort"

	"fxbot/internal/engine"
	"fxbot/strategies/donchian"
	"fxbot/strategies/goldencross"
	"fxbot/strategies/simple"
)

var registry = map[string]engine.Factory{
	simple.Name:      simple.New,
	goldencross.Name: goldencross.New,
	donchian.Name:    donchian.New,
}

// Resolve returns the factory registered under name.
func Resolve(name string) (engine.Factory, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, engine.ErrUnknownStrategy)
	}
	return f, nil
}

// Names lists the registered strategies alphabetically.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
