package phase

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vitrei/parley/core"
)

// LoadFile reads a phase graph definition from a JSON file and compiles it.
// Any IO, syntax or structural problem is a configuration fault.
func LoadFile(path string) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewConfigurationFault(fmt.Sprintf("read phase graph %q", path), err)
	}
	return Parse(data)
}

// Parse compiles a phase graph from its JSON representation.
func Parse(data []byte) (*Machine, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, core.NewConfigurationFault("decode phase graph", err)
	}
	return New(g)
}
