package migrate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/caketrack/caketrack/internal/schema"
)

// DefaultFlavors returns the compiled-in starter catalog, installed on a
// completely fresh store so the order form has something to offer.
func DefaultFlavors() []*schema.Flavor {
	return []*schema.Flavor{
		{Name: "Chocolate", PricePerKg: 50},
		{Name: "Vanilla", PricePerKg: 45},
		{Name: "Red Velvet", PricePerKg: 60},
		{Name: "Carrot", PricePerKg: 55},
		{Name: "Lemon", PricePerKg: 48},
	}
}

// seedFile is the YAML shape of an operator-provided seed catalog:
//
//	flavors:
//	  - name: Pistachio
//	    pricePerKg: 72
type seedFile struct {
	Flavors []struct {
		Name       string  `yaml:"name"`
		PricePerKg float64 `yaml:"pricePerKg"`
	} `yaml:"flavors"`
}

// LoadSeedFile parses a YAML seed catalog. Entries without a name are
// rejected; the store itself never validates prices.
func LoadSeedFile(path string) ([]*schema.Flavor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	flavors := make([]*schema.Flavor, 0, len(sf.Flavors))
	for i, f := range sf.Flavors {
		if f.Name == "" {
			return nil, fmt.Errorf("seed flavor %d has no name", i+1)
		}
		flavors = append(flavors, &schema.Flavor{Name: f.Name, PricePerKg: f.PricePerKg})
	}
	return flavors, nil
}
