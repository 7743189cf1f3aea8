package catalog

import (
	_ "embed"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

//go:embed seed/products.json
var builtinSeed []byte

// envelope is the persisted and seed file layout.
type envelope struct {
	Products []Product `json:"products"`
}

func encodeSnapshot(products []Product) ([]byte, error) {
	return json.Marshal(envelope{Products: products})
}

func decodeSnapshot(data []byte) ([]Product, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Products == nil {
		return nil, errors.New("snapshot has no products field")
	}
	return env.Products, nil
}

// BuiltinSeed returns the seed data set compiled into the binary.
func BuiltinSeed() []Product {
	ps, err := decodeSnapshot(builtinSeed)
	if err != nil {
		panic("catalog: invalid builtin seed: " + err.Error())
	}
	return ps
}

// LoadSeed reads a seed envelope from path. An empty path yields BuiltinSeed.
func LoadSeed(path string) ([]Product, error) {
	if path == "" {
		return BuiltinSeed(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read seed file")
	}

	ps, err := decodeSnapshot(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode seed file %s", path)
	}
	if err := checkUniqueIDs(ps); err != nil {
		return nil, errors.Wrapf(err, "seed file %s", path)
	}
	return ps, nil
}

func checkUniqueIDs(ps []Product) error {
	seen := make(map[string]struct{}, len(ps))
	for _, p := range ps {
		if p.ID == "" {
			return errors.Errorf("product %q has no id", p.Name)
		}
		if _, dup := seen[p.ID]; dup {
			return errors.Errorf("duplicate product id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
