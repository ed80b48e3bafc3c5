package signatures

import (
	"embed"
	"encoding/json"

	scanerrors "github.com/PentesterFlow/OpenScanner/internal/errors"
)

//go:embed data/*.json
var builtin embed.FS

// Default returns a fresh copy of the built-in tables.
func Default() (*Tables, error) {
	t := &Tables{}
	files := []struct {
		name string
		v    interface{}
	}{
		{"data/" + VulnFile + ".json", &t.Vulns},
		{"data/" + FingerprintFile + ".json", &t.Fingerprints},
		{"data/" + CVEFile + ".json", &t.CVEs},
	}
	for _, f := range files {
		data, err := builtin.ReadFile(f.name)
		if err != nil {
			return nil, scanerrors.NewSignatureLoadError(f.name, "built-in table missing", err)
		}
		if err := json.Unmarshal(data, f.v); err != nil {
			return nil, scanerrors.NewSignatureLoadError(f.name, "built-in table corrupt", err)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, scanerrors.NewSignatureLoadError("builtin", "built-in table invalid", err)
	}
	return t, nil
}
