package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/notabot/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Challenges []model.ChallengeDescriptor `yaml:"challenges"`
}

// LoadCatalog decodes a YAML catalog. Unknown fields are rejected so typos
// in the data file fail at startup.
func LoadCatalog(r io.Reader) ([]model.ChallengeDescriptor, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog is empty")
		}
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if len(file.Challenges) == 0 {
		return nil, fmt.Errorf("catalog has no challenges")
	}
	return file.Challenges, nil
}

// LoadCatalogFile reads a catalog from path.
func LoadCatalogFile(path string) ([]model.ChallengeDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only catalog.
			_ = cerr
		}
	}()
	return LoadCatalog(f)
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() ([]model.ChallengeDescriptor, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalog))
}
