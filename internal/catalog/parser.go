// Package catalog loads seed templates from YAML files.
package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/uncase/dashboard/internal/models"
)

type seedFile struct {
	Seeds []models.Seed `yaml:"seeds"`
}

// Parse reads one YAML file holding either a single seed or a `seeds:` list.
func Parse(path string) ([]models.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	if len(file.Seeds) > 0 {
		return file.Seeds, nil
	}

	var seed models.Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	// single-seed files may omit the id and take it from the filename
	if seed.ID == "" {
		seed.ID = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), ".yaml"), ".yml")
	}
	return []models.Seed{seed}, nil
}

// LoadAll reads every .yaml/.yml file in dirs. Later directories override
// earlier ones by seed id; missing directories are skipped.
func LoadAll(dirs []string) (map[string]models.Seed, error) {
	seeds := make(map[string]models.Seed)

	for _, dir := range dirs {
		if err := loadFromDir(dir, seeds); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
	}

	return seeds, nil
}

func loadFromDir(dir string, seeds map[string]models.Seed) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		parsed, err := Parse(path)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		for _, seed := range parsed {
			if err := Validate(seed); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			seeds[seed.ID] = seed
		}
	}

	return nil
}

// Sorted returns the seeds ordered by id.
func Sorted(seeds map[string]models.Seed) []models.Seed {
	out := make([]models.Seed, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func Validate(seed models.Seed) error {
	if seed.ID == "" {
		return fmt.Errorf("seed must have an id")
	}

	if seed.Domain == "" {
		return fmt.Errorf("seed %q must have a domain", seed.ID)
	}

	if seed.Language == "" {
		return fmt.Errorf("seed %q must have a language", seed.ID)
	}

	if t := seed.ExpectedTurns; t != nil {
		if t.Min < 1 || t.Max < t.Min {
			return fmt.Errorf("seed %q has invalid expected_turns %d..%d", seed.ID, t.Min, t.Max)
		}
	}

	return nil
}
