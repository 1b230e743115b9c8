package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnEntry places Count instances of a template at start-up.
type SpawnEntry struct {
	Template string  `yaml:"template"`
	Count    int     `yaml:"count"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Angle    float64 `yaml:"angle"` // degrees
	SpreadX  float64 `yaml:"spread_x"`
	SpreadY  float64 `yaml:"spread_y"`
	Owner    string  `yaml:"owner,omitempty"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// LoadSpawnList loads spawn entries from a YAML file.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	return ParseSpawnList(data)
}

// ParseSpawnList decodes a spawn list document.
func ParseSpawnList(data []byte) ([]SpawnEntry, error) {
	var f spawnListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	for i := range f.Spawns {
		if f.Spawns[i].Count <= 0 {
			f.Spawns[i].Count = 1
		}
	}
	return f.Spawns, nil
}
