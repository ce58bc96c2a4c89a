package outbreaksim

import "github.com/BurntSushi/toml"

// LoadConfigFile decodes a TOML config file into a Config, mirroring
// loader.go's LoadSingleHostConfig/LoadEvoEpiConfig (toml.DecodeFile
// straight into the destination struct, no intermediate map).
func LoadConfigFile(path string) (*Config, error) {
	cfg := NewConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
