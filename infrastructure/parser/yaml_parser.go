package parser

import (
	"github.com/taheris/bad-write-retry-example/domain/entities"
	"github.com/taheris/bad-write-retry-example/domain/ports"
	"gopkg.in/yaml.v3"
)

// YamlConfigParser implements ConfigParser for YAML.
type YamlConfigParser struct{}

// NewYamlConfigParser creates a new YamlConfigParser.
func NewYamlConfigParser() ports.ConfigParser {
	return &YamlConfigParser{}
}

// Parse unmarshals YAML bytes over the default client configuration.
func (p *YamlConfigParser) Parse(data []byte) (*entities.ClientConfig, error) {
	cfg := entities.DefaultClientConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
