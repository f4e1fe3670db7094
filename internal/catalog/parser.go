package catalog

// Package catalog provides catalog.yaml parsing for the seed product catalog.

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Catalog struct {
	Store      StoreConfig     `yaml:"store"`
	Categories []string        `yaml:"categories"`
	Products   []ProductConfig `yaml:"products"`
}

type StoreConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

type ProductConfig struct {
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	PriceCents    int    `yaml:"price_cents"`
	OriginalCents int    `yaml:"original_cents"`
	Image         string `yaml:"image"`
	Category      string `yaml:"category"`
	Stock         int    `yaml:"stock"`
	Active        bool   `yaml:"active"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(content []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(content, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &catalog, nil
}

func (p *Parser) ParseFile(path string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return p.Parse(content)
}
