package config

import (
	"errors"
	"fmt"
	"oil-collection-service/internal/domain"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive numeric interval sampled uniformly by the engine.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// IntChoices accepts either a single integer or a list of integers.
type IntChoices []int

func (c *IntChoices) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		n, err := strconv.Atoi(node.Value)
		if err != nil {
			return fmt.Errorf("volume value %q: %w", node.Value, err)
		}
		*c = IntChoices{n}
		return nil
	case yaml.SequenceNode:
		var values []int
		if err := node.Decode(&values); err != nil {
			return err
		}
		*c = values
		return nil
	default:
		return fmt.Errorf("volume values: unsupported yaml node at line %d", node.Line)
	}
}

type VolumeEntry struct {
	Match  string     `yaml:"match"`
	Values IntChoices `yaml:"values"`
}

type Band struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// EngineConfig holds every tunable of the allocation and reconciliation engine.
type EngineConfig struct {
	Volumes               []VolumeEntry `yaml:"volumes"`
	Band                  Band          `yaml:"band"`
	VolumeCap             int           `yaml:"volume_cap"`
	LargeUnit             int           `yaml:"large_unit"`
	SmallUnit             int           `yaml:"small_unit"`
	MinLargeMass          int           `yaml:"min_large_mass"`
	TargetSmall           int           `yaml:"target_small"`
	NetWeightFactor       float64       `yaml:"net_weight_factor"`
	NetWeightOffset       Range         `yaml:"net_weight_offset"`
	ConversionFactor      Range         `yaml:"conversion_factor"`
	CooldownDays          int           `yaml:"cooldown_days"`
	ScheduleDays          int           `yaml:"schedule_days"`
	ReceiptMass           Range         `yaml:"receipt_mass"`
	ReceiptTolerance      float64       `yaml:"receipt_tolerance"`
	TareSurcharge         Range         `yaml:"tare_surcharge"`
	MaxAttempts           int           `yaml:"max_attempts"`
	ContractPrefix        string        `yaml:"contract_prefix"`
	SettlementDocPrefix   string        `yaml:"settlement_doc_prefix"`
	ProductionCoefficient float64       `yaml:"production_coefficient"`
}

// DefaultEngineConfig returns the built-in tunables, with a few env overrides.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Band:                  Band{Min: 35, Max: 44},
		VolumeCap:             GetInt("ENGINE_VOLUME_CAP", 1000),
		LargeUnit:             180,
		SmallUnit:             55,
		MinLargeMass:          150,
		TargetSmall:           GetInt("ENGINE_TARGET_SMALL", 0),
		NetWeightFactor:       0.18,
		NetWeightOffset:       Range{Min: 0, Max: 0.3},
		ConversionFactor:      Range{Min: 90, Max: 93},
		CooldownDays:          domain.DefaultCooldownDays,
		ScheduleDays:          GetInt("ENGINE_SCHEDULE_DAYS", 20),
		ReceiptMass:           Range{Min: 28, Max: 34},
		ReceiptTolerance:      0.05,
		TareSurcharge:         Range{Min: 0.05, Max: 0.3},
		MaxAttempts:           10000,
		ContractPrefix:        Get("CONTRACT_PREFIX", "HT"),
		SettlementDocPrefix:   Get("SETTLEMENT_DOC_PREFIX", "JS"),
		ProductionCoefficient: GetFloat("PRODUCTION_COEFFICIENT", 0.92),
	}
}

// LoadEngineConfig reads ENGINE_CONFIG (when set) over the defaults.
func LoadEngineConfig() (EngineConfig, error) {
	cfg := DefaultEngineConfig()

	if path := os.Getenv("ENGINE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load engine config: read %q: %w", path, err)
		}
		if cfg, err = ParseEngineConfig(data); err != nil {
			return cfg, fmt.Errorf("load engine config: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

// ParseEngineConfig decodes YAML on top of DefaultEngineConfig.
func ParseEngineConfig(data []byte) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse engine config: %w", err)
	}
	return cfg, nil
}

func (c EngineConfig) Validate() error {
	switch {
	case c.Band.Min <= 0 || c.Band.Max < c.Band.Min:
		return fmt.Errorf("engine config: invalid band [%d, %d]", c.Band.Min, c.Band.Max)
	case c.VolumeCap < c.Band.Min:
		return fmt.Errorf("engine config: volume cap %d below band floor %d", c.VolumeCap, c.Band.Min)
	case c.LargeUnit <= 0 || c.SmallUnit <= 0:
		return errors.New("engine config: container unit sizes must be positive")
	case c.ConversionFactor.Max < c.ConversionFactor.Min:
		return errors.New("engine config: conversion factor range inverted")
	case c.ReceiptMass.Min <= 0 || c.ReceiptMass.Max < c.ReceiptMass.Min:
		return errors.New("engine config: invalid receipt mass range")
	case c.ReceiptTolerance <= 0:
		return errors.New("engine config: receipt tolerance must be positive")
	case c.CooldownDays < 0 || c.ScheduleDays <= 0:
		return errors.New("engine config: cooldown must be non-negative and schedule days positive")
	case c.MaxAttempts <= 0:
		return errors.New("engine config: max attempts must be positive")
	case c.ProductionCoefficient <= 0:
		return errors.New("engine config: production coefficient must be positive")
	}
	return nil
}

// VolumeRules converts the YAML volume table into estimator rules, in file order.
func (c EngineConfig) VolumeRules() []domain.VolumeRule {
	rules := make([]domain.VolumeRule, 0, len(c.Volumes))
	for _, v := range c.Volumes {
		rules = append(rules, domain.VolumeRule{Match: v.Match, Values: []int(v.Values)})
	}
	return rules
}
