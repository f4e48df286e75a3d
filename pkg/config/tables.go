// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GameMode describes how many players a mode needs and how they are split.
type GameMode struct {
	PartySize int `yaml:"partySize"`
	Teams     int `yaml:"teams"` // 1 means free-for-all
}

// TeamSize returns the number of players per team.
func (g GameMode) TeamSize() int {
	if g.Teams <= 1 {
		return g.PartySize
	}
	return g.PartySize / g.Teams
}

// Weapon carries the per weapon limits used by the shot validator.
type Weapon struct {
	FireRate float64 `yaml:"fireRate"` // rounds per minute
	Range    float64 `yaml:"range"`
}

// SelectorWeights are the coefficients of the server score, lower score wins.
type SelectorWeights struct {
	CPU           float64 `yaml:"cpu"`
	Memory        float64 `yaml:"memory"`
	Network       float64 `yaml:"network"`
	Capacity      float64 `yaml:"capacity"`
	CapacityScale float64 `yaml:"capacityScale"`
	RegionPenalty float64 `yaml:"regionPenalty"`
}

type Tables struct {
	Regions          []string            `yaml:"regions"`
	GameModes        map[string]GameMode `yaml:"gameModes"`
	Weapons          map[string]Weapon   `yaml:"weapons"`
	DefaultWeapon    Weapon              `yaml:"defaultWeapon"`
	Selector         SelectorWeights     `yaml:"selector"`
	MouseSensitivity float64             `yaml:"mouseSensitivity"`
}

func DefaultTables() Tables {
	return Tables{
		Regions: []string{"na-east", "na-west", "eu-west", "eu-east", "asia", "oceania"},
		GameModes: map[string]GameMode{
			"classic":     {PartySize: 4, Teams: 2},
			"competitive": {PartySize: 10, Teams: 2},
			"casual":      {PartySize: 8, Teams: 2},
			"deathmatch":  {PartySize: 10, Teams: 1},
		},
		Weapons: map[string]Weapon{
			"ak47":   {FireRate: 600, Range: 3000},
			"m4a1":   {FireRate: 666, Range: 3000},
			"awp":    {FireRate: 41, Range: 8000},
			"deagle": {FireRate: 267, Range: 4000},
			"glock":  {FireRate: 400, Range: 2000},
			"usp":    {FireRate: 400, Range: 2000},
		},
		DefaultWeapon: Weapon{FireRate: 600, Range: 3000},
		Selector: SelectorWeights{
			CPU:           0.3,
			Memory:        0.2,
			Network:       0.1,
			Capacity:      1,
			CapacityScale: 40,
			RegionPenalty: 20,
		},
		MouseSensitivity: 1.0,
	}
}

// LoadFile overlays the YAML file on top of the current tables. Maps are merged per key.
func (t *Tables) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tables file: %w", err)
	}

	var overlay Tables
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse tables file %s: %w", path, err)
	}

	if len(overlay.Regions) > 0 {
		t.Regions = overlay.Regions
	}
	for name, mode := range overlay.GameModes {
		t.GameModes[name] = mode
	}
	for name, weapon := range overlay.Weapons {
		t.Weapons[name] = weapon
	}
	if overlay.DefaultWeapon.FireRate > 0 {
		t.DefaultWeapon = overlay.DefaultWeapon
	}
	if overlay.Selector != (SelectorWeights{}) {
		t.Selector = overlay.Selector
	}
	if overlay.MouseSensitivity > 0 {
		t.MouseSensitivity = overlay.MouseSensitivity
	}

	return nil
}

func (t Tables) Validate() error {
	if len(t.Regions) == 0 {
		return errors.New("at least one region is required")
	}
	if len(t.GameModes) == 0 {
		return errors.New("at least one game mode is required")
	}
	for name, mode := range t.GameModes {
		if mode.PartySize <= 0 {
			return fmt.Errorf("game mode %s: party size must be positive", name)
		}
		if mode.Teams > 1 && mode.PartySize%mode.Teams != 0 {
			return fmt.Errorf("game mode %s: party size %d cannot be split into %d teams", name, mode.PartySize, mode.Teams)
		}
	}
	for name, weapon := range t.Weapons {
		if weapon.FireRate <= 0 || weapon.Range <= 0 {
			return fmt.Errorf("weapon %s: fire rate and range must be positive", name)
		}
	}
	return nil
}

// Weapon returns the limits of the weapon, falling back to the default weapon for unknown ids.
func (t Tables) Weapon(id string) Weapon {
	if weapon, ok := t.Weapons[id]; ok {
		return weapon
	}
	return t.DefaultWeapon
}

func (t Tables) HasRegion(region string) bool {
	for _, r := range t.Regions {
		if r == region {
			return true
		}
	}
	return false
}
