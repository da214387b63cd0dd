package models

import "time"

type TurnRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Seed is a template describing a conversational scenario.
type Seed struct {
	ID            string     `json:"id" yaml:"id"`
	Domain        string     `json:"domain" yaml:"domain"`
	Language      string     `json:"language" yaml:"language"`
	Objective     string     `json:"objective" yaml:"objective"`
	Tone          string     `json:"tone,omitempty" yaml:"tone,omitempty"`
	Roles         []string   `json:"roles,omitempty" yaml:"roles,omitempty"`
	ExpectedTurns *TurnRange `json:"expected_turns,omitempty" yaml:"expected_turns,omitempty"`
	Tags          []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}
