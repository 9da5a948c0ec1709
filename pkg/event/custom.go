package event

import (
	"encoding/json"
	"fmt"
)

// LLMStart is the value of a Custom "llm_start" event.
type LLMStart struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ModelKey renders the provider/model pair the way threads record it.
func (l LLMStart) ModelKey() string {
	return l.Provider + "/" + l.Model
}

// Cost is the value of a Custom "cost" event.
type Cost struct {
	Cost float64 `json:"cost"`
}

// LLMStart decodes the payload of an "llm_start" Custom event. ok is false
// for any other event or an undecodable payload.
func (e Event) LLMStart() (LLMStart, bool) {
	var v LLMStart
	if !e.customValue(CustomLLMStart, &v) {
		return LLMStart{}, false
	}
	return v, true
}

// Cost decodes the payload of a "cost" Custom event.
func (e Event) Cost() (float64, bool) {
	var v Cost
	if !e.customValue(CustomCost, &v) {
		return 0, false
	}
	return v.Cost, true
}

func (e Event) customValue(name string, target any) bool {
	if e.Type != TypeCustom || e.Name != name || len(e.Value) == 0 {
		return false
	}
	return json.Unmarshal(e.Value, target) == nil
}

// NewCustom builds a Custom event, marshaling value into the raw payload.
func NewCustom(name string, timestamp float64, value any) (Event, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Event{}, fmt.Errorf("marshaling %s value: %w", name, err)
	}
	return Event{
		Type:      TypeCustom,
		Timestamp: timestamp,
		Name:      name,
		Value:     raw,
	}, nil
}
