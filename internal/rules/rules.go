// Package rules defines the boundary to the external action-validation
// collaborator. The rules engine itself lives outside this service; the
// expedition core only pre-checks proposed actions for structural legality
// before handing them to the simulation.
package rules

import (
	"context"
	"fmt"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
)

// Action is one proposed combat action to validate
type Action struct {
	Type     string `json:"type"`
	ActorID  string `json:"actor_id"`
	TargetID string `json:"target_id,omitempty"`
}

// ValidateActionInput carries an action plus the entities it references
type ValidateActionInput struct {
	Action   *Action
	Entities map[string]*dungeon.CombatEntity
}

// ValidateActionOutput reports structural legality
type ValidateActionOutput struct {
	Valid  bool
	Errors []string
}

// Validator checks proposed actions against the game rules
type Validator interface {
	ValidateAction(ctx context.Context, input *ValidateActionInput) (*ValidateActionOutput, error)
}

// StructuralValidator performs the local structural checks this core owns:
// referenced entities exist and are alive. Deeper rule semantics belong to
// the external engine behind the same interface.
type StructuralValidator struct{}

// NewStructuralValidator creates the local validator
func NewStructuralValidator() *StructuralValidator {
	return &StructuralValidator{}
}

// ValidateAction implements Validator
func (v *StructuralValidator) ValidateAction(
	_ context.Context,
	input *ValidateActionInput,
) (*ValidateActionOutput, error) {
	if input == nil || input.Action == nil {
		return &ValidateActionOutput{Valid: false, Errors: []string{"action is required"}}, nil
	}

	var problems []string

	if input.Action.Type == "" {
		problems = append(problems, "action type is required")
	}

	actor, ok := input.Entities[input.Action.ActorID]
	if !ok {
		problems = append(problems, fmt.Sprintf("unknown actor %q", input.Action.ActorID))
	} else if !actor.Alive() {
		problems = append(problems, fmt.Sprintf("actor %q is dead", input.Action.ActorID))
	}

	if input.Action.TargetID != "" {
		target, ok := input.Entities[input.Action.TargetID]
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown target %q", input.Action.TargetID))
		} else if !target.Alive() {
			problems = append(problems, fmt.Sprintf("target %q is dead", input.Action.TargetID))
		}
	}

	return &ValidateActionOutput{
		Valid:  len(problems) == 0,
		Errors: problems,
	}, nil
}
