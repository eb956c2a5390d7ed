package expedition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KirkDiggler/expedition-api/internal/engine/simulation"
	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	"github.com/KirkDiggler/expedition-api/internal/orchestrators/admission"
	"github.com/KirkDiggler/expedition-api/internal/pkg/rng"
	dungeonrepo "github.com/KirkDiggler/expedition-api/internal/repositories/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/repositories/event"
	"github.com/KirkDiggler/expedition-api/internal/repositories/hero"
	"github.com/KirkDiggler/expedition-api/internal/repositories/lootstats"
	runrepo "github.com/KirkDiggler/expedition-api/internal/repositories/run"
	"github.com/KirkDiggler/expedition-api/internal/rules"
)

// ProcessJob drives one dequeued job to a terminal run state. Errors are
// recorded on the run as a failed status plus message and never propagate
// back to the caller that received the queued response; the returned error
// is for worker-side logging only.
func (o *orchestrator) ProcessJob(ctx context.Context, job *dungeon.Job) error {
	if job == nil {
		return errors.InvalidArgument("job cannot be nil")
	}

	record, err := o.runs.Get(ctx, runrepo.GetInput{RunID: job.RunID})
	if err != nil {
		return errors.Wrapf(err, "failed to load run %s", job.RunID)
	}
	if record.Run.Status.Terminal() {
		slog.Warn("Skipping job for terminal run",
			"run_id", job.RunID,
			"status", string(record.Run.Status))
		return nil
	}

	record.Run.Status = dungeon.RunStatusRunning
	if _, err := o.runs.Update(ctx, runrepo.UpdateInput{Run: record.Run}); err != nil {
		return errors.Wrapf(err, "failed to mark run %s running", job.RunID)
	}

	if err := o.simulate(ctx, job, record.Run); err != nil {
		o.finishRun(ctx, record.Run, nil, err)
		return err
	}
	return nil
}

// simulate builds the party, pre-checks actions, runs the engine, and
// persists the outcome
func (o *orchestrator) simulate(ctx context.Context, job *dungeon.Job, record *dungeon.DungeonRun) error {
	resolved, err := o.dungeons.Get(ctx, dungeonrepo.GetInput{DungeonID: job.DungeonID})
	if err != nil {
		return errors.Wrapf(err, "failed to load dungeon %s", job.DungeonID)
	}

	party, err := o.buildParty(ctx, job.Party)
	if err != nil {
		return err
	}

	if err := o.precheckActions(ctx, party); err != nil {
		return err
	}

	var counts map[string]int
	if o.scarcityEnabled {
		stats, err := o.lootStats.GetAll(ctx, lootstats.GetAllInput{})
		if err != nil {
			return errors.Wrap(err, "failed to load scarcity counters")
		}
		counts = stats.Counts
	}

	output, err := o.engine.Run(&simulation.RunInput{
		RunID:          job.RunID,
		Dungeon:        resolved.Dungeon,
		Party:          party,
		Source:         rng.New(job.Seed),
		StartTime:      job.StartTime,
		ScarcityCounts: counts,
	})
	if err != nil {
		return errors.Wrap(err, "simulation failed")
	}

	if _, err := o.events.Append(ctx, event.AppendInput{Events: output.Events}); err != nil {
		return errors.Wrap(err, "failed to persist events")
	}

	if o.scarcityEnabled && output.UpdatedCounts != nil {
		deltas := countDeltas(counts, output.UpdatedCounts)
		if _, err := o.lootStats.Apply(ctx, lootstats.ApplyInput{Deltas: deltas}); err != nil {
			// Counter drift is tolerable; the run outcome is not lost over it.
			slog.Error("Failed to persist scarcity counters",
				"run_id", job.RunID,
				"error", err)
		}
	}

	o.finishRun(ctx, record, output.Result, nil)

	slog.Info("Run finished",
		"run_id", job.RunID,
		"outcome", string(output.Result.Outcome),
		"events", len(output.Events),
		"items", len(output.Items))
	return nil
}

// buildParty loads hero sheets in party order. A hero without a stored
// sheet gets a baseline stat block so a run never fails on missing
// character data.
func (o *orchestrator) buildParty(ctx context.Context, refs []dungeon.HeroRef) ([]*dungeon.CombatEntity, error) {
	party := make([]*dungeon.CombatEntity, 0, len(refs))
	for _, ref := range refs {
		sheet, err := o.heroes.Get(ctx, hero.GetInput{Ref: ref})
		if err != nil {
			if !errors.IsNotFound(err) {
				return nil, errors.Wrapf(err, "failed to load hero %s", ref)
			}
			party = append(party, simulation.EntityFromSheet(baselineSheet(ref)))
			continue
		}
		party = append(party, simulation.EntityFromSheet(sheet.Sheet))
	}
	return party, nil
}

// precheckActions validates a representative attack action per hero
// against the rules collaborator before simulation accepts the party
func (o *orchestrator) precheckActions(ctx context.Context, party []*dungeon.CombatEntity) error {
	entities := make(map[string]*dungeon.CombatEntity, len(party))
	for _, member := range party {
		entities[member.ID] = member
	}

	for _, member := range party {
		output, err := o.validator.ValidateAction(ctx, &rules.ValidateActionInput{
			Action:   &rules.Action{Type: "attack", ActorID: member.ID},
			Entities: entities,
		})
		if err != nil {
			return errors.Wrap(err, "action validation failed")
		}
		if !output.Valid {
			return errors.InvalidArgumentf("hero %s failed action validation: %v", member.ID, output.Errors)
		}
	}
	return nil
}

// finishRun writes the terminal state and releases the hero locks in the
// same unit of work
func (o *orchestrator) finishRun(ctx context.Context, record *dungeon.DungeonRun, result *dungeon.RunResult, simErr error) {
	ended := o.clock.Now()
	record.EndedAt = &ended

	if simErr != nil {
		record.Status = dungeon.RunStatusFailed
		record.ErrorMessage = simErr.Error()
		o.appendFailureEvent(ctx, record, ended)
	} else {
		record.Status = dungeon.RunStatusCompleted
		record.Result = result
	}

	if _, err := o.runs.Update(ctx, runrepo.UpdateInput{Run: record}); err != nil {
		slog.Error("Failed to write terminal run state",
			"run_id", record.ID,
			"error", err)
	}

	if _, err := o.admission.ReleaseHeroes(ctx, &admission.ReleaseHeroesInput{
		RunID:  record.ID,
		Heroes: record.Party,
	}); err != nil {
		slog.Error("Failed to release hero locks on terminal transition",
			"run_id", record.ID,
			"error", err)
	}
}

// appendFailureEvent records the terminal narrative event for a failed
// run so pollers see how the story ended, not just a status flip. No
// scheduled delivery time: the failure is visible immediately.
func (o *orchestrator) appendFailureEvent(ctx context.Context, record *dungeon.DungeonRun, ended time.Time) {
	failure := &dungeon.WorldEvent{
		ID:          fmt.Sprintf("evt_%s_failed", record.ID),
		RunID:       record.ID,
		Type:        dungeon.EventRunFailed,
		Payload:     map[string]interface{}{"message": record.ErrorMessage},
		GeneratedAt: ended,
	}
	if _, err := o.events.Append(ctx, event.AppendInput{Events: []*dungeon.WorldEvent{failure}}); err != nil {
		slog.Error("Failed to append failure event",
			"run_id", record.ID,
			"error", err)
	}
}

// countDeltas diffs the post-run counters against the pre-run snapshot
func countDeltas(before, after map[string]int) map[string]int {
	deltas := make(map[string]int)
	for baseType, count := range after {
		if delta := count - before[baseType]; delta != 0 {
			deltas[baseType] = delta
		}
	}
	return deltas
}

// baselineSheet synthesizes a default warrior for heroes with no stored
// sheet
func baselineSheet(ref dungeon.HeroRef) *dungeon.HeroSheet {
	return &dungeon.HeroSheet{
		Ref:              ref,
		Name:             ref.String(),
		Class:            dungeon.ClassWarrior,
		Level:            1,
		Strength:         14,
		Dexterity:        12,
		ProficiencyBonus: 2,
		ArmorClass:       14,
		MaxHP:            20,
	}
}
