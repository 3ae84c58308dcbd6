package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"storyforge/internal/combat"
	"storyforge/internal/dice"
	"storyforge/internal/engine"
	"storyforge/internal/store"
)

type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"session id returned by new_game"`
}

type NewGameInput struct {
	Seed *uint64 `json:"seed,omitempty" jsonschema:"optional dice seed for a reproducible run"`
}

type ChooseInput struct {
	SessionID string `json:"session_id" jsonschema:"session id returned by new_game"`
	SceneID   string `json:"scene_id" jsonschema:"scene the choice belongs to"`
	ChoiceID  string `json:"choice_id" jsonschema:"choice to take"`
	Rolls     []int  `json:"rolls,omitempty" jsonschema:"dice already rolled for the choice's check; omit to let the engine roll"`
}

type RollCheckInput struct {
	SessionID string `json:"session_id" jsonschema:"session id returned by new_game"`
	SceneID   string `json:"scene_id" jsonschema:"scene the choice belongs to"`
	ChoiceID  string `json:"choice_id" jsonschema:"choice whose check to roll"`
}

type CombatActionInput struct {
	SessionID string `json:"session_id" jsonschema:"session id returned by new_game"`
	Skill     string `json:"skill,omitempty" jsonschema:"skill to use; empty or attack for a basic attack"`
	Target    string `json:"target,omitempty" jsonschema:"enemy id; defaults to the first living enemy"`
}

type SpendAttributeInput struct {
	SessionID string `json:"session_id" jsonschema:"session id returned by new_game"`
	Attribute string `json:"attribute" jsonschema:"strength, dexterity, constitution, intelligence, wisdom or charisma"`
	Points    int    `json:"points" jsonschema:"attribute points to spend"`
}

type LearnSkillInput struct {
	SessionID string `json:"session_id" jsonschema:"session id returned by new_game"`
	Skill     string `json:"skill" jsonschema:"skill name from the ruleset"`
}

type SaveGameInput struct {
	SessionID string `json:"session_id" jsonschema:"session id returned by new_game"`
	Slot      string `json:"slot" jsonschema:"save slot name"`
}

type LoadGameInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"session to load into; omit to open a new session"`
	Slot      string `json:"slot" jsonschema:"save slot name"`
}

type ListSavesInput struct{}

type GameOutput struct {
	SessionID string      `json:"session_id"`
	Scene     SceneOutput `json:"scene"`
	Warning   string      `json:"warning,omitempty"`
}

type SaveOutput struct {
	Slot    string    `json:"slot"`
	SavedAt time.Time `json:"saved_at"`
}

type ListSavesOutput struct {
	Saves []SaveSummaryOutput `json:"saves"`
}

type EndGameOutput struct {
	Closed bool `json:"closed"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "new_game",
		Description: "Start a new playthrough and return its session id and opening scene",
	}, s.handleNewGame)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_scene",
		Description: "Return the scene the player is in, with the choices currently available",
	}, s.handleGetScene)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "choose",
		Description: "Take a choice in the current scene",
	}, s.handleChoose)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "roll_check",
		Description: "Roll the skill check that gates a choice without taking it",
	}, s.handleRollCheck)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "combat_status",
		Description: "Return the running combat and its event log",
	}, s.handleCombatStatus)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "combat_action",
		Description: "Attack or use a skill, then let every enemy act",
	}, s.handleCombatAction)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "flee",
		Description: "Run from the current combat",
	}, s.handleFlee)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_player",
		Description: "Return the player's stats, inventory, skills and relationships",
	}, s.handleGetPlayer)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "spend_attribute",
		Description: "Spend unspent attribute points on an attribute",
	}, s.handleSpendAttribute)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "learn_skill",
		Description: "Spend skill points to learn a skill",
	}, s.handleLearnSkill)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "save_game",
		Description: "Save the playthrough to a named slot",
	}, s.handleSaveGame)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "load_game",
		Description: "Load a saved slot into a session",
	}, s.handleLoadGame)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_saves",
		Description: "List saved slots, newest first",
	}, s.handleListSaves)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "end_game",
		Description: "Close a session",
	}, s.handleEndGame)
}

func (s *Server) handleNewGame(ctx context.Context, req *sdk.CallToolRequest, input NewGameInput) (*sdk.CallToolResult, GameOutput, error) {
	id, sess, err := s.open(input.Seed)
	if err != nil {
		return nil, GameOutput{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	current, err := sess.pt.Current()
	if err != nil {
		return nil, GameOutput{}, err
	}
	return nil, GameOutput{SessionID: id, Scene: sceneOutput(current, sess.pt)}, nil
}

func (s *Server) handleGetScene(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, SceneOutput, error) {
	var out SceneOutput
	err := s.with(input.SessionID, func(pt *engine.Playthrough) error {
		current, err := pt.Current()
		if err != nil {
			return err
		}
		out = sceneOutput(current, pt)
		return nil
	})
	return nil, out, err
}

func (s *Server) handleChoose(ctx context.Context, req *sdk.CallToolRequest, input ChooseInput) (*sdk.CallToolResult, OutcomeOutput, error) {
	if input.SceneID == "" || input.ChoiceID == "" {
		return nil, OutcomeOutput{}, fmt.Errorf("scene_id and choice_id are required")
	}
	var out OutcomeOutput
	err := s.with(input.SessionID, func(pt *engine.Playthrough) error {
		var (
			outcome engine.Outcome
			err     error
		)
		if len(input.Rolls) > 0 {
			outcome, err = pt.Choose(engine.Submission{
				SceneID:  input.SceneID,
				ChoiceID: input.ChoiceID,
				Check:    &dice.Result{Rolls: input.Rolls},
			})
		} else {
			outcome, err = pt.Advance(input.SceneID, input.ChoiceID)
		}
		if err != nil {
			return err
		}
		out = outcomeOutput(outcome, pt)
		return nil
	})
	return nil, out, err
}

func (s *Server) handleRollCheck(ctx context.Context, req *sdk.CallToolRequest, input RollCheckInput) (*sdk.CallToolResult, CheckOutput, error) {
	var out CheckOutput
	err := s.with(input.SessionID, func(pt *engine.Playthrough) error {
		result, err := pt.RollCheck(input.SceneID, input.ChoiceID)
		if err != nil {
			return err
		}
		out = checkOutput(result)
		return nil
	})
	return nil, out, err
}

func (s *Server) handleCombatStatus(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, CombatStatusOutput, error) {
	var out CombatStatusOutput
	err := s.with(input.SessionID, func(pt *engine.Playthrough) error {
		view, ok := pt.Combat()
		if !ok {
			return nil
		}
		out = CombatStatusOutput{Active: true, Combat: combatOutput(view), Log: eventOutputs(pt.CombatLog())}
		return nil
	})
	return nil, out, err
}

func (s *Server) handleCombatAction(ctx context.Context, req *sdk.CallToolRequest, input CombatActionInput) (*sdk.CallToolResult, OutcomeOutput, error) {
	var out OutcomeOutput
	err := s.with(input.SessionID, func(pt *engine.Playthrough) error {
		outcome, err := pt.CombatAction(combat.Action{Skill: input.Skill, Target: input.Target})
		if err != nil {
			return err
		}
		out = outcomeOutput(outcome, pt)
		return nil
	})
	return nil, out, err
}

func (s *Server) handleFlee(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, OutcomeOutput, error) {
	var out OutcomeOutput
	err := s.with(input.SessionID, func(pt *engine.Playthrough) error {
		outcome, err := pt.Flee()
		if err != nil {
			return err
		}
		out = outcomeOutput(outcome, pt)
		return nil
	})
	return nil, out, err
}

func (s *Server) handleGetPlayer(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, PlayerOutput, error) {
	var out PlayerOutput
	err := s.with(input.SessionID, func(pt *engine.Playthrough) error {
		out = playerOutput(pt.State())
		return nil
	})
	return nil, out, err
}

func (s *Server) handleSpendAttribute(ctx context.Context, req *sdk.CallToolRequest, input SpendAttributeInput) (*sdk.CallToolResult, PlayerOutput, error) {
	var out PlayerOutput
	err := s.with(input.SessionID, func(pt *engine.Playthrough) error {
		st, err := pt.SpendAttribute(input.Attribute, input.Points)
		if err != nil {
			return err
		}
		out = playerOutput(st)
		return nil
	})
	return nil, out, err
}

func (s *Server) handleLearnSkill(ctx context.Context, req *sdk.CallToolRequest, input LearnSkillInput) (*sdk.CallToolResult, PlayerOutput, error) {
	var out PlayerOutput
	err := s.with(input.SessionID, func(pt *engine.Playthrough) error {
		st, err := pt.LearnSkill(input.Skill)
		if err != nil {
			return err
		}
		out = playerOutput(st)
		return nil
	})
	return nil, out, err
}

func (s *Server) handleSaveGame(ctx context.Context, req *sdk.CallToolRequest, input SaveGameInput) (*sdk.CallToolResult, SaveOutput, error) {
	if s.db == nil {
		return nil, SaveOutput{}, fmt.Errorf("no save store configured")
	}
	var out SaveOutput
	err := s.with(input.SessionID, func(pt *engine.Playthrough) error {
		snap, err := pt.Snapshot(s.now())
		if err != nil {
			return err
		}
		rec, err := store.NewRecord(input.Slot, pt.ID(), snap)
		if err != nil {
			return err
		}
		if err := s.db.SaveSnapshot(ctx, input.Slot, rec); err != nil {
			return err
		}
		s.log.Info("game saved", zap.String("session", pt.ID()), zap.String("slot", input.Slot))
		out = SaveOutput{Slot: input.Slot, SavedAt: rec.SavedAt}
		return nil
	})
	return nil, out, err
}

func (s *Server) handleLoadGame(ctx context.Context, req *sdk.CallToolRequest, input LoadGameInput) (*sdk.CallToolResult, GameOutput, error) {
	if s.db == nil {
		return nil, GameOutput{}, fmt.Errorf("no save store configured")
	}
	rec, err := s.db.LoadSnapshot(ctx, input.Slot)
	if errors.Is(err, store.ErrNotFound) {
		return nil, GameOutput{}, fmt.Errorf("no save in slot %q", input.Slot)
	}
	if err != nil {
		return nil, GameOutput{}, err
	}
	snap, err := rec.Snapshot()
	if err != nil {
		return nil, GameOutput{}, err
	}

	id := input.SessionID
	opened := id == ""
	var sess *session
	if opened {
		id, sess, err = s.open(nil)
	} else {
		sess, err = s.lookup(id)
	}
	if err != nil {
		return nil, GameOutput{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.pt.Restore(snap); err != nil {
		if opened {
			s.close(id)
		}
		return nil, GameOutput{}, err
	}
	current, err := sess.pt.Current()
	if err != nil {
		return nil, GameOutput{}, err
	}
	out := GameOutput{SessionID: id, Scene: sceneOutput(current, sess.pt)}
	if snap.ContentDigest != "" && snap.ContentDigest != s.world.Digest() {
		out.Warning = "save was made against different content; some scenes may have changed"
	}
	return nil, out, nil
}

func (s *Server) handleListSaves(ctx context.Context, req *sdk.CallToolRequest, input ListSavesInput) (*sdk.CallToolResult, ListSavesOutput, error) {
	if s.db == nil {
		return nil, ListSavesOutput{}, fmt.Errorf("no save store configured")
	}
	saves, err := s.db.ListSaves(ctx)
	if err != nil {
		return nil, ListSavesOutput{}, err
	}
	output := make([]SaveSummaryOutput, 0, len(saves))
	for _, save := range saves {
		output = append(output, SaveSummaryOutput{
			Slot:     save.Slot,
			Location: save.Location,
			Level:    save.Level,
			SavedAt:  save.SavedAt,
		})
	}
	return nil, ListSavesOutput{Saves: output}, nil
}

func (s *Server) handleEndGame(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, EndGameOutput, error) {
	if input.SessionID == "" {
		return nil, EndGameOutput{}, fmt.Errorf("session_id is required")
	}
	return nil, EndGameOutput{Closed: s.close(input.SessionID)}, nil
}
