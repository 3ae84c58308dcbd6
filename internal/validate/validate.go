// Package validate checks loaded content for integrity problems before it is
// played.
package validate

import (
	"fmt"
	"sort"

	"storyforge/internal/dice"
	"storyforge/internal/player"
	"storyforge/internal/scene"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeUnknownStart      = "unknown_start_scene"
	codeDanglingTarget    = "dangling_target"
	codeDanglingOutcome   = "dangling_outcome"
	codeDuplicateChoice   = "duplicate_choice"
	codeInvalidEffect     = "invalid_effect"
	codeInvalidCheck      = "invalid_check"
	codeCombatNoEnemies   = "combat_without_enemies"
	codeInvalidEnemy      = "invalid_enemy"
	codeEndingWithChoices = "ending_with_choices"
	codeDeadEnd           = "dead_end"
	codeUnreachable       = "unreachable_scene"
	codeVariantUnknown    = "variant_unknown_scene"
	codeVariantDangling   = "variant_dangling_target"
	codeVariantBadChoice  = "variant_invalid_choice"
	codeOutcomeNoCombat   = "outcome_without_combat"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Scene    string
	FilePath string
}

type Report struct {
	Issues []Issue
}

// Errors counts issues with error severity.
func (r *Report) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Warnings counts issues with warning severity.
func (r *Report) Warnings() int {
	return len(r.Issues) - r.Errors()
}

// Run checks every scene of g and every variant rule.
func Run(g *scene.Graph, variants []scene.VariantRule) (*Report, error) {
	if g == nil {
		return nil, fmt.Errorf("scene graph is required")
	}

	issues := make([]Issue, 0)
	if !g.Has(g.Start()) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeUnknownStart,
			Message:  fmt.Sprintf("start scene %q does not exist", g.Start()),
		})
	}

	extra := make(map[string][]string)
	for _, rule := range variants {
		issues = append(issues, validateVariant(g, rule)...)
		for _, c := range rule.Patch.Choices() {
			extra[rule.Scene] = append(extra[rule.Scene], c.Target)
		}
	}

	for _, id := range g.IDs() {
		s, err := g.Scene(id)
		if err != nil {
			return nil, fmt.Errorf("get scene %s: %w", id, err)
		}
		issues = append(issues, validateChoices(g, s)...)
		issues = append(issues, validateCombat(g, s)...)
		issues = append(issues, validateShape(s, len(extra[id]) > 0)...)
	}

	if g.Has(g.Start()) {
		reachable := g.Reachable(extra)
		for _, id := range g.IDs() {
			if reachable[id] {
				continue
			}
			s, _ := g.Scene(id)
			issues = append(issues, sceneIssue(s, SeverityWarn, codeUnreachable, "scene is unreachable from the start scene"))
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Severity != issues[j].Severity {
			return issues[i].Severity == SeverityError
		}
		return false
	})
	return &Report{Issues: issues}, nil
}

func validateChoices(g *scene.Graph, s scene.Scene) []Issue {
	var issues []Issue
	seen := make(map[string]struct{}, len(s.Choices))
	for _, c := range s.Choices {
		if _, dup := seen[c.ID]; dup {
			issues = append(issues, sceneIssue(s, SeverityError, codeDuplicateChoice, fmt.Sprintf("duplicate choice id: %s", c.ID)))
		}
		seen[c.ID] = struct{}{}
		issues = append(issues, validateChoice(g, s, c, codeDanglingTarget, codeInvalidEffect)...)
	}
	return issues
}

func validateChoice(g *scene.Graph, s scene.Scene, c scene.Choice, danglingCode, effectCode string) []Issue {
	var issues []Issue
	if c.ID == "" {
		issues = append(issues, sceneIssue(s, SeverityError, effectCode, "choice has no id"))
	}
	if !g.Has(c.Target) {
		issues = append(issues, sceneIssue(s, SeverityError, danglingCode, fmt.Sprintf("choice %s targets unknown scene %q", c.ID, c.Target)))
	}
	if err := c.Effects.Validate(); err != nil {
		issues = append(issues, sceneIssue(s, SeverityError, effectCode, fmt.Sprintf("choice %s: %v", c.ID, err)))
	}
	if c.Check != nil {
		if _, err := dice.ParseDie(c.Check.Die); err != nil {
			issues = append(issues, sceneIssue(s, SeverityError, codeInvalidCheck, fmt.Sprintf("choice %s: %v", c.ID, err)))
		}
		if c.Check.Skill != "" && !player.IsAttribute(c.Check.Skill) {
			issues = append(issues, sceneIssue(s, SeverityError, codeInvalidCheck, fmt.Sprintf("choice %s checks unknown attribute %q", c.ID, c.Check.Skill)))
		}
	}
	if c.Failure != nil {
		if c.Check == nil {
			issues = append(issues, sceneIssue(s, SeverityWarn, codeInvalidCheck, fmt.Sprintf("choice %s has a failure branch but no check", c.ID)))
		}
		if c.Failure.Target != "" && !g.Has(c.Failure.Target) {
			issues = append(issues, sceneIssue(s, SeverityError, danglingCode, fmt.Sprintf("choice %s failure targets unknown scene %q", c.ID, c.Failure.Target)))
		}
		if err := c.Failure.Effects.Validate(); err != nil {
			issues = append(issues, sceneIssue(s, SeverityError, effectCode, fmt.Sprintf("choice %s failure: %v", c.ID, err)))
		}
	}
	return issues
}

func validateCombat(g *scene.Graph, s scene.Scene) []Issue {
	var issues []Issue
	outcomes := []struct{ name, target string }{
		{"victory", s.Outcomes.Victory},
		{"defeat", s.Outcomes.Defeat},
		{"flee", s.Outcomes.Flee},
	}
	if !s.Combat {
		for _, o := range outcomes {
			if o.target != "" {
				issues = append(issues, sceneIssue(s, SeverityWarn, codeOutcomeNoCombat, fmt.Sprintf("%s outcome on a scene without combat", o.name)))
			}
		}
		return issues
	}

	if len(s.Enemies) == 0 {
		issues = append(issues, sceneIssue(s, SeverityError, codeCombatNoEnemies, "combat scene has no enemies"))
	}
	for i, e := range s.Enemies {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("enemy %d", i+1)
		}
		if e.HP <= 0 {
			issues = append(issues, sceneIssue(s, SeverityError, codeInvalidEnemy, fmt.Sprintf("%s must have positive hp", name)))
		}
		if e.Level < 0 || e.DamageMin < 0 || (e.DamageMax != 0 && e.DamageMax < e.DamageMin) {
			issues = append(issues, sceneIssue(s, SeverityError, codeInvalidEnemy, fmt.Sprintf("%s has invalid level or damage range", name)))
		}
	}
	for _, o := range outcomes {
		if o.target != "" && !g.Has(o.target) {
			issues = append(issues, sceneIssue(s, SeverityError, codeDanglingOutcome, fmt.Sprintf("%s outcome targets unknown scene %q", o.name, o.target)))
		}
	}
	return issues
}

func validateShape(s scene.Scene, hasVariantChoices bool) []Issue {
	if s.Ending && len(s.Choices) > 0 {
		return []Issue{sceneIssue(s, SeverityWarn, codeEndingWithChoices, "ending scene has choices that can never be taken")}
	}
	if !s.Ending && !s.Combat && len(s.Choices) == 0 && !hasVariantChoices {
		return []Issue{sceneIssue(s, SeverityWarn, codeDeadEnd, "scene has no choices and is not marked as an ending")}
	}
	return nil
}

func validateVariant(g *scene.Graph, rule scene.VariantRule) []Issue {
	if !g.Has(rule.Scene) {
		return []Issue{{
			Severity: SeverityError,
			Code:     codeVariantUnknown,
			Message:  fmt.Sprintf("variant %s targets unknown scene %q", rule.ID, rule.Scene),
			Scene:    rule.Scene,
			FilePath: rule.SourceFile,
		}}
	}
	host := scene.Scene{ID: rule.Scene, SourceFile: rule.SourceFile}
	var issues []Issue
	for _, c := range rule.Patch.Choices() {
		for _, issue := range validateChoice(g, host, c, codeVariantDangling, codeVariantBadChoice) {
			issue.Message = fmt.Sprintf("variant %s: %s", rule.ID, issue.Message)
			issues = append(issues, issue)
		}
	}
	return issues
}

func sceneIssue(s scene.Scene, severity Severity, code, message string) Issue {
	return Issue{
		Severity: severity,
		Code:     code,
		Message:  message,
		Scene:    s.ID,
		FilePath: s.SourceFile,
	}
}
