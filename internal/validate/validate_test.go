package validate

import (
	"testing"

	"storyforge/internal/effect"
	"storyforge/internal/scene"
)

func buildGraph(t *testing.T, start string, scenes ...scene.Scene) *scene.Graph {
	t.Helper()
	g, err := scene.NewGraph(start, scenes)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	return g
}

func healthyScenes() []scene.Scene {
	return []scene.Scene{
		{ID: "camp", SourceFile: "story/camp.md", Choices: []scene.Choice{
			{ID: "climb", Target: "ledge", Check: &scene.Check{Die: "d20", Target: 15, Skill: "dexterity"},
				Failure: &scene.Failure{Effects: effect.Effects{Health: -3}}},
			{ID: "fight", Target: "den"},
		}},
		{ID: "ledge", Ending: true},
		{ID: "den", Combat: true, Enemies: []scene.Enemy{{Name: "Wolf", Level: 1, HP: 4}},
			Outcomes: scene.Outcomes{Victory: "ledge", Flee: "camp"}},
	}
}

func TestRun_CleanContent(t *testing.T) {
	report, err := Run(buildGraph(t, "camp", healthyScenes()...), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %#v", report.Issues)
	}
}

func TestRun_NilGraph(t *testing.T) {
	if _, err := Run(nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRun_UnknownStart(t *testing.T) {
	report, err := Run(buildGraph(t, "nowhere", healthyScenes()...), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasIssueCode(report.Issues, codeUnknownStart) {
		t.Fatalf("expected unknown start issue")
	}
	if hasIssueCode(report.Issues, codeUnreachable) {
		t.Fatalf("reachability should not be reported without a start scene")
	}
}

func TestRun_DanglingTargets(t *testing.T) {
	scenes := healthyScenes()
	scenes[0].Choices = append(scenes[0].Choices, scene.Choice{ID: "swim", Target: "lake"})
	scenes[2].Outcomes.Defeat = "graveyard"

	report, err := Run(buildGraph(t, "camp", scenes...), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasIssueCode(report.Issues, codeDanglingTarget) {
		t.Fatalf("expected dangling target issue")
	}
	if !hasIssueCode(report.Issues, codeDanglingOutcome) {
		t.Fatalf("expected dangling outcome issue")
	}
	for _, issue := range report.Issues {
		if issue.Code == codeDanglingTarget && issue.FilePath != "story/camp.md" {
			t.Fatalf("expected file path on issue, got %q", issue.FilePath)
		}
	}
	if report.Errors() != 2 {
		t.Fatalf("expected 2 errors, got %d", report.Errors())
	}
}

func TestRun_DuplicateChoice(t *testing.T) {
	scenes := healthyScenes()
	scenes[0].Choices = append(scenes[0].Choices, scene.Choice{ID: "fight", Target: "den"})

	report, err := Run(buildGraph(t, "camp", scenes...), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasIssueCode(report.Issues, codeDuplicateChoice) {
		t.Fatalf("expected duplicate choice issue")
	}
}

func TestRun_InvalidEffectsAndChecks(t *testing.T) {
	scenes := healthyScenes()
	scenes[0].Choices[1].Effects = effect.Effects{Flags: map[string]any{"bag": []string{"x"}}}
	scenes[0].Choices[0].Check = &scene.Check{Die: "d7x", Target: 10, Skill: "luck"}

	report, err := Run(buildGraph(t, "camp", scenes...), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasIssueCode(report.Issues, codeInvalidEffect) {
		t.Fatalf("expected invalid effect issue")
	}
	if countIssueCode(report.Issues, codeInvalidCheck) != 2 {
		t.Fatalf("expected bad die and bad attribute issues, got %#v", report.Issues)
	}
}

func TestRun_CombatWithoutEnemies(t *testing.T) {
	scenes := healthyScenes()
	scenes[2].Enemies = nil

	report, err := Run(buildGraph(t, "camp", scenes...), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasIssueCode(report.Issues, codeCombatNoEnemies) {
		t.Fatalf("expected combat without enemies issue")
	}
}

func TestRun_InvalidEnemy(t *testing.T) {
	scenes := healthyScenes()
	scenes[2].Enemies = append(scenes[2].Enemies, scene.Enemy{Name: "Ghost", HP: 0}, scene.Enemy{Name: "Bat", HP: 3, DamageMin: 4, DamageMax: 2})

	report, err := Run(buildGraph(t, "camp", scenes...), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if countIssueCode(report.Issues, codeInvalidEnemy) != 2 {
		t.Fatalf("expected 2 invalid enemy issues, got %#v", report.Issues)
	}
}

func TestRun_ShapeWarnings(t *testing.T) {
	scenes := healthyScenes()
	scenes[1].Choices = []scene.Choice{{ID: "back", Target: "camp"}}
	scenes = append(scenes, scene.Scene{ID: "island"})
	scenes[0].Choices = append(scenes[0].Choices, scene.Choice{ID: "sail", Target: "island"})

	report, err := Run(buildGraph(t, "camp", scenes...), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasIssueCode(report.Issues, codeEndingWithChoices) {
		t.Fatalf("expected ending with choices warning")
	}
	if !hasIssueCode(report.Issues, codeDeadEnd) {
		t.Fatalf("expected dead end warning")
	}
	if report.Errors() != 0 || report.Warnings() != 2 {
		t.Fatalf("expected only warnings, got %#v", report.Issues)
	}
}

func TestRun_Unreachable(t *testing.T) {
	scenes := append(healthyScenes(), scene.Scene{ID: "attic", Ending: true})

	report, err := Run(buildGraph(t, "camp", scenes...), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasIssueCode(report.Issues, codeUnreachable) {
		t.Fatalf("expected unreachable warning")
	}

	rope := scene.VariantRule{ID: "rope", Scene: "camp", Patch: scene.Patch{
		AddChoices: []scene.Choice{{ID: "rope", Target: "attic"}},
	}}
	report, err = Run(buildGraph(t, "camp", scenes...), []scene.VariantRule{rope})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if hasIssueCode(report.Issues, codeUnreachable) {
		t.Fatalf("variant choices should make the attic reachable")
	}
}

func TestRun_VariantProblems(t *testing.T) {
	rules := []scene.VariantRule{
		{ID: "lost", Scene: "nowhere", SourceFile: "story/lost.md"},
		{ID: "bridge", Scene: "camp", Patch: scene.Patch{
			AddChoices: []scene.Choice{{ID: "bridge", Target: "far-shore"}},
		}},
		{ID: "bad", Scene: "camp", Patch: scene.Patch{
			ReplaceChoices: []scene.Choice{{ID: "fight", Target: "den", Effects: effect.Effects{Experience: -5}}},
		}},
	}

	report, err := Run(buildGraph(t, "camp", healthyScenes()...), rules)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, code := range []string{codeVariantUnknown, codeVariantDangling, codeVariantBadChoice} {
		if !hasIssueCode(report.Issues, code) {
			t.Fatalf("expected %s issue, got %#v", code, report.Issues)
		}
	}
}

func TestRun_ErrorsSortFirst(t *testing.T) {
	scenes := healthyScenes()
	scenes[1].Choices = []scene.Choice{{ID: "back", Target: "camp"}}
	scenes[0].Choices = append(scenes[0].Choices, scene.Choice{ID: "swim", Target: "lake"})

	report, err := Run(buildGraph(t, "camp", scenes...), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Issues) < 2 || report.Issues[0].Severity != SeverityError {
		t.Fatalf("expected errors before warnings, got %#v", report.Issues)
	}
}

func hasIssueCode(issues []Issue, code string) bool {
	return countIssueCode(issues, code) > 0
}

func countIssueCode(issues []Issue, code string) int {
	n := 0
	for _, issue := range issues {
		if issue.Code == code {
			n++
		}
	}
	return n
}
