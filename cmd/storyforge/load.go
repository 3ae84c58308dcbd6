package main

import (
	"fmt"

	"go.uber.org/zap"

	"storyforge/internal/config"
	"storyforge/internal/content"
	"storyforge/internal/engine"
	"storyforge/internal/logging"
	"storyforge/internal/validate"
)

type project struct {
	cfg     *config.ProjectConfig
	rules   *config.Ruleset
	content *content.Result
	log     *zap.Logger
}

func loadConfig() (*config.ProjectConfig, *zap.Logger, error) {
	cfg, err := config.LoadProjectConfig(projectFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log.With(zap.String("project", cfg.Project)), nil
}

// loadProject reads the config, the ruleset and every content file. Content
// errors are left on the result for the caller to report.
func loadProject() (*project, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	rules := config.DefaultRuleset()
	if cfg.Rules != "" {
		rules, err = config.LoadRuleset(cfg.Resolve(cfg.Rules))
		if err != nil {
			return nil, err
		}
	}

	excludes := make([]string, 0, len(cfg.Content.Exclude))
	for _, path := range cfg.Content.Exclude {
		excludes = append(excludes, cfg.Resolve(path))
	}
	res, err := content.Load(cfg.ContentPaths(), content.Options{
		Start:   cfg.Content.StartScene,
		Exclude: excludes,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("content loaded",
		zap.Int("scenes", res.Graph.Len()),
		zap.Int("variants", len(res.Variants)),
		zap.Int("skipped", res.FilesSkipped),
		zap.String("digest", res.Digest),
	)

	return &project{cfg: cfg, rules: rules, content: res, log: log}, nil
}

// world builds the immutable world a playthrough runs against. Content that
// failed to load or has integrity errors is refused; validate reports it in
// detail.
func (p *project) world() (*engine.World, error) {
	if n := len(p.content.Errors); n > 0 {
		for _, err := range p.content.Errors {
			p.log.Error("content error", zap.Error(err))
		}
		return nil, fmt.Errorf("content has %d load errors, run storyforge validate", n)
	}
	report, err := validate.Run(p.content.Graph, p.content.Variants)
	if err != nil {
		return nil, err
	}
	if n := report.Errors(); n > 0 {
		for _, issue := range report.Issues {
			if issue.Severity == validate.SeverityError {
				p.log.Error("content integrity", zap.String("scene", issue.Scene), zap.String("code", issue.Code), zap.String("message", issue.Message))
			}
		}
		return nil, fmt.Errorf("content has %d integrity errors, run storyforge validate", n)
	}
	rules, err := p.rules.EngineRules()
	if err != nil {
		return nil, err
	}
	sel, err := p.content.Selector()
	if err != nil {
		return nil, err
	}
	return engine.NewWorld(sel, rules, p.content.Digest)
}
