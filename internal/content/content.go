// Package content loads scene and variant documents from markdown files into
// a scene graph.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"storyforge/internal/parser"
	"storyforge/internal/scene"
)

type Result struct {
	Graph    *scene.Graph
	Variants []scene.VariantRule
	// Hashes maps each loaded file to its sha256.
	Hashes map[string]string
	// Tags maps scene ids to their frontmatter tags.
	Tags         map[string][]string
	Digest       string
	FilesSkipped int
	Errors       []error
}

type Options struct {
	Start   string
	Exclude []string
}

type sceneFile struct {
	scene.Scene `yaml:",inline"`
	Type        string   `yaml:"type"`
	Tags        []string `yaml:"tags"`
}

type variantFile struct {
	ID    string          `yaml:"id"`
	Type  string          `yaml:"type"`
	Tags  []string        `yaml:"tags"`
	Scene string          `yaml:"scene"`
	When  scene.Condition `yaml:"when"`
	Patch scene.Patch     `yaml:"patch"`
}

// Load walks roots for markdown files and builds the scene graph. Files
// without frontmatter are skipped; every other per-file problem is collected
// in Result.Errors so one bad file does not hide the rest.
func Load(roots []string, options Options) (*Result, error) {
	files, err := walkMarkdownFiles(roots, options.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking content: %w", err)
	}

	result := &Result{
		Hashes: make(map[string]string, len(files)),
		Tags:   make(map[string][]string),
	}
	var scenes []scene.Scene
	seen := make(map[string]string)
	variantIDs := make(map[string]string)

	for _, path := range files {
		hash, err := computeHash(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
			continue
		}

		doc, err := parser.ParseFile(path)
		if err != nil {
			if errors.Is(err, parser.ErrNoFrontmatter) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}
		result.Hashes[path] = hash

		switch doc.Type {
		case parser.TypeScene:
			var f sceneFile
			if err := doc.Decode(&f); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
				continue
			}
			if prev, exists := seen[f.ID]; exists {
				result.Errors = append(result.Errors, fmt.Errorf("%s: duplicate scene id %s (first defined in %s)", path, f.ID, prev))
				continue
			}
			seen[f.ID] = path
			if len(f.Tags) > 0 {
				result.Tags[f.ID] = f.Tags
			}
			s := f.Scene
			s.Description = doc.Body
			s.SourceFile = path
			scenes = append(scenes, s)
		case parser.TypeVariant:
			var f variantFile
			if err := doc.Decode(&f); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
				continue
			}
			if prev, exists := variantIDs[f.ID]; exists {
				result.Errors = append(result.Errors, fmt.Errorf("%s: duplicate variant id %s (first defined in %s)", path, f.ID, prev))
				continue
			}
			variantIDs[f.ID] = path
			if strings.TrimSpace(f.Scene) == "" {
				result.Errors = append(result.Errors, fmt.Errorf("%s: variant %s names no scene", path, f.ID))
				continue
			}
			rule := scene.VariantRule{ID: f.ID, Scene: f.Scene, When: f.When, Patch: f.Patch, SourceFile: path}
			if doc.Body != "" && rule.Patch.AppendDescription == "" && rule.Patch.Description == "" {
				rule.Patch.AppendDescription = doc.Body
			}
			result.Variants = append(result.Variants, rule)
		}
	}

	start := options.Start
	if start == "" && len(scenes) > 0 {
		start = scenes[0].ID
	}
	g, err := scene.NewGraph(start, scenes)
	if err != nil {
		return nil, fmt.Errorf("building scene graph: %w", err)
	}
	result.Graph = g
	result.Digest = digest(roots, result.Hashes)
	return result, nil
}

// Selector indexes the loaded variant rules against the graph.
func (r *Result) Selector() (*scene.Selector, error) {
	return scene.NewSelector(r.Graph, r.Variants)
}

// SourceFiles lists the loaded files in walk order.
func (r *Result) SourceFiles() []string {
	out := make([]string, 0, len(r.Hashes))
	for path := range r.Hashes {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// digest folds every file hash, keyed by its path relative to the content
// root, into one value that changes whenever any loaded file does.
func digest(roots []string, hashes map[string]string) string {
	keys := make([]string, 0, len(hashes))
	rel := make(map[string]string, len(hashes))
	for path, hash := range hashes {
		key := relativeTo(roots, path)
		keys = append(keys, key)
		rel[key] = hash
	}
	sort.Strings(keys)
	h := sha256.New()
	for _, key := range keys {
		fmt.Fprintf(h, "%s:%s\n", key, rel[key])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func relativeTo(roots []string, path string) string {
	for _, root := range roots {
		if r, err := filepath.Rel(filepath.Clean(root), path); err == nil && !strings.HasPrefix(r, "..") {
			return filepath.ToSlash(r)
		}
	}
	return filepath.ToSlash(path)
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(root, path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			if isExcluded(root, path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// isExcluded matches path against excludes given either relative to the
// content root or as full paths.
func isExcluded(root, path string, excludes []string) bool {
	clean := filepath.Clean(path)
	rel, _ := filepath.Rel(root, clean)
	for _, exclude := range excludes {
		for _, candidate := range []string{clean, rel} {
			if exclude == candidate || strings.HasPrefix(candidate, exclude+string(os.PathSeparator)) {
				return true
			}
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
