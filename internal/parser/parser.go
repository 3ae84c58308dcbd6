package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document types the content loader understands.
const (
	TypeScene   = "scene"
	TypeVariant = "variant"
)

type Document struct {
	Frontmatter map[string]any
	ID          string
	Type        string
	Tags        []string
	Body        string
	SourceFile  string

	raw []byte
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingID     = errors.New("frontmatter missing required 'id' field")
	ErrMissingType   = errors.New("frontmatter missing required 'type' field")
	ErrUnknownType   = errors.New("frontmatter 'type' must be scene or variant")
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	trimmed = bytes.ReplaceAll(trimmed, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := append([]byte("\n"), trimmed[len("---\n"):]...)
	end := bytes.Index(rest, []byte("\n---"))
	if end == -1 {
		return nil, ErrNoFrontmatter
	}

	yamlBytes := rest[1 : end+1]
	body := rest[end+len("\n---"):]
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = nil
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	id, ok := frontmatter["id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}

	docType, ok := frontmatter["type"].(string)
	if !ok || strings.TrimSpace(docType) == "" {
		return nil, ErrMissingType
	}
	docType = strings.ToLower(strings.TrimSpace(docType))
	if docType != TypeScene && docType != TypeVariant {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, docType)
	}

	tags, err := parseTags(frontmatter["tags"])
	if err != nil {
		return nil, err
	}

	return &Document{
		Frontmatter: frontmatter,
		ID:          strings.TrimSpace(id),
		Type:        docType,
		Tags:        tags,
		Body:        strings.TrimSpace(string(body)),
		raw:         yamlBytes,
	}, nil
}

// Decode decodes the frontmatter into v, rejecting keys v does not declare.
func (d *Document) Decode(v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(d.raw))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding %s frontmatter: %w", d.Type, err)
	}
	return nil
}

func parseTags(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tags must be strings")
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			tags = append(tags, s)
		}
		if len(tags) == 0 {
			return nil, nil
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("tags must be string or list of strings")
	}
}
