// Package catalog holds the static model catalog used to validate submissions
// before any backend round trip and to seed generation defaults.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"genstudio/internal/domain"
)

// Model describes one entry of the catalog.
type Model struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Type            string  `yaml:"type"` // image | video | video-i2v | upscale
	DefaultSteps    int     `yaml:"default_steps"`
	DefaultGuidance float64 `yaml:"default_guidance"`
	SizeGB          float64 `yaml:"size_gb"`
}

// Catalog is an immutable lookup over the configured models.
type Catalog struct {
	models []Model
	byID   map[string]Model
}

type catalogFile struct {
	Models []Model `yaml:"models"`
}

// Load reads a YAML catalog file. An empty path yields the built-in defaults.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return New(defaultModels), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse model catalog: %w", err)
	}
	if len(f.Models) == 0 {
		return nil, fmt.Errorf("model catalog %s lists no models", path)
	}
	return New(f.Models), nil
}

// New builds a catalog from an explicit model list.
func New(models []Model) *Catalog {
	byID := make(map[string]Model, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	return &Catalog{models: models, byID: byID}
}

// Lookup returns the model by id.
func (c *Catalog) Lookup(id string) (Model, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// Models returns the full list in catalog order.
func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// ValidateFor checks that the model exists and suits the requested job kind.
func (c *Catalog) ValidateFor(kind domain.JobKind, id string) (Model, error) {
	m, ok := c.byID[id]
	if !ok {
		return Model{}, fmt.Errorf("%w: %s", domain.ErrUnknownModel, id)
	}
	want := ""
	switch kind {
	case domain.KindImage:
		want = "image"
	case domain.KindVideo:
		want = "video"
	case domain.KindI2V:
		want = "video-i2v"
	case domain.KindUpscale:
		want = "upscale"
	default:
		return m, nil
	}
	if m.Type != want {
		return Model{}, fmt.Errorf("%w: model %s is %s, not %s", domain.ErrInvalidInput, id, m.Type, want)
	}
	return m, nil
}

// Steps resolves the step count for a request, falling back to the model default.
func (m Model) Steps(requested int) int {
	if requested > 0 {
		return requested
	}
	if m.DefaultSteps > 0 {
		return m.DefaultSteps
	}
	return 30
}

var defaultModels = []Model{
	{ID: "flux-schnell", Name: "FLUX.1 Schnell", Type: "image", DefaultSteps: 4, DefaultGuidance: 0, SizeGB: 24},
	{ID: "flux-dev", Name: "FLUX.1 Dev", Type: "image", DefaultSteps: 30, DefaultGuidance: 3.5, SizeGB: 24},
	{ID: "sdxl-turbo", Name: "SDXL Turbo", Type: "image", DefaultSteps: 1, DefaultGuidance: 0, SizeGB: 7},
	{ID: "sdxl-base", Name: "SDXL Base", Type: "image", DefaultSteps: 30, DefaultGuidance: 7.5, SizeGB: 7},
	{ID: "dreamshaper-xl", Name: "DreamShaper XL", Type: "image", DefaultSteps: 8, DefaultGuidance: 2, SizeGB: 7},
	{ID: "cogvideox-5b", Name: "CogVideoX 5B", Type: "video", DefaultSteps: 50, DefaultGuidance: 6, SizeGB: 12},
	{ID: "ltx-video", Name: "LTX Video", Type: "video", DefaultSteps: 30, DefaultGuidance: 3, SizeGB: 10},
	{ID: "svd-xt", Name: "Stable Video Diffusion XT", Type: "video-i2v", DefaultSteps: 25, DefaultGuidance: 2.5, SizeGB: 9},
	{ID: "wan-i2v", Name: "Wan I2V", Type: "video-i2v", DefaultSteps: 30, DefaultGuidance: 5, SizeGB: 16},
	{ID: "realesrgan-x4", Name: "Real-ESRGAN x4", Type: "upscale", DefaultSteps: 0, DefaultGuidance: 0, SizeGB: 1},
}
