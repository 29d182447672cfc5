// Package catalog holds the static training modules served to the viewer.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed modules.yaml
var modulesFS embed.FS

type Step struct {
	Instruction       string `yaml:"instruction" json:"instruction"`
	Solution          string `yaml:"solution" json:"solution"`
	ValidationCommand string `yaml:"validationCommand" json:"validationCommand"`
}

type Exercise struct {
	ID                string   `yaml:"id" json:"id"`
	Question          string   `yaml:"question" json:"question"`
	Description       string   `yaml:"description" json:"description"`
	Hints             []string `yaml:"hints" json:"hints"`
	Solution          string   `yaml:"solution" json:"solution"`
	ValidationCommand string   `yaml:"validationCommand" json:"validationCommand"`
	StepByStep        bool     `yaml:"stepByStep" json:"isStepByStep"`
	Steps             []Step   `yaml:"steps" json:"steps,omitempty"`
}

// IsStepByStep reports whether answers are checked one step at a time.
func (e Exercise) IsStepByStep() bool {
	return e.StepByStep && len(e.Steps) > 0
}

type Module struct {
	ID            string     `yaml:"id" json:"id"`
	Title         string     `yaml:"title" json:"title"`
	Description   string     `yaml:"description" json:"description"`
	Content       string     `yaml:"content" json:"content"`
	Difficulty    string     `yaml:"difficulty" json:"difficulty"`
	EstimatedTime string     `yaml:"estimatedTime" json:"estimatedTime"`
	Prerequisites []string   `yaml:"prerequisites" json:"prerequisites"`
	Exercises     []Exercise `yaml:"exercises" json:"exercises"`
}

// Exercise returns the exercise with id, if any.
func (m *Module) Exercise(id string) (*Exercise, bool) {
	for i := range m.Exercises {
		if m.Exercises[i].ID == id {
			return &m.Exercises[i], true
		}
	}
	return nil, false
}

type yamlCatalog struct {
	Modules []Module `yaml:"modules"`
}

// Catalog is an ordered, read-only set of modules.
type Catalog struct {
	modules []Module
	index   map[string]int
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	data, err := modulesFS.ReadFile("modules.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	return Parse(data)
}

// Load reads a catalog file, falling back to the bundled one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and checks a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var raw yamlCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(raw.Modules) == 0 {
		return nil, errors.New("catalog has no modules")
	}

	c := &Catalog{modules: raw.Modules, index: make(map[string]int, len(raw.Modules))}
	for i, m := range raw.Modules {
		if m.ID == "" {
			return nil, fmt.Errorf("module #%d has no id", i)
		}
		if _, dup := c.index[m.ID]; dup {
			return nil, fmt.Errorf("duplicate module id %q", m.ID)
		}
		c.index[m.ID] = i

		seen := map[string]bool{}
		for _, ex := range m.Exercises {
			if ex.ID == "" {
				return nil, fmt.Errorf("module %q: exercise without id", m.ID)
			}
			if seen[ex.ID] {
				return nil, fmt.Errorf("module %q: duplicate exercise id %q", m.ID, ex.ID)
			}
			seen[ex.ID] = true
			if ex.StepByStep && len(ex.Steps) == 0 {
				return nil, fmt.Errorf("module %q: exercise %q is step-by-step but has no steps", m.ID, ex.ID)
			}
		}
	}
	for _, m := range c.modules {
		for _, p := range m.Prerequisites {
			if _, ok := c.index[p]; !ok {
				return nil, fmt.Errorf("module %q: unknown prerequisite %q", m.ID, p)
			}
		}
	}
	return c, nil
}

// All returns the modules in catalog order.
func (c *Catalog) All() []Module {
	out := make([]Module, len(c.modules))
	copy(out, c.modules)
	return out
}

func (c *Catalog) Find(id string) (*Module, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	m := c.modules[i]
	return &m, true
}

// NextAfter picks where to go once moduleID is finished: the first other module
// that lists it as a prerequisite, else the module that follows it. ok is false
// when neither exists and the caller should return home.
func (c *Catalog) NextAfter(moduleID string) (next string, ok bool) {
	for _, m := range c.modules {
		if m.ID == moduleID {
			continue
		}
		for _, p := range m.Prerequisites {
			if p == moduleID {
				return m.ID, true
			}
		}
	}
	if i, found := c.index[moduleID]; found && i+1 < len(c.modules) {
		return c.modules[i+1].ID, true
	}
	return "", false
}
