package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed library.yaml
var defaultLibrary []byte

// Library is the prompt catalogue: one template per stage, the system
// prompts, the re-route table and the "don't know" phrase list.
type Library struct {
	System          string
	StageSystem     map[domain.Stage]string
	Templates       map[domain.Stage]Template
	Reroutes        map[domain.Stage]domain.Stage
	DontKnowPhrases []string
}

type librarySection struct {
	Header string   `yaml:"header"`
	Intros []string `yaml:"intros"`
	Body   string   `yaml:"body"`
}

func (s librarySection) section() Section {
	intros := make([]string, 0, len(s.Intros))
	for _, in := range s.Intros {
		if in = strings.TrimSpace(in); in != "" {
			intros = append(intros, in)
		}
	}
	return Section{
		Header: strings.TrimSpace(s.Header),
		Intros: intros,
		Body:   strings.TrimSpace(s.Body),
	}
}

type libraryStructured struct {
	Analysis   librarySection `yaml:"analysis"`
	Discovery  librarySection `yaml:"discovery"`
	Conclusion librarySection `yaml:"conclusion"`
}

type libraryStage struct {
	System     string             `yaml:"system"`
	Flat       string             `yaml:"flat"`
	Structured *libraryStructured `yaml:"structured"`
}

type libraryFile struct {
	System          string                  `yaml:"system"`
	DontKnowPhrases []string                `yaml:"dont_know_phrases"`
	Reroutes        map[string]string       `yaml:"reroutes"`
	Stages          map[string]libraryStage `yaml:"stages"`
}

// DefaultLibrary returns the embedded prompt catalogue.
func DefaultLibrary() (*Library, error) {
	return ParseLibrary(defaultLibrary)
}

// LoadLibrary reads a catalogue from path, or the embedded one when path
// is empty.
func LoadLibrary(path string) (*Library, error) {
	if path == "" {
		return DefaultLibrary()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt library: %w", err)
	}
	return ParseLibrary(data)
}

// ParseLibrary decodes a YAML catalogue. Every stage must define exactly one
// of flat or structured, and every re-route target must exist.
func ParseLibrary(data []byte) (*Library, error) {
	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing prompt library: %w", err)
	}
	if len(file.Stages) == 0 {
		return nil, errors.New("prompt library defines no stages")
	}

	lib := &Library{
		System:          file.System,
		StageSystem:     make(map[domain.Stage]string),
		Templates:       make(map[domain.Stage]Template, len(file.Stages)),
		Reroutes:        make(map[domain.Stage]domain.Stage, len(file.Reroutes)),
		DontKnowPhrases: file.DontKnowPhrases,
	}

	for name, st := range file.Stages {
		stage := domain.Stage(name)
		switch {
		case st.Flat != "" && st.Structured != nil:
			return nil, fmt.Errorf("stage %q: flat and structured are mutually exclusive", name)
		case st.Flat != "":
			lib.Templates[stage] = FlatTemplate{Text: strings.TrimSpace(st.Flat)}
		case st.Structured != nil:
			lib.Templates[stage] = StructuredTemplate{
				Analysis:   st.Structured.Analysis.section(),
				Discovery:  st.Structured.Discovery.section(),
				Conclusion: st.Structured.Conclusion.section(),
			}
		default:
			return nil, fmt.Errorf("stage %q: no template", name)
		}
		if st.System != "" {
			lib.StageSystem[stage] = st.System
		}
	}

	for from, to := range file.Reroutes {
		if _, ok := lib.Templates[domain.Stage(to)]; !ok {
			return nil, fmt.Errorf("reroute %q -> %q: unknown target stage", from, to)
		}
		lib.Reroutes[domain.Stage(from)] = domain.Stage(to)
	}
	return lib, nil
}

// SystemFor returns the system prompt for stage.
func (l *Library) SystemFor(stage domain.Stage) string {
	if s, ok := l.StageSystem[stage]; ok {
		return s
	}
	return l.System
}
