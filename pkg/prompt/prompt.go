// Package prompt turns a report request into the system and user text sent
// to the model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// Input is everything the assembler interpolates.
type Input struct {
	ProjectName   string
	Indication    string
	Stage         string
	Modality      string
	Body          string
	Task          Task
	Language      Language
	MarketContext string
}

// Prompt is the rendered instruction pair.
type Prompt struct {
	System string
	User   string
}

var systemTemplate = prompts.NewPromptTemplate(`# Role
{{ .role }}

# Task
{{ .task }}

# Rules
{{- range $i, $r := .rules }}
{{ add1 $i }}. {{ $r }}
{{- end }}
{{ add1 (len .rules) }}. Write the whole report in {{ .language }}.

# Output Format
{{ .intro }}
# {{ .project }} - {{ .title }}
{{- range .sections }}
## {{ . }}
{{- end }}
`, []string{"role", "task", "rules", "language", "intro", "project", "title", "sections"})

var userTemplate = prompts.NewPromptTemplate(`{{ .labels.Project }}: {{ .project }}
{{- if .indication }}
{{ .labels.Indication }}: {{ .indication }}
{{- end }}
{{- if .stage }}
{{ .labels.Stage }}: {{ .stage }}
{{- end }}
{{- if .modality }}
{{ .labels.Modality }}: {{ .modality }}
{{- end }}

{{ .labels.Body }}:
{{ .body }}

{{ .labels.Market }}:
{{ .market }}
`, []string{"labels", "project", "indication", "stage", "modality", "body", "market"})

// Assemble renders the prompt for in. The output depends only on in.
func Assemble(in Input) (Prompt, error) {
	profile, err := Lookup(in.Task, in.Language)
	if err != nil {
		return Prompt{}, err
	}
	lang := in.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	l := languages[lang]

	project := strings.TrimSpace(in.ProjectName)
	if project == "" {
		project = "[Project]"
	}
	market := strings.TrimSpace(in.MarketContext)
	if market == "" {
		market = l.NoMarket
	}

	system, err := systemTemplate.Format(map[string]any{
		"role":     profile.Role,
		"task":     profile.Task,
		"rules":    l.Rules,
		"language": l.Name,
		"intro":    l.FormatIntro,
		"project":  project,
		"title":    profile.Title,
		"sections": profile.Sections,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to render system prompt: %w", err)
	}

	user, err := userTemplate.Format(map[string]any{
		"labels":     l,
		"project":    project,
		"indication": strings.TrimSpace(in.Indication),
		"stage":      strings.TrimSpace(in.Stage),
		"modality":   strings.TrimSpace(in.Modality),
		"body":       strings.TrimSpace(in.Body),
		"market":     market,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to render user prompt: %w", err)
	}

	return Prompt{System: strings.TrimSpace(system), User: strings.TrimSpace(user)}, nil
}
