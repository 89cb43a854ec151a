package research

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mikeboe/sensight/pkg/prompt"
	"github.com/mikeboe/sensight/pkg/research/tools"
)

// Request is one submission. It is built once and passed down the pipeline;
// nothing downstream reads form state from anywhere else.
type Request struct {
	ID          string          `json:"id,omitempty" form:"-"`
	ProjectName string          `json:"project_name" form:"project_name"`
	Indication  string          `json:"indication,omitempty" form:"indication"`
	Stage       string          `json:"stage,omitempty" form:"stage"`
	Modality    string          `json:"modality,omitempty" form:"modality"`
	Body        string          `json:"body" form:"body"`
	Task        prompt.Task     `json:"task,omitempty" form:"task"`
	Language    prompt.Language `json:"language,omitempty" form:"language"`
	// Model is tried before the configured models.
	Model  string `json:"model,omitempty" form:"model"`
	Search *bool  `json:"search,omitempty" form:"search"`
	// APIKey is only ever handed to the backend client.
	APIKey string `json:"-" form:"api_key"`
}

// Normalize trims the free-text fields, fills defaults and assigns an ID.
func (r *Request) Normalize() {
	r.ProjectName = strings.TrimSpace(r.ProjectName)
	r.Indication = strings.TrimSpace(r.Indication)
	r.Stage = strings.TrimSpace(r.Stage)
	r.Modality = strings.TrimSpace(r.Modality)
	r.Body = strings.TrimSpace(r.Body)
	r.Model = strings.TrimSpace(r.Model)
	r.APIKey = strings.TrimSpace(r.APIKey)
	if r.Task == "" {
		r.Task = prompt.DefaultTask
	}
	if r.Language == "" {
		r.Language = prompt.DefaultLanguage
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
}

// Topic is the text market queries are derived from.
func (r *Request) Topic() string {
	topic := strings.TrimSpace(r.ProjectName + " " + r.Indication)
	if topic == "" {
		topic = r.Body
	}
	return topic
}

// Report is the generated Markdown and how it was produced.
type Report struct {
	ID          string               `json:"id"`
	ProjectName string               `json:"project_name"`
	Task        prompt.Task          `json:"task"`
	Language    prompt.Language      `json:"language"`
	Markdown    string               `json:"markdown"`
	Model       string               `json:"model"`
	Fallbacks   []string             `json:"fallbacks,omitempty"`
	Sources     []tools.SearchResult `json:"sources,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// Stage is a step of the pipeline reported to observers.
type Stage string

const (
	StageSearching  Stage = "searching"
	StageGenerating Stage = "generating"
	StageDone       Stage = "done"
)

// State is a progress snapshot passed to OnStateUpdate.
type State struct {
	RequestID string `json:"request_id"`
	Stage     Stage  `json:"stage"`
	Sources   int    `json:"sources,omitempty"`
}

// Callbacks observe a single run. Both fields are optional; a non-nil
// OnChunk switches generation to streaming.
type Callbacks struct {
	OnStateUpdate func(State)
	OnChunk       func(string)
}
