package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mikeboe/sensight/pkg/export"
	"github.com/mikeboe/sensight/pkg/intake"
	"github.com/mikeboe/sensight/pkg/prompt"
	"github.com/mikeboe/sensight/pkg/research"
)

// APIKeyHeader carries the caller's model credential on API routes.
const APIKeyHeader = "X-API-Key"

// StreamEvent is one server-sent event on the streaming route.
type StreamEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type Handler struct {
	Service *Service
	MCP     http.Handler
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s, MCP: NewMCPHandler(s)}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(pageTemplate)

	r.GET("/", h.showForm)
	r.POST("/", h.submitForm)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.Any("/mcp", gin.WrapH(h.MCP))

	api := r.Group("/api")
	{
		api.POST("/reports", h.createReport)
		api.POST("/reports/stream", h.streamReport)
		api.POST("/export/:format", h.exportReport)
		api.GET("/models", h.listModels)
		api.GET("/options", h.listOptions)
	}
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case research.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, research.ErrAllEnginesExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) createReport(c *gin.Context) {
	var req research.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.APIKey = c.GetHeader(APIKeyHeader)

	report, err := h.Service.Generate(c.Request.Context(), req, research.Callbacks{})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": research.UserMessage(err, req.Language)})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) streamReport(c *gin.Context) {
	var req research.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.APIKey = c.GetHeader(APIKeyHeader)

	started := false
	send := func(event StreamEvent) {
		if !started {
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Status(http.StatusOK)
			started = true
		}
		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		_, _ = c.Writer.Write([]byte("data: "))
		_, _ = c.Writer.Write(data)
		_, _ = c.Writer.Write([]byte("\n\n"))
		c.Writer.Flush()
	}

	report, err := h.Service.Generate(c.Request.Context(), req, research.Callbacks{
		OnStateUpdate: func(s research.State) {
			send(StreamEvent{Type: "status", Payload: s})
		},
		OnChunk: func(chunk string) {
			send(StreamEvent{Type: "content", Payload: chunk})
		},
	})
	if err != nil {
		if !started {
			c.JSON(statusFor(err), gin.H{"error": research.UserMessage(err, req.Language)})
			return
		}
		send(StreamEvent{Type: "error", Payload: research.UserMessage(err, req.Language)})
		return
	}
	send(StreamEvent{Type: "done", Payload: report})
}

type exportRequest struct {
	Markdown string `json:"markdown" form:"markdown"`
	Name     string `json:"name" form:"name"`
}

func (h *Handler) exportReport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := h.Service.Export(c.Param("format"), req.Markdown, req.Name)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *Handler) listModels(c *gin.Context) {
	models, err := h.Service.ListModels(c.Request.Context(), c.GetHeader(APIKeyHeader))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models)
}

type option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func taskOptions(lang prompt.Language) []option {
	var out []option
	for _, t := range prompt.Tasks() {
		p, err := prompt.Lookup(t, lang)
		if err != nil {
			continue
		}
		out = append(out, option{Value: string(t), Label: p.Title})
	}
	return out
}

func languageOptions() []option {
	var out []option
	for _, l := range prompt.Languages() {
		out = append(out, option{Value: string(l), Label: prompt.LanguageName(l)})
	}
	return out
}

func (h *Handler) listOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tasks":     taskOptions(prompt.LanguageEnglish),
		"languages": languageOptions(),
		"models":    h.Service.Cfg.Models,
		"formats":   []export.Format{export.FormatDOCX, export.FormatPPTX, export.FormatXLSX, export.FormatHTML, export.FormatMarkdown},
	})
}

// pageData feeds templates/index.html.
type pageData struct {
	Form      research.Request
	Search    bool
	Tasks     []option
	Languages []option
	Models    []string
	Downloads []option
	Error     string
	Report    *research.Report
	HTML      template.HTML
}

func (h *Handler) newPage(req research.Request, search bool) pageData {
	return pageData{
		Form:      req,
		Search:    search,
		Tasks:     taskOptions(prompt.LanguageEnglish),
		Languages: languageOptions(),
		Models:    h.Service.Cfg.Models,
		Downloads: []option{
			{Value: string(export.FormatDOCX), Label: "Word"},
			{Value: string(export.FormatPPTX), Label: "PowerPoint"},
			{Value: string(export.FormatXLSX), Label: "Excel"},
			{Value: string(export.FormatMarkdown), Label: "Markdown"},
		},
	}
}

func (h *Handler) showForm(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", h.newPage(research.Request{Task: prompt.DefaultTask, Language: prompt.DefaultLanguage}, !h.Service.Cfg.Search.Disabled))
}

func (h *Handler) submitForm(c *gin.Context) {
	var req research.Request
	if err := c.ShouldBind(&req); err != nil {
		page := h.newPage(req, false)
		page.Error = err.Error()
		c.HTML(http.StatusBadRequest, "index.html", page)
		return
	}
	search := c.PostForm("search") == "true"
	req.Search = &search

	page := h.newPage(req, search)
	// the key is never echoed back into the page
	page.Form.APIKey = ""

	text, err := h.readUpload(c)
	if err != nil {
		page.Error = research.UserMessage(err, req.Language)
		c.HTML(statusFor(err), "index.html", page)
		return
	}
	if text != "" {
		req.Body = strings.TrimSpace(req.Body + "\n\n" + text)
		page.Form.Body = req.Body
	}

	report, err := h.Service.Generate(c.Request.Context(), req, research.Callbacks{})
	if err != nil {
		page.Error = research.UserMessage(err, req.Language)
		c.HTML(statusFor(err), "index.html", page)
		return
	}

	rendered, err := export.HTML(report.Markdown)
	if err != nil {
		page.Error = research.UserMessage(err, req.Language)
		c.HTML(http.StatusInternalServerError, "index.html", page)
		return
	}
	page.Report = report
	// sanitized by export.HTML
	page.HTML = template.HTML(rendered)
	c.HTML(http.StatusOK, "index.html", page)
}

func (h *Handler) readUpload(c *gin.Context) (string, error) {
	fh, err := c.FormFile("document")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if fh.Size > intake.MaxUploadBytes {
		return "", intake.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, intake.MaxUploadBytes+1))
	if err != nil {
		return "", err
	}
	return h.Service.ExtractUpload(fh.Filename, data)
}
