package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikeboe/sensight/pkg/clients"
	"github.com/mikeboe/sensight/pkg/config"
	"github.com/mikeboe/sensight/pkg/export"
	"github.com/mikeboe/sensight/pkg/intake"
	"github.com/mikeboe/sensight/pkg/market"
	"github.com/mikeboe/sensight/pkg/research"
)

// Runner is the part of research.Engine the server needs.
type Runner interface {
	Run(ctx context.Context, req research.Request, cb research.Callbacks) (*research.Report, error)
	SearchMarket(ctx context.Context, topic string) market.Outcome
	ListModels(ctx context.Context, apiKey string) ([]clients.ModelInfo, error)
}

// Service wires the pipeline to the transport layer. It holds no
// per-request state.
type Service struct {
	Engine Runner
	Cfg    *config.Config
	Logger *slog.Logger
}

func NewService(engine Runner, cfg *config.Config) *Service {
	return &Service{
		Engine: engine,
		Cfg:    cfg,
		Logger: slog.Default(),
	}
}

// apiKey prefers the caller's credential and falls back to the one the
// operator configured.
func (s *Service) apiKey(supplied string) string {
	if supplied != "" {
		return supplied
	}
	return s.Cfg.APIKeyFor(s.Cfg.Provider)
}

func (s *Service) Generate(ctx context.Context, req research.Request, cb research.Callbacks) (*research.Report, error) {
	req.APIKey = s.apiKey(req.APIKey)
	return s.Engine.Run(ctx, req, cb)
}

func (s *Service) SearchMarket(ctx context.Context, topic string) market.Outcome {
	return s.Engine.SearchMarket(ctx, topic)
}

func (s *Service) ListModels(ctx context.Context, apiKey string) ([]clients.ModelInfo, error) {
	return s.Engine.ListModels(ctx, s.apiKey(apiKey))
}

// Export renders markdown in format. name is the download's base name.
func (s *Service) Export(format, markdown, name string) (*export.File, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", research.ErrInvalidRequest, err)
	}
	if markdown == "" {
		return nil, research.ErrEmptyInput
	}
	return export.Render(f, markdown, name, s.exportOptions())
}

func (s *Service) exportOptions() export.Options {
	return export.Options{
		SlideLevel: s.Cfg.Export.SlideLevel,
		BulletCap:  s.Cfg.Export.SlideBulletCap,
		CharBudget: s.Cfg.Export.SlideCharBudget,
	}
}

// ExtractUpload returns the text of an uploaded document.
func (s *Service) ExtractUpload(filename string, content []byte) (string, error) {
	return intake.Extract(filename, content)
}
