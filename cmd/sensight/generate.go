package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/mikeboe/sensight/pkg/config"
	"github.com/mikeboe/sensight/pkg/export"
	"github.com/mikeboe/sensight/pkg/intake"
	"github.com/mikeboe/sensight/pkg/prompt"
	"github.com/mikeboe/sensight/pkg/research"
)

type generateOptions struct {
	req      research.Request
	task     string
	language string
	file     string
	noSearch bool
	stream   bool
	raw      bool
	format   string
	out      string
}

func newGenerateCmd() *cobra.Command {
	var o generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a report from project information",
		Long: `Write a report from project information given with --body, read from a
document with --file (.txt .md .pdf .docx .pptx .xlsx, "-" for stdin), or
typed interactively when neither is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, &o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.req.ProjectName, "project", "p", "", "project name or code name")
	f.StringVar(&o.req.Indication, "indication", "", "target indication")
	f.StringVar(&o.req.Stage, "stage", "", "development stage")
	f.StringVar(&o.req.Modality, "modality", "", "technology or modality")
	f.StringVarP(&o.req.Body, "body", "b", "", "raw project information")
	f.StringVarP(&o.file, "file", "f", "", "read project information from a document")
	f.StringVarP(&o.task, "task", "t", string(prompt.DefaultTask), "report type: "+joinTasks())
	f.StringVarP(&o.language, "lang", "l", string(prompt.DefaultLanguage), "output language: zh or en")
	f.StringVarP(&o.req.Model, "model", "m", "", "model to try before the configured ones")
	f.BoolVar(&o.noSearch, "no-search", false, "skip the market data lookup")
	f.BoolVar(&o.stream, "stream", false, "print the report as it is generated (default from generation.stream)")
	f.BoolVar(&o.raw, "raw", false, "print plain Markdown instead of rendering it")
	f.StringVar(&o.format, "format", "", "also export to docx, pptx, xlsx, html or md")
	f.StringVarP(&o.out, "out", "o", "", "export path (defaults to the project name)")

	return cmd
}

func joinTasks() string {
	var names []string
	for _, t := range prompt.Tasks() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func runGenerate(cmd *cobra.Command, o *generateOptions) error {
	cfg, engine, err := loadEngine()
	if err != nil {
		return err
	}

	req := o.req
	req.Task = prompt.Task(o.task)
	req.Language = prompt.Language(o.language)
	req.APIKey = cfg.APIKeyFor(cfg.Provider)
	search := !o.noSearch
	req.Search = &search

	if o.file != "" {
		text, err := readDocument(cmd.InOrStdin(), o.file)
		if err != nil {
			return reportError(cmd, err, req.Language)
		}
		req.Body = strings.TrimSpace(req.Body + "\n\n" + text)
	}
	if strings.TrimSpace(req.Body) == "" && o.file == "" {
		req.Body, err = promptBody(cmd)
		if err != nil {
			return err
		}
	}

	stream := streaming(cmd, o, cfg.Generation)
	out := cmd.OutOrStdout()
	cb := research.Callbacks{
		OnStateUpdate: func(s research.State) {
			slog.Info("Pipeline", "stage", s.Stage, "sources", s.Sources)
		},
	}
	if stream {
		cb.OnChunk = func(chunk string) {
			fmt.Fprint(out, chunk)
		}
	}

	report, err := engine.Run(cmd.Context(), req, cb)
	if err != nil {
		return reportError(cmd, err, req.Language)
	}

	if stream {
		fmt.Fprintln(out)
	} else if err := printMarkdown(out, report.Markdown, o.raw); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "model: %s\n", report.Model)
	if len(report.Fallbacks) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "fell back after: %s\n", strings.Join(report.Fallbacks, ", "))
	}

	if o.format == "" {
		return nil
	}
	return writeExport(cmd, o, report, cfg.Export.SlideLevel, cfg.Export.SlideBulletCap, cfg.Export.SlideCharBudget)
}

// streaming reports whether chunks are printed as they arrive. An explicit
// --stream wins over the configured default.
func streaming(cmd *cobra.Command, o *generateOptions, gen config.GenerationConfig) bool {
	if cmd.Flags().Changed("stream") {
		return o.stream
	}
	return gen.Stream
}

// reportError prints the user-facing message and returns the raw error so
// the exit status is non-zero.
func reportError(cmd *cobra.Command, err error, lang prompt.Language) error {
	fmt.Fprintln(cmd.ErrOrStderr(), research.UserMessage(err, lang))
	return err
}

func readDocument(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, intake.MaxUploadBytes+1))
		if err != nil {
			return "", err
		}
		return intake.Extract("stdin.txt", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > intake.MaxUploadBytes {
		return "", intake.ErrTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return intake.Extract(filepath.Base(path), data)
}

func promptBody(cmd *cobra.Command) (string, error) {
	fmt.Fprintln(cmd.ErrOrStderr(), "Enter project information, end with an empty line:")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func printMarkdown(w io.Writer, markdown string, raw bool) error {
	if !raw {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			if rendered, err := renderer.Render(markdown); err == nil {
				_, err = io.WriteString(w, rendered)
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, markdown)
	return err
}

func writeExport(cmd *cobra.Command, o *generateOptions, report *research.Report, level, bulletCap, charBudget int) error {
	format, err := export.ParseFormat(o.format)
	if err != nil {
		return err
	}
	file, err := export.Render(format, report.Markdown, report.ProjectName, export.Options{
		SlideLevel: level,
		BulletCap:  bulletCap,
		CharBudget: charBudget,
	})
	if err != nil {
		return err
	}

	path := o.out
	if path == "" {
		path = file.Name
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}
