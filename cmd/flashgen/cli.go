package main

import (
	"context"
	"flashgen/internal/ai"
	"flashgen/internal/config"
	"flashgen/internal/content"
	"flashgen/internal/export"
	"flashgen/internal/flashcard"
	"fmt"
	"github.com/spf13/cobra"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	exitFailed = 1
	exitUsage  = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// app holds what the commands need from the outside world.
type app struct {
	newBackend func(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (flashcard.Backend, error)
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

func defaultApp() *app {
	return &app{
		newBackend: ai.New,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

type generateOptions struct {
	configPath string
	text       string
	file       string
	subject    string
	format     string
	out        string
	deck       string
	verbose    bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "flashgen",
		Short:         "Generate study flashcards with an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.AddCommand(newGenerateCmd(a), newSubjectsCmd(), newFormatsCmd())
	return root
}

func newGenerateCmd(a *app) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate flashcards from pasted text or a .txt/.pdf file",
		Example: `  flashgen generate --file notes.pdf --subject Biology --format anki --out deck.zip
  cat notes.txt | flashgen generate --text - --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.generate(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (environment variables still apply)")
	flags.StringVarP(&opts.text, "text", "t", "", "text to generate from, - reads stdin")
	flags.StringVarP(&opts.file, "file", "f", "", "a .txt or .pdf file to generate from")
	flags.StringVarP(&opts.subject, "subject", "s", "", "optional subject hint, e.g. Biology")
	flags.StringVar(&opts.format, "format", string(export.FormatCSV), "output format: csv, json, anki or cloze")
	flags.StringVarP(&opts.out, "out", "o", "", "output file, stdout when empty")
	flags.StringVar(&opts.deck, "deck", "", "deck name for the anki format")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log backend activity to stderr")
	cmd.MarkFlagsMutuallyExclusive("text", "file")
	cmd.MarkFlagsOneRequired("text", "file")

	return cmd
}

func (a *app) generate(ctx context.Context, opts generateOptions) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	text, err := a.readInput(opts, cfg.MaxUploadBytes())
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	backend, err := a.newBackend(ctx, cfg.LLM, logger)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	res := flashcard.NewGenerator(backend, logger).Generate(ctx, flashcard.Request{
		Content: text,
		Subject: opts.subject,
	})
	if res.Status == flashcard.StatusFailed {
		return &exitError{code: exitFailed, err: fmt.Errorf("generation failed: %w", res.Err)}
	}
	if res.Warning != "" {
		fmt.Fprintln(a.stderr, "warning:", res.Warning)
	}

	deck := opts.deck
	if deck == "" {
		deck = export.DeckName(opts.subject)
	}

	data, err := export.Render(format, res.Cards, deck)
	if err != nil {
		return err
	}

	if opts.out == "" {
		_, err = a.stdout.Write(data)
		return err
	}

	if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", opts.out, err)
	}
	fmt.Fprintf(a.stderr, "wrote %d flashcards to %s\n", len(res.Cards), opts.out)
	return nil
}

func (a *app) readInput(opts generateOptions, maxUploadBytes int64) (string, error) {
	n := content.NewNormalizer(content.WithMaxUploadBytes(maxUploadBytes))

	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return "", err
		}
		defer f.Close()

		return n.Normalize(content.FileUpload, &content.Payload{
			FileName: filepath.Base(opts.file),
			Body:     f,
		})
	}

	text := opts.text
	if text == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("error reading stdin: %w", err)
		}
		text = string(data)
	}

	return n.Normalize(content.DirectPaste, &content.Payload{Text: text})
}

func newSubjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List the suggested subject hints",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, s := range flashcard.Subjects {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
		},
	}
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the export formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			names := make([]string, len(export.Formats))
			for i, f := range export.Formats {
				names[i] = string(f)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
		},
	}
}
