package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mlorentedev/doctran/internal/extract"
	"github.com/mlorentedev/doctran/internal/pipeline"
	"github.com/mlorentedev/doctran/internal/server"
)

func newExtractCmd() *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text extracted from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			up, err := readFile(args[0])
			if err != nil {
				return err
			}

			p := pipeline.New(pipeline.Config{
				Extractor: extract.New(
					extract.WithMaxBytes(cfg.MaxUploadBytes),
					extract.WithMaxChars(cfg.MaxChars),
					extract.WithLogger(logger),
				),
				Logger: logger,
			})
			out := p.ProcessFile(cmdContext(cmd), up)
			if !out.OK() {
				return out.Err
			}

			if summary {
				fmt.Fprintln(cmd.OutOrStdout(), out.Content)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), out.Extraction.Text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "append the processing summary")
	return cmd
}

func newTranslateCmd() *cobra.Command {
	var (
		language    string
		provider    string
		tone        string
		contentType string
		useMock     bool
	)

	cmd := &cobra.Command{
		Use:   "translate <file>",
		Short: "Translate a file from the command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			system, err := systemPrompt(cfg)
			if err != nil {
				return err
			}
			up, err := readFile(args[0])
			if err != nil {
				return err
			}

			providers, _ := server.BuildProviders(cfg, useMock, logger)
			defaultProvider := cfg.DefaultProvider
			if useMock {
				defaultProvider = "mock"
			}
			p := pipeline.New(pipeline.Config{
				Providers:       providers,
				DefaultProvider: defaultProvider,
				Extractor: extract.New(
					extract.WithMaxBytes(cfg.MaxUploadBytes),
					extract.WithMaxChars(cfg.MaxChars),
					extract.WithLogger(logger),
				),
				System:  system,
				Timeout: cfg.RequestTimeout,
				Logger:  logger,
			})

			out := p.TranslateFile(cmdContext(cmd), pipeline.FileInput{
				Upload:      up,
				Language:    language,
				Tone:        tone,
				ContentType: contentType,
				Provider:    provider,
			})
			if !out.OK() {
				return out.Err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out.Response.Text)
			if out.Response.Fallback {
				logger.Warn("offline fallback used; output is not a real translation", "provider", out.Response.Provider)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), out.Rendered.Summary.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "", "target language code (e.g. es, fr, pt-BR)")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "provider id (openai, claude, deepl, mock)")
	cmd.Flags().StringVar(&tone, "tone", "", "tone hint for chat providers")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type hint for chat providers")
	cmd.Flags().BoolVar(&useMock, "mock", false, "use the mock provider")
	cmd.MarkFlagRequired("lang")
	return cmd
}

// readFile loads path as an upload; the media type is guessed from the
// extension.
func readFile(path string) (extract.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return extract.Upload{
		Data:      data,
		MediaType: mime.TypeByExtension(filepath.Ext(path)),
		Name:      filepath.Base(path),
		Size:      int64(len(data)),
	}, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
