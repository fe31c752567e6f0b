package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/clipforge/internal/dashboard"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// mediaFlags select the media a command attaches before it does anything else.
type mediaFlags struct {
	url            string
	cookieHeader   string
	file           string
	category       string
	customCategory string
}

func (m *mediaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.url, "url", "", "Ingest media from this URL first")
	cmd.Flags().StringVar(&m.cookieHeader, "cookie-header", "", "Cookie header forwarded when ingesting --url")
	cmd.Flags().StringVar(&m.file, "file", "", "Upload this local file first")
	m.registerCategory(cmd)
	cmd.MarkFlagsMutuallyExclusive("url", "file")
}

func (m *mediaFlags) registerCategory(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.category, "category", models.DefaultUploadCategory, "Upload category, one of: "+strings.Join(models.UploadCategories, ", "))
	cmd.Flags().StringVar(&m.customCategory, "custom-category", "", "Free-text upload category (overrides --category)")
}

func (m *mediaFlags) choice(cmd *cobra.Command) dashboard.CategoryChoice {
	if cmd.Flags().Changed("custom-category") {
		return dashboard.CategoryChoice{Mode: models.CategoryModeCustom, Custom: m.customCategory}
	}
	return dashboard.CategoryChoice{Mode: models.CategoryModePreset, Preset: m.category}
}

// attach ingests whichever media the flags name. It is a no-op without
// --url or --file.
func (m *mediaFlags) attach(ctx context.Context, cmd *cobra.Command, s *dashboard.Session) error {
	switch {
	case m.url != "":
		_, err := s.IngestURL(ctx, m.url, m.cookieHeader)
		return userError(err)
	case m.file != "":
		_, _, err := uploadFile(ctx, s, m.file, m.choice(cmd))
		return err
	}
	return nil
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <url>",
		Short: "Check whether the backend can ingest a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd)
			if err != nil {
				return err
			}
			st, err := s.ValidateURL(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			view := dashboard.ViewURLStatus(st)
			if ctx.useTable(cmd) {
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues(statusRows(view)))
			} else if err := writeJSON(cmd, view); err != nil {
				return err
			}
			if e, isErr := st.(dashboard.URLError); isErr {
				return fmt.Errorf("url rejected: %s", e.Reason)
			}
			return nil
		},
	}
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var cookieHeader string

	cmd := &cobra.Command{
		Use:   "ingest <url>",
		Short: "Ingest media from a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd)
			if err != nil {
				return err
			}
			res, err := s.IngestURL(cmd.Context(), args[0], cookieHeader)
			if err != nil {
				return userError(err)
			}
			return printIngestResult(ctx, cmd, res, 0)
		},
	}
	cmd.Flags().StringVar(&cookieHeader, "cookie-header", "", "Cookie header forwarded to the backend")
	return cmd
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var m mediaFlags

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a local media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd)
			if err != nil {
				return err
			}
			res, size, err := uploadFile(cmd.Context(), s, args[0], m.choice(cmd))
			if err != nil {
				return err
			}
			return printIngestResult(ctx, cmd, res, size)
		},
	}
	m.registerCategory(cmd)
	return cmd
}

func newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the preset upload categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTerminal(cmd.OutOrStdout()) {
				fmt.Fprintln(cmd.OutOrStdout(), renderList("Category", models.UploadCategories))
				return nil
			}
			return writeJSON(cmd, models.UploadCategories)
		},
	}
}

// uploadFile streams path to the backend and returns the result and the
// local file size.
func uploadFile(ctx context.Context, s *dashboard.Session, path string, choice dashboard.CategoryChoice) (*dashboard.IngestResult, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("open upload: %s is a directory", path)
	}

	res, err := s.UploadLocalFile(ctx, &dashboard.Upload{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Body:        f,
	}, choice)
	if err != nil {
		return nil, 0, userError(err)
	}
	return res, info.Size(), nil
}

// userError replaces a dashboard error with the message a user should see.
func userError(err error) error {
	if err == nil {
		return nil
	}
	var derr *dashboard.Error
	if errors.As(err, &derr) {
		return errors.New(derr.Message)
	}
	return err
}
