package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/clipforge/internal/dashboard"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// useTable reports whether output should be rendered for a person rather
// than a program.
func (c *commandContext) useTable(cmd *cobra.Command) bool {
	return !c.flags.json && isTerminal(cmd.OutOrStdout())
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderKeyValues(rows [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	for _, r := range rows {
		tw.AppendRow(table.Row{r[0], r[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignLeft, WidthMax: 80},
	})
	return tw.Render()
}

func renderList(header string, items []string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{header})
	for _, it := range items {
		tw.AppendRow(table.Row{it})
	}
	return tw.Render()
}

func statusRows(st dashboard.URLStatusView) [][2]string {
	rows := [][2]string{{"URL status", st.State}}
	if st.Reason != "" {
		rows = append(rows, [2]string{"Reason", st.Reason})
	}
	return rows
}

func extractedRows(info *models.ExtractedInfo) [][2]string {
	if info == nil {
		return nil
	}
	var rows [][2]string
	if info.Container != "" {
		rows = append(rows, [2]string{"Container", info.Container})
	}
	if info.Resolution != "" {
		rows = append(rows, [2]string{"Resolution", info.Resolution})
	}
	if info.Duration > 0 {
		d := time.Duration(info.Duration * float64(time.Second)).Round(time.Second)
		rows = append(rows, [2]string{"Duration", d.String()})
	}
	rows = append(rows,
		[2]string{"Audio", codecLabel(info.HasAudio, info.AudioCodec)},
		[2]string{"Video", codecLabel(info.HasVideo, info.VideoCodec)},
	)
	return rows
}

func codecLabel(present bool, codec string) string {
	if !present {
		return "none"
	}
	if codec == "" {
		return "yes"
	}
	return codec
}

func printIngestResult(c *commandContext, cmd *cobra.Command, res *dashboard.IngestResult, sizeBytes int64) error {
	if !c.useTable(cmd) {
		return writeJSON(cmd, res)
	}
	rows := [][2]string{{"Video ID", res.VideoID}}
	if res.Category != nil {
		rows = append(rows, [2]string{"Category", *res.Category})
	}
	if sizeBytes > 0 {
		rows = append(rows, [2]string{"Size", humanize.Bytes(uint64(sizeBytes))})
	}
	rows = append(rows, statusRows(res.URLStatus)...)
	rows = append(rows, extractedRows(res.Extracted)...)
	fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues(rows))
	return nil
}

func printJobResult(c *commandContext, cmd *cobra.Command, jobType models.JobType, res models.JobResult) error {
	if !c.useTable(cmd) {
		return writeJSON(cmd, res)
	}
	outcome := "ok"
	if !res.OK {
		outcome = "failed"
	}
	status := "no response"
	if res.Status != 0 {
		status = strconv.Itoa(res.Status)
	}
	rows := [][2]string{
		{"Job", string(jobType)},
		{"Outcome", outcome},
		{"HTTP status", status},
	}
	if res.Error != "" {
		rows = append(rows, [2]string{"Error", res.Error})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderKeyValues(rows))

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, res.Body, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(res.Body)
	}
	fmt.Fprintln(out, pretty.String())
	return nil
}
