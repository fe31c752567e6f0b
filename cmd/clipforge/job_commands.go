package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/clipforge/internal/dashboard"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

func jobTypeNames() string {
	return strings.Join(jobTypeStrings(), ", ")
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var m mediaFlags

	cmd := &cobra.Command{
		Use:       "run <job_type>",
		Short:     "Dispatch a job with its preset parameters",
		Long:      "Dispatch a job with its preset parameters. Job types: " + jobTypeNames() + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: jobTypeStrings(),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobType := models.JobType(args[0])
			if _, ok := dashboard.PresetParams(jobType); !ok {
				return fmt.Errorf("unknown job type %q: must be one of %s", args[0], jobTypeNames())
			}
			return dispatch(ctx, cmd, &m, jobType, nil)
		},
	}
	m.register(cmd)
	return cmd
}

func newJobCommand(ctx *commandContext) *cobra.Command {
	var m mediaFlags
	var params string

	cmd := &cobra.Command{
		Use:       "job <job_type>",
		Short:     "Dispatch a job with explicit JSON parameters",
		Args:      cobra.ExactArgs(1),
		ValidArgs: jobTypeStrings(),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p any
			if strings.TrimSpace(params) != "" {
				if !json.Valid([]byte(params)) {
					return fmt.Errorf("--params is not valid JSON")
				}
				p = json.RawMessage(params)
			}
			return dispatch(ctx, cmd, &m, models.JobType(args[0]), p)
		},
	}
	m.register(cmd)
	cmd.Flags().StringVar(&params, "params", "", "Job parameters as a JSON object")
	return cmd
}

// dispatch attaches media if asked, sends the job and prints the result.
// Nil params selects the job type's preset.
func dispatch(ctx *commandContext, cmd *cobra.Command, m *mediaFlags, jobType models.JobType, params any) error {
	s, err := ctx.newSession(cmd)
	if err != nil {
		return err
	}
	if err := m.attach(cmd.Context(), cmd, s); err != nil {
		return err
	}

	var res models.JobResult
	if params == nil {
		res, err = s.RunPreset(cmd.Context(), jobType)
	} else {
		res, err = s.CreateJob(cmd.Context(), jobType, params)
	}
	if err != nil {
		return userError(err)
	}
	if err := printJobResult(ctx, cmd, jobType, res); err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("%s failed: %s", jobType, res.Error)
	}
	return nil
}

func jobTypeStrings() []string {
	out := make([]string, len(models.JobTypes))
	for i, jt := range models.JobTypes {
		out[i] = string(jt)
	}
	return out
}
