package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"jobmatch/internal/model"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newMatchCmd(opts *rootOptions) *cobra.Command {
	var jobID string
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run job alerts for one job and print the outcome",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			deps, cleanup, err := buildDeps(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := deps.service.HandleJobPosted(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "job id")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var candidateID string
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print job recommendations for a candidate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			deps, cleanup, err := buildDeps(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := deps.service.Recommend(cmd.Context(), candidateID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&candidateID, "candidate", "", "candidate id")
	_ = cmd.MarkFlagRequired("candidate")
	return cmd
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one pass over unmatched open jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			processed, err := runOnceManual(cmd.Context(), cfg, func(c AppConfig) (appDeps, func(), error) {
				return buildDeps(cmd.Context(), c, log)
			})
			log.Info("sweep done", zap.Int("processed", processed))
			return err
		},
	}
}

// seedFile 批量导入文件格式。
type seedFile struct {
	Jobs       []model.Job       `json:"jobs"`
	Candidates []model.Candidate `json:"candidates"`
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load jobs and candidates from a YAML or JSON file without sending alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			seed, err := readSeed(args[0])
			if err != nil {
				return err
			}
			deps, cleanup, err := buildDeps(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			created, saved, err := importSeed(cmd.Context(), deps, seed)
			log.Info("import done", zap.Int("jobs_created", created), zap.Int("candidates_saved", saved))
			return err
		},
	}
}

// readSeed 接受 YAML 或 JSON，字段名与 API 的 JSON 字段一致。
func readSeed(path string) (seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, fmt.Errorf("read seed: %w", err)
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return seedFile{}, fmt.Errorf("parse seed %s: %w", path, err)
	}
	converted, err := json.Marshal(raw)
	if err != nil {
		return seedFile{}, fmt.Errorf("convert seed %s: %w", path, err)
	}
	var seed seedFile
	if err := json.Unmarshal(converted, &seed); err != nil {
		return seedFile{}, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return seed, nil
}

func importSeed(ctx context.Context, deps appDeps, seed seedFile) (int, int, error) {
	res, err := deps.store.UpsertJobs(ctx, seed.Jobs)
	if err != nil {
		return 0, 0, err
	}
	var errs []error
	saved := 0
	for _, c := range seed.Candidates {
		if _, err := deps.profiles.Save(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("candidate %s: %w", c.ID, err))
			continue
		}
		saved++
	}
	return res.Created, saved, errors.Join(errs...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
