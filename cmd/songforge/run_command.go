package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"songforge/internal/blueprint"
	"songforge/internal/logging"
	"songforge/internal/pipeline"
	"songforge/internal/provenance"
	"songforge/internal/songspec"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		specPath      string
		blueprintPath string
		corpusPath    string
		seed          uint64
		jsonOutput    bool
		noStore       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the generation pipeline for one specification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			spec, err := songspec.Load(specPath)
			if err != nil {
				return fmt.Errorf("load specification: %w", err)
			}

			bpPath := strings.TrimSpace(blueprintPath)
			if bpPath == "" {
				bpPath = cfg.Paths.BlueprintPath
			}
			if bpPath == "" {
				return errors.New("no blueprint: pass --blueprint or set paths.blueprint_path in the config")
			}
			bp, err := blueprint.Load(bpPath)
			if err != nil {
				return fmt.Errorf("load blueprint: %w", err)
			}

			corpus, err := resolveCorpus(corpusPath, cfg.Paths.CorpusPath)
			if err != nil {
				return err
			}

			logger := logging.NewNop()
			if !jsonOutput {
				logPath := filepath.Join(cfg.Paths.LogDir, "songforge.log")
				logger, err = logging.New(logging.Options{
					Level:       cfg.Logging.Level,
					Format:      cfg.Logging.Format,
					OutputPaths: []string{"stderr", logPath},
				})
				if err != nil {
					return fmt.Errorf("build logger: %w", err)
				}
				logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
					Dir:     cfg.Paths.LogDir,
					Pattern: "*.log",
					Exclude: []string{logPath},
				})
			}

			opts := []pipeline.Option{
				pipeline.WithMaxFixAttempts(cfg.Pipeline.MaxFixAttempts),
				pipeline.WithStageTimeout(time.Duration(cfg.Pipeline.StageTimeoutSeconds) * time.Second),
			}

			var pinner *provenance.Pinner
			if noStore {
				pinner = provenance.NewPinner(provenance.NewMemoryPinStore(), corpus)
			} else {
				store, err := ctx.openStore()
				if err != nil {
					return fmt.Errorf("open run store: %w", err)
				}
				defer store.Close()

				// One writer per data directory.
				lock := flock.New(cfg.LockPath())
				locked, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire data dir lock: %w", err)
				}
				if !locked {
					return errors.New("another songforge run is writing to this data directory")
				}
				defer func() { _ = lock.Unlock() }()

				pinner = provenance.NewPinner(store, corpus)
				opts = append(opts, pipeline.WithRecorder(store))
			}

			orc, err := pipeline.New(bp, pinner, logger, opts...)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}

			result, err := orc.Execute(cmd.Context(), spec, seed, nil)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, result)
			}
			renderRunResult(cmd.OutOrStdout(), result)
			if result.Status != pipeline.StatusSucceeded {
				return fmt.Errorf("run %s %s: %s", result.RunID, result.Status, result.FailureReason)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "Specification file (TOML)")
	cmd.Flags().StringVarP(&blueprintPath, "blueprint", "b", "", "Blueprint file (TOML); defaults to paths.blueprint_path")
	cmd.Flags().StringVar(&corpusPath, "corpus", "", "Reference corpus file (TOML); defaults to paths.corpus_path or the builtin corpus")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Base seed; identical spec and seed reproduce the run")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run result as JSON")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Skip persistence; pins live only for this invocation")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}

func resolveCorpus(flagPath, configPath string) (provenance.Corpus, error) {
	path := strings.TrimSpace(flagPath)
	if path == "" {
		path = strings.TrimSpace(configPath)
	}
	if path == "" {
		return provenance.BuiltinCorpus(), nil
	}
	corpus, err := provenance.LoadCorpusFile(path)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	return corpus, nil
}
