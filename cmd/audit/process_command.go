package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"call-audit-go/internal/asr"
	"call-audit-go/internal/batch"
	"call-audit-go/internal/domain"
	"call-audit-go/internal/logger"
	"call-audit-go/internal/pipeline"
	"call-audit-go/internal/report"
	"call-audit-go/internal/resources"
	"call-audit-go/internal/sentiment"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var (
		level        string
		format       string
		outputDir    string
		noIndividual bool
		noExcel      bool
		workers      int
		timeout      time.Duration
		minScore     float64
	)

	cmd := &cobra.Command{
		Use:   "process <folder>",
		Short: "Audit every recording in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			depth, ok := domain.ParseDepth(level)
			if !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "unknown level %q, using %s\n", level, depth)
			}

			rulesets, err := ctx.openRulesetStore()
			if err != nil {
				return err
			}
			results, err := ctx.openResultStore()
			if err != nil {
				return err
			}
			defer results.Close()

			selector := resources.NewSelector(envInt("MAX_WORKERS", defaultWorkerCeiling))
			cfg := selector.Select(depth)
			if workers > 0 {
				cfg.WorkerCount = workers
			}

			orch := pipeline.New(
				buildEngine(cfg),
				sentiment.NewLexiconAnalyzer(),
				rulesets,
				pipeline.Options{
					TranscribeTimeout: envDuration("TRANSCRIBE_TIMEOUT", 0),
					StageTimeout:      envDuration("STAGE_TIMEOUT", 0),
					UserID:            os.Getenv("AUDIT_RULES_USER"),
				},
			)
			coordinator := batch.NewCoordinator(orch, results, batch.Options{
				Depth:    depth,
				Workers:  cfg.WorkerCount,
				Timeout:  timeout,
				MinScore: minScore,
			})

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			batchResult, err := coordinator.Run(runCtx, args[0])
			if err != nil {
				return err
			}

			if err := writeOutputs(cmd, batchResult, format, outputDir, noIndividual, noExcel, minScore); err != nil {
				return err
			}
			if batchResult.FullyFailed() {
				return fmt.Errorf("all %d calls failed", batchResult.TotalCalls)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&level, "level", "l", string(domain.DepthStandard), "Analysis depth: basic, standard or advanced")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Console output format: table or json")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "reports", "Directory for report files")
	cmd.Flags().BoolVar(&noIndividual, "no-individual", false, "Skip per-call JSON documents")
	cmd.Flags().BoolVar(&noExcel, "no-excel", false, "Skip the consolidated Excel workbook")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker count override (0 selects by machine resources)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall batch deadline, e.g. 30m (0 disables)")
	cmd.Flags().Float64Var(&minScore, "min-score", domain.DefaultPassThreshold, "Minimum QA score for a passing call")

	return cmd
}

// defaultWorkerCeiling caps parallel transcriptions regardless of core count.
const defaultWorkerCeiling = 4

// buildEngine picks the ASR backend: the canned engine when requested or
// when no service endpoint is configured.
func buildEngine(cfg resources.Configuration) asr.Engine {
	baseURL := os.Getenv("ASR_URL")
	if asr.MockEnabled() || baseURL == "" {
		if baseURL == "" && !asr.MockEnabled() {
			logger.New().Warn("ASR_URL not set, using the mock transcription engine")
		}
		return asr.MockEngine{}
	}
	return asr.NewClient(baseURL, string(cfg.ModelTier))
}

func writeOutputs(cmd *cobra.Command, batchResult *domain.BatchResult, format, outputDir string, noIndividual, noExcel bool, minScore float64) error {
	switch format {
	case "json":
		doc, err := json.MarshalIndent(batchResult, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(doc))
	default:
		fmt.Fprintln(cmd.OutOrStdout(), report.RenderBatchTable(batchResult, minScore))
	}

	if !noIndividual {
		if _, err := report.WriteCallJSON(outputDir, batchResult); err != nil {
			return err
		}
	}
	if _, err := report.WriteBatchJSON(outputDir, batchResult); err != nil {
		return err
	}
	if !noExcel {
		path, err := report.WriteWorkbook(outputDir, batchResult, minScore)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "workbook: %s\n", path)
	}
	return nil
}
