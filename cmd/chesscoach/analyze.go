package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vytor/chesscoach/internal/config"
	"github.com/vytor/chesscoach/internal/engine"
	"github.com/vytor/chesscoach/internal/logger"
	"github.com/vytor/chesscoach/internal/models"
	"github.com/vytor/chesscoach/internal/pgn"
	"github.com/vytor/chesscoach/internal/services"
)

var (
	analyzeSide           string
	analyzeDeep           bool
	analyzeDepth          int
	analyzeOpponentRating int
	analyzeEngine         string
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze one PGN game and print the analysis and metrics as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyzeCmd,
	}

	cmd.Flags().StringVar(&analyzeSide, "side", "white", "side played by the analyzed player (white|black)")
	cmd.Flags().BoolVar(&analyzeDeep, "deep", false, "use the deep search depth")
	cmd.Flags().IntVar(&analyzeDepth, "depth", 0, "search depth override")
	cmd.Flags().IntVar(&analyzeOpponentRating, "opponent-rating", 0, "opponent rating override")
	cmd.Flags().StringVar(&analyzeEngine, "engine", "", "path to a UCI engine (default: STOCKFISH_PATH)")
	return cmd
}

type analyzeOutput struct {
	Analysis *models.GameAnalysis `json:"analysis"`
	Metrics  *models.GameMetrics  `json:"metrics"`
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if analyzeEngine != "" {
		cfg.StockfishPath = analyzeEngine
	}
	log := setupLogger(cfg, cmd.ErrOrStderr(), false)

	side, err := models.ParseSide(analyzeSide)
	if err != nil {
		return err
	}
	if analyzeDepth < 0 || analyzeOpponentRating < 0 {
		return fmt.Errorf("--depth and --opponent-rating cannot be negative")
	}

	analysisCfg, err := analysisConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to load thresholds: %w", err)
	}
	if analyzeDepth > 0 {
		analysisCfg.Depth = analyzeDepth
		analysisCfg.DeepDepth = analyzeDepth
	}

	text, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	record, err := pgn.ParseGameRecord(string(text), side)
	if err != nil {
		return err
	}
	if analyzeOpponentRating > 0 {
		record.OpponentRating = analyzeOpponentRating
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.NewContext(ctx, log)

	engines, err := engine.NewStockfishPool(ctx, cfg.StockfishPath, 1)
	if err != nil {
		return err
	}
	defer engines.Close()

	svc := services.NewAnalysisService(nil, nil, nil, engines, analysisCfg)
	a, m, err := svc.AnalyzeRecord(ctx, record, analyzeDeep)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(analyzeOutput{Analysis: a, Metrics: m})
}
