package logger_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/chesscoach/internal/logger"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.WARN))

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "shown 1")
	assert.False(t, log.Enabled(logger.INFO))
	assert.True(t, log.Enabled(logger.ERROR))
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.DEBUG)).
		WithPrefix("analysis").
		WithFields(map[string]any{"move": 12, "game_id": 7, "best": "e2e4"})

	log.Info("classified")

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "[analysis]")
	assert.True(t, strings.HasSuffix(line, "classified best=e2e4 game_id=7 move=12"), line)
}

func TestLogger_QuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf)).WithField("engine", "Stockfish 16")
	log.Info("ready")
	assert.Contains(t, buf.String(), `engine="Stockfish 16"`)
}

func TestLogger_DerivedLoggersDoNotShareFields(t *testing.T) {
	var buf bytes.Buffer
	base := logger.New(logger.WithOutput(&buf)).WithField("a", 1)
	_ = base.WithField("b", 2)

	base.Info("base")
	assert.NotContains(t, buf.String(), "b=2")
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf)).WithField("job", "analyze_game")
	ctx := logger.NewContext(context.Background(), log)

	logger.FromContext(ctx).Info("from context")
	assert.Contains(t, buf.String(), "job=analyze_game")

	assert.Same(t, logger.Default(), logger.FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logger.DEBUG, logger.ParseLevel("debug"))
	assert.Equal(t, logger.WARN, logger.ParseLevel("warning"))
	assert.Equal(t, logger.INFO, logger.ParseLevel("nonsense"))
}
