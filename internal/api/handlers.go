package api

import (
	"context"
	"time"

	"github.com/vytor/chesscoach/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	DB              Pinger
	GameService     services.GameService
	AnalysisService services.AnalysisService
	ProfileService  services.ProfileService
	// RequestTimeout bounds every request; zero disables it.
	RequestTimeout time.Duration
}
