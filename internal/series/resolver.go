package series

import (
	"context"
	"log/slog"

	"github.com/Digital-Shane/vod2strm/internal/media"
)

// PrimarySource returns the raw provider-info document for a series. An empty
// map means "no episodes"; an error is only returned for failures that must
// stop the run.
type PrimarySource interface {
	Get(ctx context.Context, account media.Account, seriesID int) (map[string]any, error)
}

// SecondarySource queries the upstream provider directly for a series.
type SecondarySource interface {
	SeriesInfo(ctx context.Context, account media.Account, seriesID string) (map[string]any, error)
}

// Result is the outcome of resolving one series.
type Result struct {
	Info         media.ProviderInfo
	UsedFallback bool
}

type state int

const (
	statePrimary state = iota
	stateSecondary
	stateDone
)

func (s state) String() string {
	switch s {
	case statePrimary:
		return "primary"
	case stateSecondary:
		return "secondary"
	default:
		return "done"
	}
}

// resolution carries the data a single Resolve call accumulates between
// states.
type resolution struct {
	account media.Account
	series  media.Series
	result  Result
	err     error
}

// Resolver decides where a series' episodes come from. The secondary source
// is tried at most once, and only when the primary yields zero episodes,
// fallback is enabled and the account has secondary credentials.
type Resolver struct {
	primary   PrimarySource
	secondary SecondarySource
	fallback  bool
	logger    *slog.Logger
}

// NewResolver creates a Resolver. secondary may be nil when fallback is off.
func NewResolver(primary PrimarySource, secondary SecondarySource, fallback bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		primary:   primary,
		secondary: secondary,
		fallback:  fallback && secondary != nil,
		logger:    logger,
	}
}

// Resolve runs the state machine for one series until it reaches a terminal
// state.
func (r *Resolver) Resolve(ctx context.Context, account media.Account, s media.Series) (Result, error) {
	res := &resolution{account: account, series: s}
	for st := statePrimary; st != stateDone; {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		st = r.transition(ctx, st, res)
	}
	return res.result, res.err
}

func (r *Resolver) transition(ctx context.Context, st state, res *resolution) state {
	switch st {
	case statePrimary:
		return r.primaryStep(ctx, res)
	case stateSecondary:
		return r.secondaryStep(ctx, res)
	default:
		return stateDone
	}
}

func (r *Resolver) primaryStep(ctx context.Context, res *resolution) state {
	raw, err := r.primary.Get(ctx, res.account, int(res.series.ID))
	if err != nil {
		res.err = err
		return stateDone
	}

	info := Normalize(raw)
	res.result = Result{Info: info}
	if info.EpisodeCount() > 0 {
		return stateDone
	}
	if !r.fallback {
		return stateDone
	}
	if !res.account.HasXtreamCredentials() {
		r.logger.Info("skipping episode fallback, account has no upstream credentials",
			"account", res.account.Name, "series", res.series.Name)
		return stateDone
	}
	return stateSecondary
}

func (r *Resolver) secondaryStep(ctx context.Context, res *resolution) state {
	logger := r.logger.With("account", res.account.Name, "series", res.series.Name)

	id := res.series.ExternalID()
	if id == "" {
		logger.Info("skipping episode fallback, series has no usable id")
		return stateDone
	}

	info, err := r.secondary.SeriesInfo(ctx, res.account, id)
	if err != nil {
		logger.Info("episode fallback returned no usable data", "series_id", id, "error", err)
		return stateDone
	}

	adapted, ok := FromSecondary(info)
	if !ok {
		logger.Info("episode fallback response has no episodes", "series_id", id)
		return stateDone
	}

	normalized := Normalize(adapted)
	if normalized.EpisodeCount() == 0 {
		logger.Info("episode fallback yielded no valid episodes", "series_id", id)
		return stateDone
	}

	logger.Info("using episode fallback", "series_id", id,
		"seasons", len(normalized.Seasons), "episodes", normalized.EpisodeCount())
	res.result = Result{Info: normalized, UsedFallback: true}
	return stateDone
}
