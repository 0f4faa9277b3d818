package quota

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
)

// Window is the rolling period after which the generation counter resets.
const Window = 24 * time.Hour

// Decision is the outcome of a quota check. Handlers never see the store
// error that may have produced it; the enforcement mode already folded it
// into Allowed, and Degraded marks decisions made without a confirmed read.
type Decision struct {
	Allowed   bool
	Plan      domain.UserPlan
	Current   int
	Max       int
	Remaining int
	Degraded  bool
}

// Status is the raw record view served by the debug endpoint, with the
// window arithmetic the gate would apply.
type Status struct {
	Record      *domain.UserQuota
	Anchor      time.Time
	WindowReset bool
	Remaining   int
}

// Gate enforces per-user daily generation limits.
//
// All window arithmetic happens here, against the timestamps the store
// hands back as raw strings. Check and Increment each run inside a store
// transaction so a read-modify-write cannot interleave with another
// instance's.
type Gate struct {
	store  domain.QuotaStore
	mode   infra.QuotaEnforcementMode
	logger zerolog.Logger
	now    func() time.Time
}

func NewGate(store domain.QuotaStore, mode infra.QuotaEnforcementMode, logger zerolog.Logger) *Gate {
	return &Gate{store: store, mode: mode, logger: logger, now: time.Now}
}

// Check decides whether the user may generate right now. It never returns
// an error: a store failure is resolved by the enforcement mode, fail_open
// allowing the request and strict denying it.
//
// The check self-heals the record as it goes: a missing record is created,
// a stale per-plan ceiling is rewritten, an expired pro plan is downgraded,
// and a counter older than the window is reset to zero.
func (g *Gate) Check(ctx context.Context, userID, email string) Decision {
	dec, err := g.check(ctx, userID, email)
	if err == nil {
		return dec
	}
	g.logger.Error().Err(err).Str("user_id", userID).Msg("quota check failed")

	if g.mode == infra.QuotaStrict {
		return Decision{Allowed: false, Plan: domain.UserPlanFree, Max: domain.FreeDailyGenerations, Degraded: true}
	}

	// Fail open: degrade to a plain read and compare the raw counter, with
	// no window or expiry logic. Only when even that read fails does the
	// request go through unconditionally.
	rec, snapErr := g.store.Snapshot(ctx, userID)
	if snapErr == nil {
		dec = decisionFor(rec, rec.DailyGenerations < rec.MaxDailyGenerations)
		dec.Degraded = true
		g.logger.Warn().Str("user_id", userID).Bool("allowed", dec.Allowed).
			Int("current", dec.Current).Int("max", dec.Max).
			Msg("quota check degraded to snapshot read")
		return dec
	}
	g.logger.Warn().Err(snapErr).Str("user_id", userID).Msg("quota fallback read failed, allowing by fail_open")
	return Decision{
		Allowed:   true,
		Plan:      domain.UserPlanFree,
		Max:       domain.FreeDailyGenerations,
		Remaining: domain.FreeDailyGenerations,
		Degraded:  true,
	}
}

func (g *Gate) check(ctx context.Context, userID, email string) (Decision, error) {
	var dec Decision
	err := g.store.WithTx(ctx, func(ctx context.Context, tx domain.QuotaTxn) error {
		now := g.now().UTC()
		rec, err := tx.Get(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			stamp := formatTime(now)
			rec = &domain.UserQuota{
				UserID:              userID,
				Email:               email,
				Plan:                domain.UserPlanFree,
				MaxDailyGenerations: domain.FreeDailyGenerations,
				FirstGenerationDate: stamp,
				LastGenerationDate:  stamp,
			}
			if err := tx.Insert(ctx, rec); err != nil {
				return err
			}
			dec = decisionFor(rec, true)
			return nil
		}
		if err != nil {
			return err
		}

		dirty := false

		if g.downgradeExpired(rec, now) {
			dirty = true
		}

		if limit := rec.Plan.DailyLimit(); rec.MaxDailyGenerations != limit {
			rec.MaxDailyGenerations = limit
			dirty = true
		}

		if now.Sub(g.anchor(rec, now)) >= Window {
			stamp := formatTime(now)
			rec.DailyGenerations = 0
			rec.FirstGenerationDate = stamp
			rec.LastGenerationDate = stamp
			dirty = true
		}

		if dirty {
			if err := tx.Update(ctx, rec); err != nil {
				return err
			}
		}

		dec = decisionFor(rec, rec.DailyGenerations < rec.MaxDailyGenerations)
		return nil
	})
	return dec, err
}

// Increment records one consumed generation. A missing record is created
// with a count of one, and a count outside the window restarts at one with
// a fresh anchor. Unlike Check, failures propagate to the caller.
func (g *Gate) Increment(ctx context.Context, userID string) error {
	return g.store.WithTx(ctx, func(ctx context.Context, tx domain.QuotaTxn) error {
		now := g.now().UTC()
		stamp := formatTime(now)
		rec, err := tx.Get(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			rec = &domain.UserQuota{
				UserID:              userID,
				Plan:                domain.UserPlanFree,
				MaxDailyGenerations: domain.FreeDailyGenerations,
				DailyGenerations:    1,
				FirstGenerationDate: stamp,
				LastGenerationDate:  stamp,
			}
			return tx.Insert(ctx, rec)
		}
		if err != nil {
			return err
		}

		if now.Sub(g.anchor(rec, now)) >= Window {
			rec.DailyGenerations = 1
			rec.FirstGenerationDate = stamp
		} else {
			rec.DailyGenerations++
		}
		rec.LastGenerationDate = stamp
		return tx.Update(ctx, rec)
	})
}

// Status returns the stored record plus the window view the gate has of it,
// without mutating anything.
func (g *Gate) Status(ctx context.Context, userID string) (*Status, error) {
	rec, err := g.store.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := g.now().UTC()
	anchor := g.anchor(rec, now)
	return &Status{
		Record:      rec,
		Anchor:      anchor,
		WindowReset: now.Sub(anchor) >= Window,
		Remaining:   rec.Remaining(),
	}, nil
}

// BackfillWindowAnchor migrates records that predate the window anchor
// column, using the current time for records with no generation history.
func (g *Gate) BackfillWindowAnchor(ctx context.Context) (int64, error) {
	return g.store.BackfillWindowAnchor(ctx, formatTime(g.now().UTC()))
}

// downgradeExpired resets an expired pro plan to free. An unparsable expiry
// is left alone; the plan keeps its benefit rather than losing it to a bad
// string.
func (g *Gate) downgradeExpired(rec *domain.UserQuota, now time.Time) bool {
	if rec.Plan != domain.UserPlanPro || rec.PlanExpiry == "" {
		return false
	}
	expiry, ok := parseTimestamp(rec.PlanExpiry)
	if !ok || !expiry.Before(now) {
		return false
	}
	g.logger.Info().Str("user_id", rec.UserID).Str("expiry", rec.PlanExpiry).Msg("pro plan expired, downgrading to free")
	rec.Plan = domain.UserPlanFree
	rec.MaxDailyGenerations = domain.FreeDailyGenerations
	rec.PlanExpiry = ""
	return true
}

// anchor resolves the start of the current window: the first generation in
// the window, falling back to the last generation for records written
// before the anchor column existed, falling back to now (which reads as a
// fresh window).
func (g *Gate) anchor(rec *domain.UserQuota, now time.Time) time.Time {
	if t, ok := parseTimestamp(rec.FirstGenerationDate); ok {
		return t
	}
	if t, ok := parseTimestamp(rec.LastGenerationDate); ok {
		return t
	}
	if rec.FirstGenerationDate != "" || rec.LastGenerationDate != "" {
		g.logger.Warn().Str("user_id", rec.UserID).
			Str("first", rec.FirstGenerationDate).Str("last", rec.LastGenerationDate).
			Msg("unparsable quota timestamps, treating window as fresh")
	}
	return now
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// naiveLayouts cover timestamps written before the service normalized on
// UTC RFC 3339. They carry no zone, so they are read in server local time,
// matching how they were produced.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func decisionFor(rec *domain.UserQuota, allowed bool) Decision {
	return Decision{
		Allowed:   allowed,
		Plan:      rec.Plan,
		Current:   rec.DailyGenerations,
		Max:       rec.MaxDailyGenerations,
		Remaining: rec.Remaining(),
	}
}
