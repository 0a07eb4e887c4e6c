package scanner

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"appeal-bot/model"
	"appeal-bot/utils"
	"appeal-bot/utils/database"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const (
	defaultItemDelay   = 2 * time.Second
	defaultSweepBudget = 10 * time.Minute
)

// CleanupStore lists closed cases and records their cleanup.
type CleanupStore interface {
	FindCleanupCandidates(ctx context.Context, closedBefore time.Time) ([]model.Case, error)
	MarkCleanedUp(ctx context.Context, id string, at time.Time) error
}

// ChannelDeleter is the part of the Discord session used to remove case channels.
type ChannelDeleter interface {
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// SweepResult counts what one sweep did.
type SweepResult struct {
	Cleaned   int
	Forbidden int
	Skipped   int
	Failed    int
	Aborted   bool
}

// Cleaner deletes the channels of closed cases once their grace period has passed.
type Cleaner struct {
	store   CleanupStore
	discord ChannelDeleter
	grace   time.Duration
	delay   time.Duration
	budget  time.Duration
	now     func() time.Time
	wait    func(ctx context.Context, d time.Duration) error
	running atomic.Bool
	log     *logrus.Entry
}

func NewCleaner(store CleanupStore, discord ChannelDeleter, grace time.Duration) *Cleaner {
	return &Cleaner{
		store:   store,
		discord: discord,
		grace:   grace,
		delay:   defaultItemDelay,
		budget:  defaultSweepBudget,
		now:     time.Now,
		wait:    wait,
		log:     utils.Component("cleanup"),
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartChannelCleaner sweeps on every tick until done is closed. Closing done also
// cancels a sweep in progress.
func StartChannelCleaner(c *Cleaner, interval time.Duration, done <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep processes every eligible case once, sequentially. A sweep started while another
// is running returns immediately.
func (c *Cleaner) Sweep(ctx context.Context) SweepResult {
	var result SweepResult
	if !c.running.CompareAndSwap(false, true) {
		c.log.Debug("Cleanup sweep already running")
		return result
	}
	defer c.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	cases, err := c.store.FindCleanupCandidates(ctx, c.now().Add(-c.grace))
	if err != nil {
		c.log.WithError(err).Error("Failed to list cleanup candidates")
		return result
	}
	if len(cases) == 0 {
		return result
	}
	c.log.WithField("count", len(cases)).Info("Cleaning up closed case channels")

	for i := range cases {
		if i > 0 {
			if err := c.wait(ctx, c.delay); err != nil {
				result.Aborted = true
				break
			}
		}
		c.cleanOne(ctx, &cases[i], &result)
		if ctx.Err() != nil {
			result.Aborted = true
			break
		}
	}

	entry := c.log.WithFields(logrus.Fields{
		"cleaned":   result.Cleaned,
		"forbidden": result.Forbidden,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	})
	if result.Aborted {
		entry.Warn("Cleanup sweep stopped before finishing")
	} else {
		entry.Info("Cleanup sweep finished")
	}
	return result
}

func (c *Cleaner) cleanOne(ctx context.Context, cs *model.Case, result *SweepResult) {
	entry := c.log.WithFields(logrus.Fields{"case_id": cs.ID, "channel_id": cs.ChannelID})

	_, err := c.discord.ChannelDelete(cs.ChannelID, discordgo.WithContext(ctx))
	switch status := utils.RESTStatus(err); {
	case err == nil, status == http.StatusNotFound:
		if c.mark(ctx, cs, entry) {
			result.Cleaned++
		} else {
			result.Failed++
		}
	case status == http.StatusForbidden:
		entry.WithError(err).Warn("Missing permission to delete case channel, marking as cleaned up")
		if c.mark(ctx, cs, entry) {
			result.Forbidden++
		} else {
			result.Failed++
		}
	case status == http.StatusTooManyRequests:
		entry.Info("Rate limited while deleting case channel, retrying next sweep")
		result.Skipped++
	default:
		entry.WithError(err).Error("Failed to delete case channel")
		result.Failed++
	}
}

func (c *Cleaner) mark(ctx context.Context, cs *model.Case, entry *logrus.Entry) bool {
	err := c.store.MarkCleanedUp(ctx, cs.ID, c.now())
	if err == nil || errors.Is(err, database.ErrNotFound) {
		return true
	}
	entry.WithError(err).Error("Failed to mark case cleaned up")
	return false
}
