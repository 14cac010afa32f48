// Package service orchestrates league and charter operations on behalf of an
// authenticated actor.
package service

import (
	"context"
	"fmt"
	"io"

	"muster/internal/cache"
	"muster/internal/models"
	"muster/internal/notifications"
	"muster/internal/repository"
)

// Result is the outcome of a charter operation. Changed is false when the
// operation found the charter already in the requested state.
type Result struct {
	Message  string          `json:"message"`
	Redirect string          `json:"redirect"`
	Changed  bool            `json:"-"`
	Charter  *models.Charter `json:"-"`
}

// Upload is a roster file submitted with a create or update.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// LifecycleNotifier is told about charter transitions after they commit.
type LifecycleNotifier interface {
	CharterSubmitted(ctx context.Context, n notifications.CharterNotice)
	CharterApproved(ctx context.Context, n notifications.CharterNotice)
	CharterRejected(ctx context.Context, n notifications.CharterNotice)
}

func leaguePath(league *models.League) string {
	return fmt.Sprintf("/leagues/%s", league.Slug)
}

func charterPath(league *models.League, c *models.Charter) string {
	return fmt.Sprintf("/leagues/%s/charters/%s", league.Slug, c.Slug)
}

// leagueCharters returns the live charters of a league, through the cache.
func leagueCharters(ctx context.Context, repo repository.CharterRepository, leagueID uint) ([]models.Charter, error) {
	return cache.Remember(ctx, cache.LeagueChartersKey(leagueID), cache.LeagueChartersTTL, func() ([]models.Charter, error) {
		return repo.ListByLeague(ctx, leagueID)
	})
}
