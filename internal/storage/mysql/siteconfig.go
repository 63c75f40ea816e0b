package mysql

import (
	"context"
	"database/sql"

	"douro_cms/internal/domain"
)

func scanSiteConfig(s scanner) (*domain.SiteConfig, error) {
	var (
		c                 domain.SiteConfig
		presenter, podcast sql.NullString
	)
	err := s.Scan(&c.ID, &c.SatisfiedClients, &c.Rating, &c.YearsOfExperience, &c.PropertiesSold,
		&c.EpisodesPublished, &c.Seasons, &c.GuestExperts, &c.EurosInTransactions, &c.InstagramFollowers,
		&presenter, &podcast, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	c.PresenterImage, c.PodcastImage = strOf(presenter), strOf(podcast)
	return &c, nil
}

func (r *Repo) FindSiteConfig(ctx context.Context) (*domain.SiteConfig, error) {
	return scanSiteConfig(r.db.QueryRowContext(ctx, findSiteConfigSQL))
}

func (r *Repo) CreateSiteConfig(ctx context.Context, c *domain.SiteConfig) error {
	_, err := r.db.ExecContext(ctx, insertSiteConfigSQL,
		c.ID, c.SatisfiedClients, c.Rating, c.YearsOfExperience, c.PropertiesSold,
		c.EpisodesPublished, c.Seasons, c.GuestExperts, c.EurosInTransactions, c.InstagramFollowers,
		valStr(c.PresenterImage), valStr(c.PodcastImage), c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *Repo) UpdateSiteConfig(ctx context.Context, c *domain.SiteConfig) error {
	return r.execOne(ctx, "site_config", c.ID, updateSiteConfigSQL,
		c.SatisfiedClients, c.Rating, c.YearsOfExperience, c.PropertiesSold,
		c.EpisodesPublished, c.Seasons, c.GuestExperts, c.EurosInTransactions, c.InstagramFollowers,
		valStr(c.PresenterImage), valStr(c.PodcastImage), c.UpdatedAt, c.ID)
}
