// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer imports content from a legacy MySQL site database
// into the local store: posts become articles, works become projects,
// and quotes become testimonials.
package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql" // legacy source driver

	"github.com/folio-labs/folio-go/internal/model"
	"github.com/folio-labs/folio-go/internal/repo"
	"github.com/folio-labs/folio-go/internal/util"
)

// Config describes the legacy MySQL database to import from.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	TablePrefix string
}

// DSN builds the MySQL connection string.
func (c Config) DSN() string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.User, c.Password, c.Host, port, c.Database)
}

func (c Config) table(name string) string {
	return c.TablePrefix + name
}

// TestConnection verifies the legacy database is reachable.
func TestConnection(ctx context.Context, cfg Config) error {
	src, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return fmt.Errorf("opening legacy database: %w", err)
	}
	defer func() { _ = src.Close() }()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := src.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging legacy database: %w", err)
	}
	return nil
}

// Result summarizes one import run.
type Result struct {
	Articles     int
	Projects     int
	Testimonials int
	Skipped      int
}

// Importer copies legacy content into the local repositories.
type Importer struct {
	projects     *repo.ProjectRepository
	articles     *repo.ArticleRepository
	testimonials *repo.TestimonialRepository
	db           *sql.DB
	logger       *slog.Logger
}

// NewImporter creates an Importer writing into the given local database.
func NewImporter(db *sql.DB, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		projects:     repo.NewProjectRepository(db, logger),
		articles:     repo.NewArticleRepository(db, logger),
		testimonials: repo.NewTestimonialRepository(db),
		db:           db,
		logger:       logger,
	}
}

// Run connects to the legacy database and imports its content. Rows
// whose slug already exists locally are skipped, so re-running an
// import is safe.
func (i *Importer) Run(ctx context.Context, cfg Config) (*Result, error) {
	src, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening legacy database: %w", err)
	}
	defer func() { _ = src.Close() }()

	if err := src.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging legacy database: %w", err)
	}

	result := &Result{}
	if err := i.importArticles(ctx, src, cfg, result); err != nil {
		return result, err
	}
	if err := i.importProjects(ctx, src, cfg, result); err != nil {
		return result, err
	}
	if err := i.importTestimonials(ctx, src, cfg, result); err != nil {
		return result, err
	}

	i.logger.Info("legacy import complete",
		"articles", result.Articles,
		"projects", result.Projects,
		"testimonials", result.Testimonials,
		"skipped", result.Skipped)
	return result, nil
}

func (i *Importer) importArticles(ctx context.Context, src *sql.DB, cfg Config, result *Result) error {
	q := fmt.Sprintf(
		"SELECT title, body, excerpt, category, tags, published, published_at FROM %s",
		cfg.table("posts"))
	rows, err := src.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("reading legacy posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var title, body string
		var excerpt, category, tags sql.NullString
		var published bool
		var publishedAt sql.NullTime
		if err := rows.Scan(&title, &body, &excerpt, &category, &tags, &published, &publishedAt); err != nil {
			return fmt.Errorf("scanning legacy post: %w", err)
		}

		slug, fresh, err := i.uniqueSlug(ctx, "articles", title)
		if err != nil {
			return err
		}
		if !fresh {
			result.Skipped++
			continue
		}

		status := model.StatusDraft
		if published {
			status = model.StatusPublished
		}
		fields := map[string]any{
			"title":    title,
			"slug":     slug,
			"body":     body,
			"excerpt":  excerpt.String,
			"category": category.String,
			"tags":     tags.String,
			"status":   status,
		}
		if publishedAt.Valid {
			fields["published_at"] = publishedAt.Time.UTC().Format("2006-01-02 15:04:05")
		}
		if _, err := i.articles.Create(ctx, fields); err != nil {
			return fmt.Errorf("importing post %q: %w", title, err)
		}
		result.Articles++
	}
	return rows.Err()
}

func (i *Importer) importProjects(ctx context.Context, src *sql.DB, cfg Config, result *Result) error {
	q := fmt.Sprintf(
		"SELECT title, description, body, category, tags, year, featured, published FROM %s",
		cfg.table("works"))
	rows, err := src.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("reading legacy works: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var title string
		var description, body, category, tags sql.NullString
		var year sql.NullInt64
		var featured, published bool
		if err := rows.Scan(&title, &description, &body, &category, &tags, &year, &featured, &published); err != nil {
			return fmt.Errorf("scanning legacy work: %w", err)
		}

		slug, fresh, err := i.uniqueSlug(ctx, "projects", title)
		if err != nil {
			return err
		}
		if !fresh {
			result.Skipped++
			continue
		}

		status := model.StatusDraft
		if published {
			status = model.StatusPublished
		}
		_, err = i.projects.Create(ctx, map[string]any{
			"title":    title,
			"slug":     slug,
			"summary":  description.String,
			"body":     body.String,
			"category": category.String,
			"tags":     tags.String,
			"year":     int(year.Int64),
			"featured": featured,
			"status":   status,
		})
		if err != nil {
			return fmt.Errorf("importing work %q: %w", title, err)
		}
		result.Projects++
	}
	return rows.Err()
}

func (i *Importer) importTestimonials(ctx context.Context, src *sql.DB, cfg Config, result *Result) error {
	q := fmt.Sprintf(
		"SELECT author, role, company, quote, rating, published FROM %s",
		cfg.table("testimonials"))
	rows, err := src.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("reading legacy testimonials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var author, quote string
		var role, company sql.NullString
		var rating sql.NullInt64
		var published bool
		if err := rows.Scan(&author, &role, &company, &quote, &rating, &published); err != nil {
			return fmt.Errorf("scanning legacy testimonial: %w", err)
		}

		status := model.StatusDraft
		if published {
			status = model.StatusPublished
		}
		if rating.Int64 < 1 || rating.Int64 > 5 {
			rating.Int64 = 5
		}
		_, err = i.testimonials.Create(ctx, map[string]any{
			"author":  author,
			"role":    role.String,
			"company": company.String,
			"quote":   quote,
			"rating":  int(rating.Int64),
			"status":  status,
		})
		if err != nil {
			return fmt.Errorf("importing testimonial by %q: %w", author, err)
		}
		result.Testimonials++
	}
	return rows.Err()
}

// uniqueSlug slugifies a title and reports whether the slug is new to
// the given table. An existing slug means the row was imported before.
func (i *Importer) uniqueSlug(ctx context.Context, table, title string) (string, bool, error) {
	slug := util.Slugify(title)
	if slug == "" {
		slug = "untitled"
	}
	switch table {
	case "articles", "projects":
	default:
		return "", false, fmt.Errorf("unknown table %q", table)
	}

	var n int
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE slug = ?", table)
	if err := i.db.QueryRowContext(ctx, q, slug).Scan(&n); err != nil {
		return "", false, fmt.Errorf("checking slug %q: %w", slug, err)
	}
	return slug, n == 0, nil
}
