package mysql

import (
	"context"
	"database/sql"

	"douro_cms/internal/domain"
)

// ItemStore is the collection_items table narrowed to one kind.
type ItemStore struct {
	r    *Repo
	kind domain.ItemKind
}

func (r *Repo) Items(kind domain.ItemKind) ItemStore { return ItemStore{r: r, kind: kind} }

func scanItem(s scanner) (domain.Item, error) {
	var (
		it            domain.Item
		tPT, tEN, tFR sql.NullString
		dPT, dEN, dFR sql.NullString
	)
	if err := s.Scan(&it.ID, &it.Kind, &tPT, &tEN, &tFR, &dPT, &dEN, &dFR, &it.Order, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return it, err
	}
	it.Title = textOf(tPT, tEN, tFR)
	it.Description = textOf(dPT, dEN, dFR)
	return it, nil
}

func (s ItemStore) Create(ctx context.Context, it *domain.Item) error {
	it.Kind = s.kind
	_, err := s.r.db.ExecContext(ctx, insertItemSQL,
		it.ID, string(s.kind),
		it.Title.PT, valStr(it.Title.EN), valStr(it.Title.FR),
		valStr(it.Description.PT), valStr(it.Description.EN), valStr(it.Description.FR),
		it.Order, it.CreatedAt, it.UpdatedAt)
	return err
}

func (s ItemStore) Find(ctx context.Context, id string) (*domain.Item, error) {
	it, err := scanItem(s.r.db.QueryRowContext(ctx,
		"SELECT "+itemCols+" FROM collection_items WHERE id = ? AND kind = ?", id, string(s.kind)))
	if err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}

func (s ItemStore) List(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.r.db.QueryContext(ctx,
		"SELECT "+itemCols+" FROM collection_items WHERE kind = ? ORDER BY display_order, created_at", string(s.kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s ItemStore) Update(ctx context.Context, it *domain.Item) error {
	return s.r.execOne(ctx, "collection_items", it.ID, updateItemSQL,
		it.Title.PT, valStr(it.Description.PT), it.Order, it.UpdatedAt, it.ID, string(s.kind))
}

func (s ItemStore) Delete(ctx context.Context, id string) error {
	return s.r.execOne(ctx, "collection_items", id,
		"DELETE FROM collection_items WHERE id = ? AND kind = ?", id, string(s.kind))
}

type TestimonialStore struct{ r *Repo }

func (r *Repo) Testimonials() TestimonialStore { return TestimonialStore{r} }

func scanTestimonial(s scanner) (domain.Testimonial, error) {
	var t domain.Testimonial
	var pt, en, fr sql.NullString
	if err := s.Scan(&t.ID, &t.ClientName, &pt, &en, &fr, &t.Order, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return t, err
	}
	t.Text = textOf(pt, en, fr)
	return t, nil
}

func (s TestimonialStore) Create(ctx context.Context, t *domain.Testimonial) error {
	_, err := s.r.db.ExecContext(ctx, insertTestimonialSQL,
		t.ID, t.ClientName, t.Text.PT, valStr(t.Text.EN), valStr(t.Text.FR), t.Order, t.CreatedAt, t.UpdatedAt)
	return err
}

func (s TestimonialStore) Find(ctx context.Context, id string) (*domain.Testimonial, error) {
	t, err := scanTestimonial(s.r.db.QueryRowContext(ctx, "SELECT "+testimonialCols+" FROM testimonials WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s TestimonialStore) List(ctx context.Context) ([]domain.Testimonial, error) {
	rows, err := s.r.db.QueryContext(ctx, "SELECT "+testimonialCols+" FROM testimonials ORDER BY display_order, created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Testimonial{}
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s TestimonialStore) Update(ctx context.Context, t *domain.Testimonial) error {
	return s.r.execOne(ctx, "testimonials", t.ID, updateTestimonialSQL,
		t.ClientName, t.Text.PT, t.Order, t.UpdatedAt, t.ID)
}

func (s TestimonialStore) Delete(ctx context.Context, id string) error {
	return s.r.execOne(ctx, "testimonials", id, "DELETE FROM testimonials WHERE id = ?", id)
}

type TeamStore struct{ r *Repo }

func (r *Repo) Team() TeamStore { return TeamStore{r} }

func scanMember(s scanner) (domain.TeamMember, error) {
	var m domain.TeamMember
	var phone, email, photo sql.NullString
	if err := s.Scan(&m.ID, &m.Name, &phone, &email, &photo, &m.Order, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return m, err
	}
	m.Phone, m.Email, m.Photo = strOf(phone), strOf(email), strOf(photo)
	return m, nil
}

func (s TeamStore) Create(ctx context.Context, m *domain.TeamMember) error {
	_, err := s.r.db.ExecContext(ctx, insertTeamSQL,
		m.ID, m.Name, valStr(m.Phone), valStr(m.Email), valStr(m.Photo), m.Order, m.CreatedAt, m.UpdatedAt)
	return err
}

func (s TeamStore) Find(ctx context.Context, id string) (*domain.TeamMember, error) {
	m, err := scanMember(s.r.db.QueryRowContext(ctx, "SELECT "+teamCols+" FROM team_members WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s TeamStore) List(ctx context.Context) ([]domain.TeamMember, error) {
	rows, err := s.r.db.QueryContext(ctx, "SELECT "+teamCols+" FROM team_members ORDER BY display_order, created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.TeamMember{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s TeamStore) Update(ctx context.Context, m *domain.TeamMember) error {
	return s.r.execOne(ctx, "team_members", m.ID, updateTeamSQL,
		m.Name, valStr(m.Phone), valStr(m.Email), valStr(m.Photo), m.Order, m.UpdatedAt, m.ID)
}

// Delete detaches the member from its properties through ON DELETE SET NULL.
func (s TeamStore) Delete(ctx context.Context, id string) error {
	return s.r.execOne(ctx, "team_members", id, "DELETE FROM team_members WHERE id = ?", id)
}

// NewsletterStore keeps the article row and its ordered property links together.
type NewsletterStore struct{ r *Repo }

func (r *Repo) Newsletters() NewsletterStore { return NewsletterStore{r} }

func scanNewsletter(s scanner) (domain.Newsletter, error) {
	var n domain.Newsletter
	var cover sql.NullString
	if err := s.Scan(&n.ID, &n.Title, &n.Content, &n.Category, &n.ReadingTime, &cover, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return n, err
	}
	n.CoverImage = strOf(cover)
	return n, nil
}

func (s NewsletterStore) Create(ctx context.Context, n *domain.Newsletter) error {
	return s.r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertNewsletterSQL,
			n.ID, n.Title, n.Content, n.Category, n.ReadingTime, valStr(n.CoverImage), n.CreatedAt, n.UpdatedAt,
		); err != nil {
			return err
		}
		return linkProperties(ctx, tx, n.ID, n.PropertyIDs)
	})
}

func (s NewsletterStore) Find(ctx context.Context, id string) (*domain.Newsletter, error) {
	n, err := scanNewsletter(s.r.db.QueryRowContext(ctx, "SELECT "+newsletterCols+" FROM newsletters WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	if n.PropertyIDs, err = s.propertyIDs(ctx, id); err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns newest first.
func (s NewsletterStore) List(ctx context.Context) ([]domain.Newsletter, error) {
	rows, err := s.r.db.QueryContext(ctx, "SELECT "+newsletterCols+" FROM newsletters ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	out := []domain.Newsletter{}
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].PropertyIDs, err = s.propertyIDs(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s NewsletterStore) Update(ctx context.Context, n *domain.Newsletter) error {
	return s.r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateNewsletterSQL,
			n.Title, n.Content, n.Category, n.ReadingTime, valStr(n.CoverImage), n.UpdatedAt, n.ID)
		if err != nil {
			return err
		}
		if k, _ := res.RowsAffected(); k == 0 {
			var one int
			if err := tx.QueryRowContext(ctx, "SELECT 1 FROM newsletters WHERE id = ?", n.ID).Scan(&one); err != nil {
				return notFound(err)
			}
		}
		if _, err := tx.ExecContext(ctx, deleteNewsletterPropsSQL, n.ID); err != nil {
			return err
		}
		return linkProperties(ctx, tx, n.ID, n.PropertyIDs)
	})
}

func (s NewsletterStore) Delete(ctx context.Context, id string) error {
	return s.r.execOne(ctx, "newsletters", id, "DELETE FROM newsletters WHERE id = ?", id)
}

func (s NewsletterStore) propertyIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := s.r.db.QueryContext(ctx, newsletterPropsSQL, id)
	if err != nil {
		return nil, err
	}
	ids, err := collectIDs(rows)
	if ids == nil {
		ids = []string{}
	}
	return ids, err
}

func linkProperties(ctx context.Context, tx *sql.Tx, newsletterID string, ids []string) error {
	for i, pid := range ids {
		if _, err := tx.ExecContext(ctx, insertNewsletterPropSQL, newsletterID, pid, i); err != nil {
			return err
		}
	}
	return nil
}
