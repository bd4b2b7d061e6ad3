package indexer

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
)

// ContentItem is the indexing view of a CMS entity: a display title, the
// assembled searchable text and the metadata a search result needs to render
// without a follow-up fetch.
type ContentItem struct {
	ID       string
	Title    string
	Text     string
	Metadata map[string]interface{}
}

// ContentSource supplies the published rows of one CMS content type. The CMS
// owns these tables; this side only reads them.
type ContentSource interface {
	Type() string
	ListPublished(ctx context.Context) ([]ContentItem, error)
	// GetPublished returns nil without error when the entity does not exist
	// or is unpublished, so the caller can drop its embedding.
	GetPublished(ctx context.Context, id string) (*ContentItem, error)
}

// joinText concatenates the non-empty human-readable fields of an entity into
// the blob handed to the embedder. Both language variants are included so an
// Arabic query matches as well as an English one.
func joinText(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// --- Projects ---

type ProjectSource struct {
	db *sql.DB
}

func NewProjectSource(db *sql.DB) *ProjectSource {
	return &ProjectSource{db: db}
}

func (s *ProjectSource) Type() string { return "project" }

const projectColumns = `id, slug, title_en, title_ar, description_en, description_ar, materials, features, location, category`

func (s *ProjectSource) ListPublished(ctx context.Context) ([]ContentItem, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE published = TRUE ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ContentItem
	for rows.Next() {
		item, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *ProjectSource) GetPublished(ctx context.Context, id string) (*ContentItem, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND published = TRUE`
	item, err := scanProject(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return item, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*ContentItem, error) {
	var id, slug, titleEN, titleAR, descEN, descAR, location, category string
	var materials, features []string
	err := row.Scan(&id, &slug, &titleEN, &titleAR, &descEN, &descAR,
		pq.Array(&materials), pq.Array(&features), &location, &category)
	if err != nil {
		return nil, err
	}

	return &ContentItem{
		ID:    id,
		Title: titleEN,
		Text: joinText(titleAR, descEN, descAR,
			strings.Join(materials, " "), strings.Join(features, " "), location, category),
		Metadata: map[string]interface{}{
			"slug":     slug,
			"category": category,
			"location": location,
		},
	}, nil
}

// --- Services ---

type ServiceSource struct {
	db *sql.DB
}

func NewServiceSource(db *sql.DB) *ServiceSource {
	return &ServiceSource{db: db}
}

func (s *ServiceSource) Type() string { return "service" }

const serviceColumns = `id, slug, name_en, name_ar, description_en, description_ar, features, icon`

func (s *ServiceSource) ListPublished(ctx context.Context) ([]ContentItem, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE published = TRUE ORDER BY sort_order`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ContentItem
	for rows.Next() {
		item, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *ServiceSource) GetPublished(ctx context.Context, id string) (*ContentItem, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1 AND published = TRUE`
	item, err := scanService(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return item, err
}

func scanService(row rowScanner) (*ContentItem, error) {
	var id, slug, nameEN, nameAR, descEN, descAR, icon string
	var features []string
	err := row.Scan(&id, &slug, &nameEN, &nameAR, &descEN, &descAR, pq.Array(&features), &icon)
	if err != nil {
		return nil, err
	}

	return &ContentItem{
		ID:    id,
		Title: nameEN,
		Text:  joinText(nameAR, descEN, descAR, strings.Join(features, " ")),
		Metadata: map[string]interface{}{
			"slug": slug,
			"icon": icon,
		},
	}, nil
}

// --- Gallery ---

type GallerySource struct {
	db *sql.DB
}

func NewGallerySource(db *sql.DB) *GallerySource {
	return &GallerySource{db: db}
}

func (s *GallerySource) Type() string { return "gallery" }

const galleryColumns = `id, title_en, title_ar, caption_en, caption_ar, tags, category, image_url`

func (s *GallerySource) ListPublished(ctx context.Context) ([]ContentItem, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_images WHERE published = TRUE ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ContentItem
	for rows.Next() {
		item, err := scanGalleryImage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *GallerySource) GetPublished(ctx context.Context, id string) (*ContentItem, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_images WHERE id = $1 AND published = TRUE`
	item, err := scanGalleryImage(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return item, err
}

func scanGalleryImage(row rowScanner) (*ContentItem, error) {
	var id, titleEN, titleAR, captionEN, captionAR, category, imageURL string
	var tags []string
	err := row.Scan(&id, &titleEN, &titleAR, &captionEN, &captionAR, pq.Array(&tags), &category, &imageURL)
	if err != nil {
		return nil, err
	}

	return &ContentItem{
		ID:    id,
		Title: titleEN,
		Text:  joinText(titleAR, captionEN, captionAR, strings.Join(tags, " "), category),
		Metadata: map[string]interface{}{
			"image_url": imageURL,
			"category":  category,
			"tags":      tags,
		},
	}, nil
}

// --- Blog ---

type BlogSource struct {
	db *sql.DB
}

func NewBlogSource(db *sql.DB) *BlogSource {
	return &BlogSource{db: db}
}

func (s *BlogSource) Type() string { return "blog" }

const blogColumns = `id, slug, title_en, title_ar, excerpt_en, excerpt_ar, body_en, body_ar, tags`

func (s *BlogSource) ListPublished(ctx context.Context) ([]ContentItem, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE published = TRUE ORDER BY published_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ContentItem
	for rows.Next() {
		item, err := scanBlogPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *BlogSource) GetPublished(ctx context.Context, id string) (*ContentItem, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE id = $1 AND published = TRUE`
	item, err := scanBlogPost(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return item, err
}

func scanBlogPost(row rowScanner) (*ContentItem, error) {
	var id, slug, titleEN, titleAR, excerptEN, excerptAR, bodyEN, bodyAR string
	var tags []string
	err := row.Scan(&id, &slug, &titleEN, &titleAR, &excerptEN, &excerptAR, &bodyEN, &bodyAR, pq.Array(&tags))
	if err != nil {
		return nil, err
	}

	return &ContentItem{
		ID:    id,
		Title: titleEN,
		Text:  joinText(titleAR, excerptEN, excerptAR, bodyEN, bodyAR, strings.Join(tags, " ")),
		Metadata: map[string]interface{}{
			"slug": slug,
			"tags": tags,
		},
	}, nil
}
