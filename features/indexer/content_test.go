package indexer_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"lusso/backend/features/indexer"
)

func TestProjectSource_ListPublished(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	src := indexer.NewProjectSource(db)

	cols := []string{"id", "slug", "title_en", "title_ar", "description_en", "description_ar", "materials", "features", "location", "category"}
	rows := sqlmock.NewRows(cols).AddRow(
		"p1", "marina-penthouse", "Marina Penthouse Kitchen", "مطبخ بنتهاوس المارينا",
		"Modern aluminum kitchen with quartz countertop", "مطبخ ألمنيوم حديث",
		pq.Array([]string{"aluminum", "quartz"}), pq.Array([]string{"island", "soft-close"}),
		"Dubai", "modern")

	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE published = TRUE")).
		WillReturnRows(rows)

	items, err := src.ListPublished(context.Background())
	assert.NoError(t, err)
	assert.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "p1", item.ID)
	assert.Equal(t, "Marina Penthouse Kitchen", item.Title)
	// Both language variants and the list fields land in the indexed text.
	assert.Contains(t, item.Text, "مطبخ بنتهاوس المارينا")
	assert.Contains(t, item.Text, "Modern aluminum kitchen with quartz countertop")
	assert.Contains(t, item.Text, "aluminum quartz")
	assert.Contains(t, item.Text, "island soft-close")
	assert.Contains(t, item.Text, "Dubai")
	assert.Equal(t, "marina-penthouse", item.Metadata["slug"])
	assert.Equal(t, "modern", item.Metadata["category"])
	assert.Equal(t, "Dubai", item.Metadata["location"])
}

func TestProjectSource_GetPublished_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	src := indexer.NewProjectSource(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1 AND published = TRUE")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	item, err := src.GetPublished(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, item)
}

func TestServiceSource_GetPublished(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	src := indexer.NewServiceSource(db)

	cols := []string{"id", "slug", "name_en", "name_ar", "description_en", "description_ar", "features", "icon"}
	rows := sqlmock.NewRows(cols).AddRow(
		"s1", "bespoke-cabinetry", "Bespoke Cabinetry", "خزائن حسب الطلب",
		"Custom walnut cabinets", "خزائن جوز مخصصة", pq.Array([]string{"walnut", "handmade"}), "cabinet")

	mock.ExpectQuery(regexp.QuoteMeta("FROM services WHERE id = $1 AND published = TRUE")).
		WithArgs("s1").
		WillReturnRows(rows)

	item, err := src.GetPublished(context.Background(), "s1")
	assert.NoError(t, err)
	assert.Equal(t, "Bespoke Cabinetry", item.Title)
	assert.Contains(t, item.Text, "خزائن حسب الطلب")
	assert.Contains(t, item.Text, "walnut handmade")
	assert.Equal(t, "cabinet", item.Metadata["icon"])
}

func TestGallerySource_ListPublished(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	src := indexer.NewGallerySource(db)

	cols := []string{"id", "title_en", "title_ar", "caption_en", "caption_ar", "tags", "category", "image_url"}
	rows := sqlmock.NewRows(cols).AddRow(
		"g1", "Walnut Island", "جزيرة الجوز", "Handcrafted island", "جزيرة مصنوعة يدويا",
		pq.Array([]string{"walnut", "island"}), "classic", "https://cdn.example.com/g1.jpg")

	mock.ExpectQuery(regexp.QuoteMeta("FROM gallery_images WHERE published = TRUE")).
		WillReturnRows(rows)

	items, err := src.ListPublished(context.Background())
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "https://cdn.example.com/g1.jpg", items[0].Metadata["image_url"])
	assert.Contains(t, items[0].Text, "walnut island")
}

func TestBlogSource_ListPublished(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	src := indexer.NewBlogSource(db)

	cols := []string{"id", "slug", "title_en", "title_ar", "excerpt_en", "excerpt_ar", "body_en", "body_ar", "tags"}
	rows := sqlmock.NewRows(cols).AddRow(
		"b1", "kitchen-trends-2026", "Kitchen Trends 2026", "اتجاهات المطابخ ٢٠٢٦",
		"What's next for worktops", "ما هو القادم", "Long body text", "نص طويل",
		pq.Array([]string{"trends", "worktops"}))

	mock.ExpectQuery(regexp.QuoteMeta("FROM blog_posts WHERE published = TRUE")).
		WillReturnRows(rows)

	items, err := src.ListPublished(context.Background())
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "Kitchen Trends 2026", items[0].Title)
	assert.Contains(t, items[0].Text, "Long body text")
	assert.Equal(t, "kitchen-trends-2026", items[0].Metadata["slug"])
}
