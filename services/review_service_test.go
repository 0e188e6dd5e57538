package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Clean-PRO/backend/cache"
	"github.com/Clean-PRO/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widgetComment(name, text string, full, half, empty int) string {
	var stars strings.Builder
	for i := 0; i < full; i++ {
		stars.WriteString(`<li class="stars-list__star"></li>`)
	}
	for i := 0; i < half; i++ {
		stars.WriteString(`<li class="stars-list__star _half"></li>`)
	}
	for i := 0; i < empty; i++ {
		stars.WriteString(`<li class="stars-list__star _empty"></li>`)
	}
	return fmt.Sprintf(`<div class="comment">
  <p class="comment__name"> %s </p>
  <ul class="stars-list">%s</ul>
  <p class="comment__text">
    %s
  </p>
</div>`, name, stars.String(), text)
}

func widgetPage(comments ...string) string {
	return "<html><body><div class=\"comments\">" + strings.Join(comments, "\n") + "</div></body></html>"
}

func TestParseReviews(t *testing.T) {
	page := widgetPage(
		widgetComment("Мария", "Всё чисто, спасибо!", 5, 0, 0),
		widgetComment("Oleg", "Opozdali na chas", 3, 1, 1),
	)

	reviews, err := ParseReviews(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	assert.Equal(t, ParsedReview{Username: "Мария", Text: "Всё чисто, спасибо!", Score: 5}, reviews[0])
	assert.Equal(t, ParsedReview{Username: "Oleg", Text: "Opozdali na chas", Score: 3}, reviews[1])
}

func TestParseReviewsEmptyPage(t *testing.T) {
	_, err := ParseReviews(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoReviews)

	reviews, err := ParseReviews(strings.NewReader(widgetPage()))
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func newReviewService(t *testing.T, pages ...string) (*ReviewService, *cache.MemoryCache) {
	t.Helper()
	db := setupTestDB(t)
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := pages[len(pages)-1]
		if calls < len(pages) {
			page = pages[calls]
		}
		calls++
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	mem := cache.NewMemoryCache()
	svc := NewReviewService(db, mem, srv.URL)
	svc.Now = func() time.Time { return time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, mem
}

func TestImportReviewsFirstRunAndIncremental(t *testing.T) {
	first := widgetPage(
		widgetComment("C", "third", 5, 0, 0),
		widgetComment("B", "second", 4, 0, 1),
		widgetComment("A", "first", 5, 0, 0),
	)
	second := widgetPage(
		widgetComment("E", "fifth", 2, 0, 3),
		widgetComment("D", "fourth", 5, 0, 0),
		widgetComment("C", "third", 5, 0, 0),
		widgetComment("B", "second", 4, 0, 1),
		widgetComment("A", "first", 5, 0, 0),
	)
	svc, mem := newReviewService(t, first, second)
	ctx := context.Background()

	n, err := svc.Import(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var texts []string
	svc.DB.Model(&models.Rating{}).Order("id").Pluck("text", &texts)
	assert.Equal(t, []string{"first", "second", "third"}, texts, "first import stores oldest first")

	require.NoError(t, mem.Set(ctx, []models.Rating{{Text: "stale"}}))

	n, err = svc.Import(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	texts = nil
	svc.DB.Model(&models.Rating{}).Order("id").Pluck("text", &texts)
	assert.Equal(t, []string{"first", "second", "third", "fourth", "fifth"}, texts)

	_, ok, _ := mem.Get(ctx)
	assert.False(t, ok, "import must invalidate the cache")

	n, err = svc.Import(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "nothing new")
}

func TestImportReviewsBadStatus(t *testing.T) {
	db := setupTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc := NewReviewService(db, cache.NewMemoryCache(), srv.URL)
	_, err := svc.Import(context.Background())
	assert.Error(t, err)
}

func TestListRatingsUsesCache(t *testing.T) {
	svc, mem := newReviewService(t, widgetPage())
	ctx := context.Background()
	base := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		r := models.Rating{Username: "u", Text: fmt.Sprintf("r%d", i), Score: 5, PubDate: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, svc.DB.Create(&r).Error)
	}

	ratings, err := svc.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, ratings, 2)
	assert.Equal(t, "r3", ratings[0].Text)
	assert.Equal(t, "r2", ratings[1].Text)

	cached, ok, err := mem.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, cached, 3, "the whole list is cached")

	require.NoError(t, svc.DB.Create(&models.Rating{Username: "u", Text: "r4", Score: 1, PubDate: base.Add(10 * time.Hour)}).Error)
	ratings, err = svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, ratings, 3, "served from cache until invalidated")

	svc.Invalidate(ctx)
	ratings, err = svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, ratings, 4)
	assert.Equal(t, "r4", ratings[0].Text)
}
