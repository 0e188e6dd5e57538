package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Clean-PRO/backend/cache"
	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/utils"
	"golang.org/x/net/html"
	"gorm.io/gorm"
)

var ErrNoReviews = errors.New("review widget returned no content")

// ParsedReview is one review read from the maps widget.
type ParsedReview struct {
	Username string
	Text     string
	Score    int
}

// ReviewService serves the cached ratings list and imports reviews from the
// maps widget.
type ReviewService struct {
	DB     *gorm.DB
	Cache  cache.ReviewCache
	Client *http.Client
	URL    string
	Now    func() time.Time
}

func NewReviewService(db *gorm.DB, c cache.ReviewCache, widgetURL string) *ReviewService {
	return &ReviewService{
		DB:     db,
		Cache:  c,
		Client: &http.Client{Timeout: 30 * time.Second},
		URL:    widgetURL,
		Now:    time.Now,
	}
}

// List returns up to limit ratings, newest first. limit <= 0 means all.
// The full list is cached; a cache failure falls back to the database.
func (s *ReviewService) List(ctx context.Context, limit int) ([]models.Rating, error) {
	ratings, ok, err := s.Cache.Get(ctx)
	if err != nil {
		utils.ErrorLogger.Printf("Review cache read failed: %v", err)
	}
	if !ok {
		ratings = nil
		if err := s.DB.WithContext(ctx).Order("pub_date DESC, id DESC").Find(&ratings).Error; err != nil {
			return nil, fmt.Errorf("load ratings: %w", err)
		}
		if err := s.Cache.Set(ctx, ratings); err != nil {
			utils.ErrorLogger.Printf("Review cache write failed: %v", err)
		}
	}
	if limit > 0 && limit < len(ratings) {
		ratings = ratings[:limit]
	}
	return ratings, nil
}

func (s *ReviewService) Invalidate(ctx context.Context) {
	if err := s.Cache.Invalidate(ctx); err != nil {
		utils.ErrorLogger.Printf("Review cache invalidation failed: %v", err)
	}
}

// Import fetches the widget and stores reviews not seen before. It returns
// the number of new ratings.
func (s *ReviewService) Import(ctx context.Context) (int, error) {
	if s.URL == "" {
		return 0, errors.New("review widget url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch reviews: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("invalid review widget url %q: status %d", s.URL, resp.StatusCode)
	}

	parsed, err := ParseReviews(resp.Body)
	if err != nil {
		return 0, err
	}
	return s.store(ctx, parsed)
}

// store saves the reviews newer than the last imported one. parsed is in
// widget order, newest first.
func (s *ReviewService) store(ctx context.Context, parsed []ParsedReview) (int, error) {
	var last models.Rating
	err := s.DB.WithContext(ctx).Where("from_maps = ?", true).Order("id DESC").First(&last).Error
	firstImport := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !firstImport {
		return 0, fmt.Errorf("load last imported review: %w", err)
	}

	var fresh []ParsedReview
	if firstImport {
		fresh = parsed
	} else {
		for _, r := range parsed {
			if r.Text == last.Text {
				break
			}
			fresh = append(fresh, r)
		}
	}

	now := s.Now()
	ratings := make([]models.Rating, 0, len(fresh))
	// Insert oldest first so the highest id is always the newest review.
	for i := len(fresh) - 1; i >= 0; i-- {
		r := fresh[i]
		if r.Score < models.RatingScoreMin || r.Score > models.RatingScoreMax || r.Text == "" {
			continue
		}
		ratings = append(ratings, models.Rating{
			Username: r.Username,
			FromMaps: true,
			PubDate:  now,
			Text:     r.Text,
			Score:    uint(r.Score),
		})
	}
	if len(ratings) == 0 {
		return 0, nil
	}

	if err := s.DB.WithContext(ctx).Create(&ratings).Error; err != nil {
		return 0, fmt.Errorf("save imported reviews: %w", err)
	}
	s.Invalidate(ctx)
	utils.InfoLogger.Printf("Imported %d reviews from maps", len(ratings))
	return len(ratings), nil
}

// ParseReviews extracts div.comment blocks in document order. A review's
// score is the number of full stars.
func ParseReviews(r io.Reader) ([]ParsedReview, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse review widget: %w", err)
	}

	body := findFirst(doc, "body", "")
	if body == nil || firstElementChild(body) == nil {
		return nil, ErrNoReviews
	}

	var comments []*html.Node
	walk(body, func(n *html.Node) {
		if isElement(n, "div", "comment") {
			comments = append(comments, n)
		}
	})

	reviews := make([]ParsedReview, 0, len(comments))
	for _, c := range comments {
		textNode := findFirst(c, "p", "comment__text")
		nameNode := findFirst(c, "p", "comment__name")
		if textNode == nil || nameNode == nil {
			continue
		}
		review := ParsedReview{
			Username: strings.TrimSpace(textContent(nameNode)),
			Text:     strings.TrimSpace(textContent(textNode)),
		}
		if stars := findFirst(c, "ul", "stars-list"); stars != nil {
			walk(stars, func(n *html.Node) {
				if isElement(n, "li", "stars-list__star") && !hasClass(n, "_empty") && !hasClass(n, "_half") {
					review.Score++
				}
			})
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findFirst(n *html.Node, tag, class string) *html.Node {
	if n == nil {
		return nil
	}
	if isElement(n, tag, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// isElement matches a tag and, when class is set, one of its classes.
func isElement(n *html.Node, tag, class string) bool {
	if n.Type != html.ElementNode || n.Data != tag {
		return false
	}
	return class == "" || hasClass(n, class)
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	})
	return b.String()
}
