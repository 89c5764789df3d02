package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gamerit/domain"
	"gamerit/domain/entities"

	log "github.com/sirupsen/logrus"
)

const (
	deletedAuthor = "[deleted]"
	removedBody   = "[removed]"
)

// RedditContentSource reads posts from the public Reddit JSON listing API
type RedditContentSource struct {
	baseURL    string
	userAgent  string
	subreddits []string
	client     *http.Client
}

// NewRedditContentSource creates a content source for the given subreddits
func NewRedditContentSource(baseURL, userAgent string, subreddits []string, timeout time.Duration) *RedditContentSource {
	return &RedditContentSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		subreddits: subreddits,
		client:     &http.Client{Timeout: timeout},
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Author            string  `json:"author"`
	Subreddit         string  `json:"subreddit"`
	Score             int64   `json:"score"`
	UpvoteRatio       float64 `json:"upvote_ratio"`
	NumComments       int64   `json:"num_comments"`
	CreatedUTC        float64 `json:"created_utc"`
	Selftext          string  `json:"selftext"`
	RemovedByCategory *string `json:"removed_by_category"`
	Stickied          bool    `json:"stickied"`
	Over18            bool    `json:"over_18"`
}

func (p *redditPost) removed() bool {
	return p.RemovedByCategory != nil || p.Author == deletedAuthor || p.Selftext == removedBody
}

func (p *redditPost) toItem() *entities.ContentItem {
	return &entities.ContentItem{
		ID:          p.ID,
		Title:       p.Title,
		Author:      p.Author,
		Subreddit:   p.Subreddit,
		Score:       p.Score,
		UpvoteRatio: p.UpvoteRatio,
		NumComments: p.NumComments,
		CreatedAt:   time.Unix(int64(p.CreatedUTC), 0).UTC(),
	}
}

// errPostMissing marks a 404 from the listing API
var errPostMissing = errors.New("post not found")

func (s *RedditContentSource) get(ctx context.Context, path string, query url.Values) (*redditListing, error) {
	endpoint := s.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.ErrUpstreamUnavailable.Wrap(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errPostMissing
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.ErrUpstreamUnavailable.Wrap(fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, domain.ErrUpstreamUnavailable.Wrap(fmt.Errorf("failed to decode %s: %w", path, err))
	}
	return &listing, nil
}

func (s *RedditContentSource) fetchPost(ctx context.Context, contentID string) (*redditPost, error) {
	listing, err := s.get(ctx, "/by_id/t3_"+url.PathEscape(contentID)+".json", nil)
	if err != nil {
		return nil, err
	}
	if len(listing.Data.Children) == 0 {
		return nil, errPostMissing
	}
	return &listing.Data.Children[0].Data, nil
}

// FetchScore returns the current score of a post
func (s *RedditContentSource) FetchScore(ctx context.Context, contentID string) (int64, error) {
	post, err := s.fetchPost(ctx, contentID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch score of %s: %w", contentID, err)
	}
	return post.Score, nil
}

// FetchExists reports false for posts that are gone, removed or deleted
func (s *RedditContentSource) FetchExists(ctx context.Context, contentID string) (bool, error) {
	post, err := s.fetchPost(ctx, contentID)
	if errors.Is(err, errPostMissing) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", contentID, err)
	}
	return !post.removed(), nil
}

// ListCandidates returns hot, live, non-pinned posts across the configured subreddits
func (s *RedditContentSource) ListCandidates(ctx context.Context) ([]*entities.ContentItem, error) {
	var items []*entities.ContentItem
	var lastErr error

	for _, subreddit := range s.subreddits {
		listing, err := s.get(ctx, "/r/"+url.PathEscape(subreddit)+"/hot.json", url.Values{"limit": {"50"}})
		if err != nil {
			log.WithFields(log.Fields{
				"subreddit": subreddit,
				"error":     err,
			}).Warn("Failed to list subreddit")
			lastErr = err
			continue
		}
		for _, child := range listing.Data.Children {
			post := child.Data
			if post.Stickied || post.Over18 || post.removed() {
				continue
			}
			items = append(items, post.toItem())
		}
	}

	if len(items) == 0 && lastErr != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", lastErr)
	}
	return items, nil
}
