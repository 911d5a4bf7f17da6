// Package crawler reads the popularity ranking page and resolves article publish times.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"realtime-rank/internal/domain/models"
	"realtime-rank/internal/lib/logger"
	"realtime-rank/internal/lib/logger/sl"
	"realtime-rank/internal/services/trend"
	"realtime-rank/internal/utils/clean"
	"realtime-rank/internal/workers"
)

const (
	DefaultRankingURL = "https://news.naver.com/main/ranking/popularDay.naver"
	DefaultUserAgent  = "Mozilla/5.0"

	publishTimeLayout = "2006-01-02 15:04:05"
	maxPageSize       = 8 << 20
)

var (
	listSelectors       = []string{".rankingnews_box ul.rankingnews_list > li", ".rankingnews_list li"}
	titleSelector       = ".list_title, .list_text a, a"
	publishTimeSelector = "span._ARTICLE_DATE_TIME[data-date-time], span.media_end_head_info_datestamp_time[data-date-time]"
)

var (
	ErrNoArticles   = errors.New("ranking page has no articles")
	ErrNoPublishTag = errors.New("no publish time on page")
)

type Options struct {
	RankingURL string
	UserAgent  string
	Timeout    time.Duration
	Workers    int
	Location   *time.Location
}

type Crawler struct {
	log    *slog.Logger
	client *http.Client
	opts   Options
}

// New builds a crawler. A nil client gets one with opts.Timeout.
func New(log *slog.Logger, opts Options, client *http.Client) *Crawler {
	if log == nil {
		log = logger.Discard()
	}
	if opts.RankingURL == "" {
		opts.RankingURL = DefaultRankingURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Crawler{log: log, client: client, opts: opts}
}

// Crawl fetches the ranking page and resolves the publish time of every article with an id.
// Articles come back in page order. A publish time that cannot be resolved stays nil.
func (c *Crawler) Crawl(ctx context.Context) ([]models.Article, error) {
	const op = "crawler.Crawler.Crawl"

	base, err := url.Parse(c.opts.RankingURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	body, err := c.fetch(ctx, c.opts.RankingURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	articles, err := ParseRankingPage(bytes.NewReader(body), base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.log.Debug("ranking page parsed", slog.Int("articles", len(articles)))

	return c.resolvePublishTimes(ctx, articles), nil
}

type indexedArticle struct {
	index   int
	article models.Article
}

func (c *Crawler) resolvePublishTimes(ctx context.Context, articles []models.Article) []models.Article {
	pool := workers.New[indexedArticle](c.log, c.opts.Workers)
	go pool.Run(ctx)

	resolve := func(ctx context.Context, in indexedArticle) (indexedArticle, error) {
		published, err := c.PublishTime(ctx, in.article.Link)
		if err != nil {
			return in, err
		}
		in.article.PublishTime = published
		return in, nil
	}

	go func() {
		defer pool.Close()
		for i, a := range articles {
			// Items without an article id never get scored.
			if a.ID == "" {
				continue
			}
			job := workers.Job[indexedArticle]{
				ID:   strconv.Itoa(a.SourceRank),
				Kind: "publish_time",
				Arg:  indexedArticle{index: i, article: a},
				Run:  resolve,
			}
			if err := pool.AddJob(ctx, job); err != nil {
				c.log.Warn("publish time lookups stopped", sl.Err(err))
				return
			}
		}
	}()

	out := make([]models.Article, len(articles))
	copy(out, articles)

	failed := 0
	for r := range pool.Results() {
		if r.Err != nil {
			failed++
			continue
		}
		out[r.Value.index] = r.Value.article
	}

	if failed > 0 {
		c.log.Debug("publish times unresolved", slog.Int("count", failed))
	}
	return out
}

// PublishTime reads the article page and returns its publish time. The ranking
// site's date stamp wins; otherwise the page metadata is consulted.
func (c *Crawler) PublishTime(ctx context.Context, link string) (*time.Time, error) {
	const op = "crawler.Crawler.PublishTime"

	if link == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoPublishTag)
	}

	body, err := c.fetch(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if t, ok := ParsePublishTime(doc, c.opts.Location); ok {
		return &t, nil
	}

	pageURL, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && article.PublishedTime != nil {
		t := article.PublishedTime.In(c.opts.Location)
		return &t, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrNoPublishTag)
}

func (c *Crawler) fetch(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status: %d", link, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", link, err)
	}
	return body, nil
}

// ParseRankingPage extracts the ranked articles from the ranking page. Every list
// item consumes a rank, so an item without a title anchor leaves a gap. Relative
// links are resolved against base.
func ParseRankingPage(r io.Reader, base *url.URL) ([]models.Article, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var items *goquery.Selection
	for _, sel := range listSelectors {
		items = doc.Find(sel)
		if items.Length() > 0 {
			break
		}
	}
	if items == nil || items.Length() == 0 {
		return nil, ErrNoArticles
	}

	var articles []models.Article
	items.Each(func(i int, item *goquery.Selection) {
		anchor := item.Find(titleSelector).First()
		if anchor.Length() == 0 {
			return
		}

		title := clean.Title(anchor.AttrOr("title", ""))
		if title == "" {
			title = clean.Title(anchor.Text())
		}
		link := resolveLink(base, anchor.AttrOr("href", ""))

		id, _ := trend.ExtractID(link)
		articles = append(articles, models.Article{
			ID:         id,
			Title:      title,
			Link:       link,
			SourceRank: i + 1,
		})
	})
	return articles, nil
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// ParsePublishTime reads the ranking site's date stamp, interpreted in loc.
func ParsePublishTime(doc *goquery.Document, loc *time.Location) (time.Time, bool) {
	raw, ok := doc.Find(publishTimeSelector).First().Attr("data-date-time")
	if !ok {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(publishTimeLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
