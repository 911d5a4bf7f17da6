// Package trend ranks trending keywords from one batch of ranking-page articles.
//
// A cycle runs strictly forward: articles are scored, titles are turned into
// 1..3-gram keyword occurrences, occurrences are aggregated and given a rise rate
// against the historical baseline, near-duplicate keywords are collapsed by the
// overlap of their supporting articles, and the survivors are annotated with their
// movement against the previous snapshot.
//
// The package does no I/O. Baseline and previous snapshot come in through Input and
// the new list goes out through Result, so any store can sit on either side.
package trend

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"realtime-rank/internal/domain/models"
	"realtime-rank/internal/lib/logger"
	"realtime-rank/internal/lib/logger/sl"
)

const (
	DefaultJaccardThreshold = 0.5
	DefaultMaxEntries       = 50
)

// Tagger splits a title into tagged tokens.
type Tagger interface {
	Tag(title string) ([]models.TaggedToken, error)
}

type Options struct {
	BreakingMarkers  []string
	Stopwords        []string
	Location         *time.Location
	JaccardThreshold float64
	MaxEntries       int
}

func DefaultOptions() Options {
	return Options{
		BreakingMarkers:  DefaultBreakingMarkers,
		Stopwords:        DefaultStopwords,
		Location:         time.UTC,
		JaccardThreshold: DefaultJaccardThreshold,
		MaxEntries:       DefaultMaxEntries,
	}
}

type Engine struct {
	log       *slog.Logger
	opts      Options
	stopwords map[string]struct{}
}

func New(log *slog.Logger, opts Options) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		log:       log,
		opts:      opts,
		stopwords: stopwordSet(opts.Stopwords),
	}
}

type Input struct {
	Articles []models.Article
	Tagger   Tagger
	Baseline models.Baseline
	Previous models.PreviousSnapshot
	Now      time.Time
}

type Stats struct {
	Crawled         int `json:"crawled"`
	Scored          int `json:"scored"`
	MissingID       int `json:"missing_id"`
	TaggingFailures int `json:"tagging_failures"`
	Occurrences     int `json:"occurrences"`
	Keywords        int `json:"keywords"`
	Duplicates      int `json:"duplicates"`
	Ranked          int `json:"ranked"`
}

// Empty reports a cycle that produced no trending keyword.
func (s Stats) Empty() bool {
	return s.Ranked == 0
}

type Result struct {
	Entries     []models.RankedEntry       `json:"entries"`
	Keywords    []*models.KeywordAggregate `json:"keywords"`
	Scored      []models.ScoredArticle     `json:"scored_articles"`
	Frequencies map[string]int             `json:"frequencies"`
	UpdatedAt   time.Time                  `json:"updated_at"`
	Stats       Stats                      `json:"stats"`
}

// Rank runs one cycle. The only error it returns is a malformed previous snapshot;
// every per-article problem degrades to its documented default.
func (e *Engine) Rank(in Input) (*Result, error) {
	const op = "trend.Engine.Rank"

	if err := ValidateSnapshot(in.Previous); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	stats := Stats{Crawled: len(in.Articles)}

	scored, missing := newScorer(e.opts.BreakingMarkers, now, e.opts.Location).scoreArticles(in.Articles)
	stats.Scored = len(scored)
	stats.MissingID = missing

	var occurrences []models.KeywordOccurrence
	for _, a := range scored {
		tokens, err := tagTitle(in.Tagger, a.Title)
		if err != nil {
			stats.TaggingFailures++
			e.log.Debug("title not tagged", "article_id", a.ID, sl.Err(err))
			continue
		}
		occurrences = append(occurrences, ExtractKeywords(tokens, a.Score, a.Link, e.stopwords)...)
	}
	stats.Occurrences = len(occurrences)

	aggregates := Aggregate(occurrences)
	stats.Keywords = len(aggregates)

	ranked := RankByRise(aggregates, in.Baseline)
	kept, duplicates := Deduplicate(ranked, e.opts.JaccardThreshold, e.opts.MaxEntries)
	stats.Duplicates = duplicates

	entries := Annotate(kept, in.Previous)
	stats.Ranked = len(entries)

	return &Result{
		Entries:     entries,
		Keywords:    kept,
		Scored:      auditTable(scored),
		Frequencies: Frequencies(aggregates),
		UpdatedAt:   now,
		Stats:       stats,
	}, nil
}

var (
	errNoTagger = errors.New("no tagger configured")
	errNoTokens = errors.New("tagger returned no tokens")
)

func tagTitle(tagger Tagger, title string) (tokens []models.TaggedToken, err error) {
	if tagger == nil {
		return nil, errNoTagger
	}
	defer func() {
		if r := recover(); r != nil {
			tokens, err = nil, fmt.Errorf("tagger panicked: %v", r)
		}
	}()

	tokens, err = tagger.Tag(title)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, errNoTokens
	}
	return tokens, nil
}
