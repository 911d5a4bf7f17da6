package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"realtime-rank/internal/domain/models"
)

const DefaultLogTTL = 24 * time.Hour

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	LogTTL   time.Duration
}

// Storage keeps one hash per cycle under "<prefix>log:<unix nanos>" and indexes the
// hashes in the sorted set "<prefix>log:index", scored by unix millis.
type Storage struct {
	client *redis.Client
	prefix string
	logTTL time.Duration
}

func New(ctx context.Context, opts Options) (*Storage, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(client, opts.Prefix, opts.LogTTL), nil
}

func NewWithClient(client *redis.Client, prefix string, logTTL time.Duration) *Storage {
	if logTTL <= 0 {
		logTTL = DefaultLogTTL
	}
	return &Storage{client: client, prefix: prefix, logTTL: logTTL}
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) indexKey() string {
	return s.prefix + "log:index"
}

func (s *Storage) logKey(at time.Time) string {
	return s.prefix + "log:" + strconv.FormatInt(at.UnixNano(), 10)
}

func (s *Storage) snapshotKey() string {
	return s.prefix + "snapshot"
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// hashValues flattens freq into sorted field/value pairs.
func hashValues(freq map[string]int) []any {
	keywords := make([]string, 0, len(freq))
	for k := range freq {
		keywords = append(keywords, k)
	}
	slices.Sort(keywords)

	values := make([]any, 0, 2*len(keywords))
	for _, k := range keywords {
		values = append(values, k, freq[k])
	}
	return values
}

func (s *Storage) AppendFrequencies(ctx context.Context, at time.Time, freq map[string]int) error {
	const op = "storage.redis.AppendFrequencies"

	if len(freq) == 0 {
		return nil
	}

	key := s.logKey(at)
	if err := s.client.HSet(ctx, key, hashValues(freq)...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.client.Expire(ctx, key, s.logTTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.client.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(at.UnixMilli()), Member: key}).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Baseline averages each keyword over the cycle hashes indexed within [from, to).
// Hashes that already expired are skipped.
func (s *Storage) Baseline(ctx context.Context, from, to time.Time) (models.Baseline, error) {
	const op = "storage.redis.Baseline"

	keys, err := s.client.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{
		Min: millis(from),
		Max: "(" + millis(to),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, key := range keys {
		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		for keyword, raw := range fields {
			count, err := strconv.Atoi(raw)
			if err != nil {
				continue
			}
			sums[keyword] += count
			counts[keyword]++
		}
	}

	baseline := make(models.Baseline, len(sums))
	for keyword, sum := range sums {
		baseline[keyword] = float64(sum) / float64(counts[keyword])
	}
	return baseline, nil
}

// Prune drops the cycle hashes indexed before the given time along with their index entries.
func (s *Storage) Prune(ctx context.Context, before time.Time) (int, error) {
	const op = "storage.redis.Prune"

	upper := "(" + millis(before)
	keys, err := s.client.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{Min: "-inf", Max: upper}).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", upper).Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return len(keys), nil
}

// LoadSnapshot returns nil, nil when no snapshot has been written yet.
func (s *Storage) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	const op = "storage.redis.LoadSnapshot"

	data, err := s.client.Get(ctx, s.snapshotKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &snap, nil
}

func (s *Storage) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	const op = "storage.redis.SaveSnapshot"

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.client.Set(ctx, s.snapshotKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
