package leveldb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"realtime-rank/internal/domain/models"
)

const (
	logPrefix   = "log:"
	snapshotKey = "snapshot"
)

// Storage keeps the frequency history log and the latest snapshot in one LevelDB.
// Log keys are "log:<20-digit unix nanos>:<keyword>" so a key range is a time range.
type Storage struct {
	db *leveldb.DB
}

func New(path string) (*Storage, error) {
	const op = "storage.leveldb.New"

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func timeKey(t time.Time) string {
	return fmt.Sprintf("%s%020d", logPrefix, t.UnixNano())
}

func logKey(t time.Time, keyword string) []byte {
	return []byte(timeKey(t) + ":" + keyword)
}

func parseLogKey(key []byte) (keyword string, ok bool) {
	rest, found := strings.CutPrefix(string(key), logPrefix)
	if !found {
		return "", false
	}
	_, keyword, found = strings.Cut(rest, ":")
	return keyword, found && keyword != ""
}

// AppendFrequencies writes one log row per keyword, all stamped with at.
func (s *Storage) AppendFrequencies(ctx context.Context, at time.Time, freq map[string]int) error {
	const op = "storage.leveldb.AppendFrequencies"

	if len(freq) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	batch := new(leveldb.Batch)
	for keyword, count := range freq {
		batch.Put(logKey(at, keyword), []byte(strconv.Itoa(count)))
	}

	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Baseline averages every logged frequency of each keyword within [from, to).
// Cycles in which a keyword was not logged do not count towards its mean.
func (s *Storage) Baseline(ctx context.Context, from, to time.Time) (models.Baseline, error) {
	const op = "storage.leveldb.Baseline"

	sums := make(map[string]int)
	counts := make(map[string]int)

	iter := s.db.NewIterator(&util.Range{
		Start: []byte(timeKey(from)),
		Limit: []byte(timeKey(to)),
	}, nil)
	defer iter.Release()

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		keyword, ok := parseLogKey(iter.Key())
		if !ok {
			continue
		}
		count, err := strconv.Atoi(string(iter.Value()))
		if err != nil {
			continue
		}
		sums[keyword] += count
		counts[keyword]++
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	baseline := make(models.Baseline, len(sums))
	for keyword, sum := range sums {
		baseline[keyword] = float64(sum) / float64(counts[keyword])
	}
	return baseline, nil
}

// Prune deletes every log row stamped before the given time and returns how many went.
func (s *Storage) Prune(ctx context.Context, before time.Time) (int, error) {
	const op = "storage.leveldb.Prune"

	batch := new(leveldb.Batch)
	iter := s.db.NewIterator(&util.Range{
		Start: []byte(logPrefix),
		Limit: []byte(timeKey(before)),
	}, nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if batch.Len() == 0 {
		return 0, nil
	}
	if err := s.db.Write(batch, nil); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return batch.Len(), nil
}

// LoadSnapshot returns nil, nil when no snapshot has been written yet.
func (s *Storage) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	const op = "storage.leveldb.LoadSnapshot"

	data, err := s.db.Get([]byte(snapshotKey), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
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
	const op = "storage.leveldb.SaveSnapshot"

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.db.Put([]byte(snapshotKey), data, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
