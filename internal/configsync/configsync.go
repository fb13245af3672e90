// Package configsync keeps a local directory of timestamped scoring-config
// snapshots in sync with the remote tuning sheet. The remote endpoint is
// authoritative; snapshots avoid a network round-trip per scoring run.
package configsync

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zebutron/turbine-scoring-engine/internal/fetcher"
	"github.com/zebutron/turbine-scoring-engine/internal/scoring"
)

const (
	snapshotPrefix = "SCORE_TUNING_CONFIG_"
	snapshotExt    = ".json"
	timestampFmt   = "20060102_150405"
	etagFile       = "SCORE_TUNING_CONFIG.etag"

	// FreshnessWindow is how long a snapshot is trusted before Update
	// re-fetches from the remote sheet.
	FreshnessWindow = time.Hour
)

// Syncer fetches, snapshots, and loads scoring configs.
type Syncer struct {
	fetcher fetcher.Fetcher
	dir     string
	url     string
	window  time.Duration
	now     func() time.Time
}

// New creates a Syncer writing snapshots under dir and fetching from url.
func New(f fetcher.Fetcher, dir, url string) *Syncer {
	return &Syncer{fetcher: f, dir: dir, url: url, window: FreshnessWindow, now: time.Now}
}

// SetWindow overrides the snapshot freshness window.
func (s *Syncer) SetWindow(d time.Duration) {
	if d > 0 {
		s.window = d
	}
}

// Fetch downloads the remote config document and validates that it parses
// into a usable rule table before anyone writes it to disk.
func (s *Syncer) Fetch(ctx context.Context) ([]byte, error) {
	body, err := s.fetcher.Download(ctx, s.url)
	if err != nil {
		return nil, eris.Wrap(err, "configsync: fetch remote config")
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrap(err, "configsync: read remote config")
	}
	if err := validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// validate checks that a config document parses into a usable rule table.
func validate(data []byte) error {
	if _, err := scoring.ParseRulesJSON(data); err != nil {
		return eris.Wrap(err, "configsync: remote config invalid")
	}
	return nil
}

// Save writes data to a new timestamped snapshot, moving any existing
// snapshots into dir/archive first so exactly one live snapshot remains.
func (s *Syncer) Save(data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", eris.Wrap(err, "configsync: create config dir")
	}
	archiveDir := filepath.Join(s.dir, "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", eris.Wrap(err, "configsync: create archive dir")
	}

	existing, err := s.snapshots()
	if err != nil {
		return "", err
	}
	for _, name := range existing {
		if err := os.Rename(filepath.Join(s.dir, name), filepath.Join(archiveDir, name)); err != nil {
			return "", eris.Wrapf(err, "configsync: archive %s", name)
		}
		zap.L().Info("configsync: archived old config", zap.String("file", name))
	}

	name := snapshotPrefix + s.now().Format(timestampFmt) + snapshotExt
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "configsync: write %s", name)
	}
	zap.L().Info("configsync: saved config snapshot", zap.String("path", path))
	return path, nil
}

// LatestPath returns the newest live snapshot, if any.
func (s *Syncer) LatestPath() (string, bool) {
	names, err := s.snapshots()
	if err != nil || len(names) == 0 {
		return "", false
	}
	// Timestamped names sort lexically in chronological order.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return filepath.Join(s.dir, names[0]), true
}

// LoadLatest loads the newest snapshot, fetching and snapshotting from the
// remote when no local snapshot exists.
func (s *Syncer) LoadLatest(ctx context.Context) (*scoring.Rules, error) {
	if path, ok := s.LatestPath(); ok {
		zap.L().Info("configsync: loading local config", zap.String("path", path))
		return scoring.LoadRules(path)
	}

	zap.L().Info("configsync: no local config, fetching remote")
	data, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	path, err := s.Save(data)
	if err != nil {
		return nil, err
	}
	return scoring.LoadRules(path)
}

// Update refreshes the snapshot from the remote. Unless force is set, a
// snapshot younger than the freshness window is kept as-is, and a stale
// snapshot is revalidated with the stored ETag so an unchanged remote costs
// no body transfer.
func (s *Syncer) Update(ctx context.Context, force bool) (string, error) {
	latest, haveLatest := s.LatestPath()
	if !force && haveLatest {
		if ts, ok := snapshotTime(filepath.Base(latest)); ok && s.now().Sub(ts) < s.window {
			zap.L().Info("configsync: recent config exists", zap.String("path", latest))
			return latest, nil
		}
	}

	// Only offer the ETag while a live snapshot backs it; a 304 with no
	// snapshot would leave nothing to load.
	etag := ""
	if haveLatest {
		etag = s.storedETag()
	}
	body, newETag, changed, err := s.fetcher.DownloadIfChanged(ctx, s.url, etag)
	if err != nil {
		return "", eris.Wrap(err, "configsync: fetch remote config")
	}
	if !changed {
		zap.L().Info("configsync: remote unchanged", zap.String("path", latest))
		return latest, nil
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return "", eris.Wrap(err, "configsync: read remote config")
	}
	if err := validate(data); err != nil {
		return "", err
	}
	path, err := s.Save(data)
	if err != nil {
		return "", err
	}
	s.saveETag(newETag)
	return path, nil
}

func (s *Syncer) storedETag() string {
	data, err := os.ReadFile(filepath.Join(s.dir, etagFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// saveETag is best-effort: a lost ETag only costs one full re-download.
func (s *Syncer) saveETag(etag string) {
	if etag == "" {
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, etagFile), []byte(etag), 0o644); err != nil {
		zap.L().Warn("configsync: write etag", zap.Error(err))
	}
}

func (s *Syncer) snapshots() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "configsync: read config dir")
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, snapshotPrefix) && strings.HasSuffix(name, snapshotExt) {
			names = append(names, name)
		}
	}
	return names, nil
}

// snapshotTime parses the embedded timestamp out of a snapshot filename.
func snapshotTime(name string) (time.Time, bool) {
	raw := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotExt)
	ts, err := time.ParseInLocation(timestampFmt, raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
