package cache

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/reelcraft/newsreel/pkg/config"
	"github.com/reelcraft/newsreel/pkg/logger"
)

const (
	bucketSpeech      = "tts"
	bucketImages      = "images"
	bucketArticles    = "articles"
	bucketStoryboards = "storyboards"
	bucketHeadlines   = "headlines"
)

var buckets = []string{bucketSpeech, bucketImages, bucketArticles, bucketStoryboards, bucketHeadlines}

// Cache stores fetched and generated artifacts on disk, keyed by the MD5 of
// the text that produced them. Speech and image entries are kept as playable
// files so render jobs can reference them in place.
type Cache struct {
	dir string
	log logger.Logger
}

func New(cfg *config.Config, log logger.Logger) (*Cache, error) {
	c := &Cache{
		dir: cfg.Cache.Dir,
		log: log.WithComponent("Cache"),
	}
	for _, bucket := range buckets {
		if err := os.MkdirAll(filepath.Join(c.dir, bucket), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir %s: %w", bucket, err)
		}
	}
	return c, nil
}

func key(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(bucket, k, ext string) string {
	return filepath.Join(c.dir, bucket, key(k)+ext)
}

func (c *Cache) read(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.Warn("Failed to read cache entry, treating as miss", "path", path, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (c *Cache) write(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", path, err)
	}
	return nil
}

func (c *Cache) remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cache entry %s: %w", path, err)
	}
	return nil
}

// Headlines returns the cached headline payload for a query key.
func (c *Cache) Headlines(k string) ([]byte, bool) {
	return c.read(c.path(bucketHeadlines, k, ".json"))
}

func (c *Cache) SaveHeadlines(k string, data []byte) error {
	return c.write(c.path(bucketHeadlines, k, ".json"), data)
}

// Article returns the cached extraction result for an article URL.
func (c *Cache) Article(url string) ([]byte, bool) {
	return c.read(c.path(bucketArticles, url, ".json"))
}

func (c *Cache) SaveArticle(url string, data []byte) error {
	return c.write(c.path(bucketArticles, url, ".json"), data)
}

// Storyboard returns the cached storyboard generated from an article text.
func (c *Cache) Storyboard(k string) ([]byte, bool) {
	return c.read(c.path(bucketStoryboards, k, ".json"))
}

func (c *Cache) SaveStoryboard(k string, data []byte) error {
	return c.write(c.path(bucketStoryboards, k, ".json"), data)
}

// DeleteStoryboard drops a storyboard entry so the next run regenerates it,
// for example after one of its image prompts was rejected upstream.
func (c *Cache) DeleteStoryboard(k string) error {
	return c.remove(c.path(bucketStoryboards, k, ".json"))
}

// Speech returns the path of a cached voice-over clip for the given text.
func (c *Cache) Speech(text string) (string, bool) {
	path := c.path(bucketSpeech, text, ".mp3")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func (c *Cache) SaveSpeech(text string, data []byte) (string, error) {
	path := c.path(bucketSpeech, text, ".mp3")
	if err := c.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Image returns the path of a cached slide image for the given prompt.
func (c *Cache) Image(prompt string) (string, bool) {
	path := c.path(bucketImages, prompt, ".png")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func (c *Cache) SaveImage(prompt string, data []byte) (string, error) {
	path := c.path(bucketImages, prompt, ".png")
	if err := c.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Cache) DeleteImage(prompt string) error {
	return c.remove(c.path(bucketImages, prompt, ".png"))
}

// EvictOlderThan removes entries older than ttl across all buckets and
// returns how many were evicted. Per-entry failures are logged and skipped.
func (c *Cache) EvictOlderThan(ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	evicted := 0

	for _, bucket := range buckets {
		entries, err := os.ReadDir(filepath.Join(c.dir, bucket))
		if err != nil {
			return evicted, fmt.Errorf("failed to list cache bucket %s: %w", bucket, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				c.log.Warn("Failed to stat cache entry", "bucket", bucket, "name", entry.Name(), "error", err)
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(c.dir, bucket, entry.Name())); err != nil {
				c.log.Warn("Failed to evict cache entry", "bucket", bucket, "name", entry.Name(), "error", err)
				continue
			}
			evicted++
		}
	}
	return evicted, nil
}
