// Package export writes the approved catalog to object storage: one
// Markdown document per rule, with front matter, plus a JSON index. The
// documents mirror what the raw download endpoint serves, so an export
// bucket can act as a static mirror of the catalog.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"rulehub/internal/models"
)

// DefaultWorkers is the number of concurrent uploads when Workers is unset.
const DefaultWorkers = 4

// RuleLister supplies the rules to export.
type RuleLister interface {
	ListApproved(ctx context.Context) ([]models.Rule, error)
}

// Uploader stores one object.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) error
}

// Exporter copies approved rules into a bucket under Prefix.
type Exporter struct {
	rules  RuleLister
	up     Uploader
	prefix string

	// Workers bounds concurrent uploads.
	Workers int
}

// New returns an Exporter that writes under prefix.
func New(rules RuleLister, up Uploader, prefix string) *Exporter {
	return &Exporter{rules: rules, up: up, prefix: prefix, Workers: DefaultWorkers}
}

// Summary describes a finished export.
type Summary struct {
	Rules    int    `json:"rules"`
	Bytes    int64  `json:"bytes"`
	IndexKey string `json:"index_key"`
}

// IndexEntry is one line of index.json.
type IndexEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Key       string    `json:"key"`
	Views     int64     `json:"views"`
	Likes     int64     `json:"likes"`
	Downloads int64     `json:"downloads"`
	UpdatedAt time.Time `json:"updated_at"`
}

// frontMatter is the YAML header of each exported document.
type frontMatter struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Category    string `yaml:"category"`
	Views       int64  `yaml:"views"`
	Likes       int64  `yaml:"likes"`
	Downloads   int64  `yaml:"downloads"`
	UpdatedAt   string `yaml:"updated_at"`
}

// Run exports every approved rule and then the index. It stops at the
// first failed upload; the index is only written when all rules succeed.
func (e *Exporter) Run(ctx context.Context) (*Summary, error) {
	rules, err := e.rules.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("export list rules: %w", err)
	}

	workers := e.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	var total atomic.Int64
	index := make([]IndexEntry, len(rules))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rules {
		r := rules[i]
		g.Go(func() error {
			doc, err := Document(&r)
			if err != nil {
				return fmt.Errorf("export render %s: %w", r.ID, err)
			}
			key := e.ruleKey(&r)
			if err := e.up.Upload(gctx, key, "text/markdown; charset=utf-8", doc); err != nil {
				return err
			}
			total.Add(int64(len(doc)))

			mu.Lock()
			index[i] = IndexEntry{
				ID:        r.ID.String(),
				Title:     r.Title,
				Category:  r.CategorySlug,
				Key:       key,
				Views:     r.Views,
				Likes:     r.Likes,
				Downloads: r.Downloads,
				UpdatedAt: r.UpdatedAt.UTC(),
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export encode index: %w", err)
	}
	indexKey := path.Join(e.prefix, "index.json")
	if err := e.up.Upload(ctx, indexKey, "application/json", body); err != nil {
		return nil, err
	}
	total.Add(int64(len(body)))

	s := &Summary{Rules: len(rules), Bytes: total.Load(), IndexKey: indexKey}
	slog.Info("catalog exported", "rules", s.Rules, "bytes", s.Bytes, "index", s.IndexKey)
	return s, nil
}

func (e *Exporter) ruleKey(r *models.Rule) string {
	return path.Join(e.prefix, r.CategorySlug, r.ID.String()+".md")
}

// Document renders a rule as Markdown with a YAML front matter block.
func Document(r *models.Rule) ([]byte, error) {
	fm, err := yaml.Marshal(frontMatter{
		ID:          r.ID.String(),
		Title:       r.Title,
		Description: r.Description,
		Category:    r.CategoryName,
		Views:       r.Views,
		Likes:       r.Likes,
		Downloads:   r.Downloads,
		UpdatedAt:   r.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(r.Content)
	if n := len(r.Content); n == 0 || r.Content[n-1] != '\n' {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
