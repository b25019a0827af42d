// Package questions provides the category-keyed question bank that feeds a
// game session.
//
// Questions are stored as JSON files, one file per category, each holding an
// array of raw entries in the form [text, answer] or [text, answer,
// explanation]:
//
//	[
//	  ["How many bones are in the adult human body?", 206],
//	  ["In what year did the Berlin Wall fall?", 1989, "November 9th, 1989"]
//	]
//
// The category name is the file stem with its first letter upper-cased, so
// general.json becomes "General".
package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// ErrCategoryNotFound is returned by Sample when a category is unknown or has
// no questions.
var ErrCategoryNotFound = errors.New("category not found")

// Question is a single trivia question with an integer answer.
type Question struct {
	Text        string `json:"text"`
	Answer      int    `json:"answer"`
	Explanation string `json:"explanation,omitempty"`
}

// Source supplies questions to a game session.
type Source interface {
	Sample(ctx context.Context, category string, count int) ([]Question, error)
}

// Repository holds questions keyed by category. It is safe for concurrent use.
type Repository struct {
	mu         sync.RWMutex
	categories map[string][]Question

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Repository.
type Option func(*Repository)

// WithRNG sets the random source used by Sample.
func WithRNG(rng *rand.Rand) Option {
	return func(r *Repository) { r.rng = rng }
}

// WithSeed makes draws reproducible: repositories built with the same seed
// and contents deal the same questions.
func WithSeed(seed int64) Option {
	return WithRNG(seededRand(uint64(seed)))
}

// seededRand derives the two PCG words from one seed with a splitmix64
// finaliser so nearby seeds give unrelated streams.
func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(splitmix(seed), splitmix(seed+0x9e3779b97f4a7c15)))
}

func splitmix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// NewRepository creates an empty repository.
func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		categories: make(map[string][]Question),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = seededRand(uint64(time.Now().UnixNano()))
	}
	return r
}

// Add registers questions under a category, replacing any existing entries.
// Empty question lists are ignored.
func (r *Repository) Add(category string, qs []Question) {
	if len(qs) == 0 {
		return
	}
	pool := make([]Question, len(qs))
	copy(pool, qs)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[CategoryName(category)] = pool
}

// LoadDir loads every *.json file in dir as a category. Files are parsed
// concurrently; the first error aborts the load and nothing is registered.
func (r *Repository) LoadDir(ctx context.Context, dir string) error {
	if err := r.LoadFS(ctx, os.DirFS(dir)); err != nil {
		return fmt.Errorf("load %s: %w", dir, err)
	}
	return nil
}

// LoadFS is LoadDir over the root of fsys.
func (r *Repository) LoadFS(ctx context.Context, fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read questions dir: %w", err)
	}

	type loaded struct {
		category  string
		questions []Question
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(path.Ext(entry.Name()), ".json") {
			continue
		}
		files = append(files, entry.Name())
	}

	results := make([]loaded, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, name)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			qs, err := Parse(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", name, err)
			}
			results[i] = loaded{
				category:  strings.TrimSuffix(name, path.Ext(name)),
				questions: qs,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		r.Add(res.category, res.questions)
	}
	return nil
}

// Categories returns the loaded category names in ascending order.
func (r *Repository) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.categories))
	for name := range r.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of questions in a category.
func (r *Repository) Count(category string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.categories[CategoryName(category)])
}

// Sample returns up to count questions drawn without replacement from the
// category, in random order.
func (r *Repository) Sample(ctx context.Context, category string, count int) ([]Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	pool := r.categories[CategoryName(category)]
	shuffled := make([]Question, len(pool))
	copy(shuffled, pool)
	r.mu.RUnlock()

	if len(shuffled) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, category)
	}

	r.rngMu.Lock()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := r.rng.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	r.rngMu.Unlock()

	n := min(max(count, 0), len(shuffled))
	return shuffled[:n], nil
}

// CategoryName normalises a category identifier by upper-casing its first
// letter.
func CategoryName(id string) string {
	if id == "" {
		return id
	}
	first, size := utf8.DecodeRuneInString(id)
	return string(unicode.ToUpper(first)) + id[size:]
}

// ParseFile reads a category file.
func ParseFile(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	qs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return qs, nil
}

// Parse decodes a JSON array of raw questions.
func Parse(data []byte) ([]Question, error) {
	var raw []rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	qs := make([]Question, len(raw))
	for i, rq := range raw {
		qs[i] = Question(rq)
	}
	return qs, nil
}

// rawQuestion is the [text, answer, explanation?] tuple form used on disk.
type rawQuestion Question

func (rq *rawQuestion) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("question must be an array: %w", err)
	}
	if len(fields) < 2 || len(fields) > 3 {
		return fmt.Errorf("question must have 2 or 3 elements, got %d", len(fields))
	}

	if err := json.Unmarshal(fields[0], &rq.Text); err != nil {
		return fmt.Errorf("question text: %w", err)
	}

	var answer float64
	if err := json.Unmarshal(fields[1], &answer); err != nil {
		return fmt.Errorf("question answer: %w", err)
	}
	if answer != math.Trunc(answer) || math.IsInf(answer, 0) {
		return fmt.Errorf("question answer must be an integer, got %v", answer)
	}
	rq.Answer = int(answer)

	if len(fields) == 3 {
		if err := json.Unmarshal(fields[2], &rq.Explanation); err != nil {
			return fmt.Errorf("question explanation: %w", err)
		}
	}
	return nil
}
