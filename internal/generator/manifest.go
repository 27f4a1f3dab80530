package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	manifestFileName    = ".snippet-manifest.json"
	manifestFileVersion = 1
)

// buildManifest records what the previous build wrote so stale outputs can be
// pruned when pages disappear.
type buildManifest struct {
	Version     int                     `json:"version"`
	GeneratedAt time.Time               `json:"generated_at"`
	Format      string                  `json:"format"`
	Pages       map[string]manifestPage `json:"pages"`
	Assets      map[string]manifestFile `json:"assets"`
}

type manifestPage struct {
	Source     string    `json:"source"`
	Output     string    `json:"output"`
	Checksum   string    `json:"checksum"`
	Skipped    bool      `json:"skipped,omitempty"`
	RenderedAt time.Time `json:"rendered_at"`
}

type manifestFile struct {
	Source   string `json:"source"`
	Output   string `json:"output"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version: manifestFileVersion,
		Pages:   map[string]manifestPage{},
		Assets:  map[string]manifestFile{},
	}
}

func parseManifest(data []byte) (*buildManifest, error) {
	if len(data) == 0 {
		return newBuildManifest(), nil
	}
	var ordered orderedManifest
	if err := json.Unmarshal(data, &ordered); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	manifest := newBuildManifest()
	manifest.Version = ordered.Version
	manifest.GeneratedAt = ordered.GeneratedAt
	manifest.Format = ordered.Format
	for _, entry := range ordered.Pages {
		manifest.Pages[entry.Source] = entry
	}
	for _, entry := range ordered.Assets {
		manifest.Assets[entry.Source] = entry
	}
	if manifest.Version == 0 {
		manifest.Version = manifestFileVersion
	}
	return manifest, nil
}

// loadManifest reads the manifest under outputDir. A missing file yields an
// empty manifest.
func loadManifest(outputDir string) (*buildManifest, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, manifestFileName))
	if errors.Is(err, os.ErrNotExist) {
		return newBuildManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("generator: read manifest: %w", err)
	}
	return parseManifest(data)
}

type orderedManifest struct {
	Version     int            `json:"version"`
	GeneratedAt time.Time      `json:"generated_at"`
	Format      string         `json:"format"`
	Pages       []manifestPage `json:"pages"`
	Assets      []manifestFile `json:"assets"`
}

func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	// Stable ordering for deterministic output.
	ordered := orderedManifest{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt,
		Format:      m.Format,
		Pages:       make([]manifestPage, 0, len(m.Pages)),
		Assets:      make([]manifestFile, 0, len(m.Assets)),
	}
	if ordered.Version == 0 {
		ordered.Version = manifestFileVersion
	}
	for _, entry := range m.Pages {
		ordered.Pages = append(ordered.Pages, entry)
	}
	sort.Slice(ordered.Pages, func(i, j int) bool {
		return ordered.Pages[i].Source < ordered.Pages[j].Source
	})
	for _, entry := range m.Assets {
		ordered.Assets = append(ordered.Assets, entry)
	}
	sort.Slice(ordered.Assets, func(i, j int) bool {
		return ordered.Assets[i].Source < ordered.Assets[j].Source
	})
	return json.MarshalIndent(ordered, "", "  ")
}

func (m *buildManifest) setPage(entry manifestPage) {
	if m.Pages == nil {
		m.Pages = map[string]manifestPage{}
	}
	m.Pages[strings.TrimSpace(entry.Source)] = entry
}

func (m *buildManifest) setAsset(entry manifestFile) {
	if m.Assets == nil {
		m.Assets = map[string]manifestFile{}
	}
	m.Assets[strings.TrimSpace(entry.Source)] = entry
}

// staleOutputs lists outputs recorded in m that next no longer produces.
func (m *buildManifest) staleOutputs(next *buildManifest) []string {
	if m == nil {
		return nil
	}
	live := map[string]struct{}{}
	for _, entry := range next.Pages {
		live[entry.Output] = struct{}{}
	}
	for _, entry := range next.Assets {
		live[entry.Output] = struct{}{}
	}

	var stale []string
	collect := func(output string) {
		if output == "" {
			return
		}
		if _, ok := live[output]; !ok {
			stale = append(stale, output)
			live[output] = struct{}{}
		}
	}
	for _, entry := range m.Pages {
		collect(entry.Output)
	}
	for _, entry := range m.Assets {
		collect(entry.Output)
	}
	sort.Strings(stale)
	return stale
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
