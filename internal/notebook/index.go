package notebook

import (
	"context"
	"log"
	"path"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DirLister lists vault directory entries. Satisfied by *Client.
type DirLister interface {
	ListDir(ctx context.Context, dir string) ([]string, error)
}

const (
	indexCacheKey = "note-titles"
	indexCacheTTL = 5 * time.Minute
)

// WikilinkIndex knows which note titles exist in the vault, so that
// wikilinking can be restricted to terms that resolve to a real note.
// Listings are cached with a short TTL; an unreachable vault yields an
// empty index rather than an error.
type WikilinkIndex struct {
	lister DirLister
	cache  *gocache.Cache
}

// NewWikilinkIndex creates an index backed by the given lister.
func NewWikilinkIndex(lister DirLister) *WikilinkIndex {
	return &WikilinkIndex{
		lister: lister,
		cache:  gocache.New(indexCacheTTL, 10*time.Minute),
	}
}

// Titles returns the set of known note titles, keyed by lowercase title.
// The map value holds the title's canonical spelling in the vault.
func (idx *WikilinkIndex) Titles(ctx context.Context) map[string]string {
	if cached, ok := idx.cache.Get(indexCacheKey); ok {
		return cached.(map[string]string)
	}

	titles := make(map[string]string)
	if err := idx.collect(ctx, "", titles, 0); err != nil {
		log.Printf("wikilink-index: vault listing failed, linking disabled: %v", err)
	}

	// An empty result is cached too: a dead vault is probed once per TTL window.
	idx.cache.Set(indexCacheKey, titles, gocache.DefaultExpiration)
	return titles
}

// Has reports whether a note with the given title exists, ignoring case.
func (idx *WikilinkIndex) Has(ctx context.Context, title string) bool {
	_, ok := idx.Titles(ctx)[strings.ToLower(title)]
	return ok
}

// Canonical returns the vault's spelling for a title, or the input unchanged
// when the title is unknown.
func (idx *WikilinkIndex) Canonical(ctx context.Context, title string) string {
	if canonical, ok := idx.Titles(ctx)[strings.ToLower(title)]; ok {
		return canonical
	}
	return title
}

// Clear drops the cached listing so the next lookup re-reads the vault.
func (idx *WikilinkIndex) Clear() {
	idx.cache.Delete(indexCacheKey)
}

// collect walks the vault recursively. Folder entries keep a trailing slash
// in listings; everything else is a file.
func (idx *WikilinkIndex) collect(ctx context.Context, dir string, titles map[string]string, depth int) error {
	// Vaults are shallow; a runaway listing is a server bug.
	if depth > 16 {
		return nil
	}

	entries, err := idx.lister.ListDir(ctx, dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if strings.HasSuffix(entry, "/") {
			sub := path.Join(dir, strings.TrimSuffix(entry, "/"))
			if err := idx.collect(ctx, sub, titles, depth+1); err != nil {
				return err
			}
			continue
		}
		ext := strings.ToLower(path.Ext(entry))
		if ext != ".md" && ext != ".markdown" {
			continue
		}
		title := strings.TrimSuffix(path.Base(entry), path.Ext(entry))
		if title != "" {
			titles[strings.ToLower(title)] = title
		}
	}
	return nil
}
