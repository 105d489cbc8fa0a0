package fetchkit

// ContentType identifies the shape of FetchResult.Content.
type ContentType string

const (
	ContentTypeHTML     ContentType = "html"
	ContentTypeMarkdown ContentType = "markdown"
)

// FetchResult is the successful outcome of a fetch, regardless of which
// engine produced it.
type FetchResult struct {
	Content     string
	ContentType ContentType
	Title       string
	FinalURL    string
	StatusCode  int
	IsFromCache bool
}

// withCacheFlag returns a shallow copy of r with IsFromCache set, used when
// serving a value out of the cache without mutating the stored entry.
func (r FetchResult) withCacheFlag(fromCache bool) FetchResult {
	r.IsFromCache = fromCache
	return r
}
