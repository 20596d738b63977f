// FilePath: internal/filebrowser/browser.go
package filebrowser

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/strct-org/beeportal/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// FilesClient is the slice of the device client the browser needs.
type FilesClient interface {
	ListFiles(ctx context.Context, deviceID, path string) ([]models.FileItem, error)
	Mkdir(ctx context.Context, deviceID, path, name string) error
	Delete(ctx context.Context, deviceID, path string) error
	Upload(ctx context.Context, deviceID, path, filename string, content io.Reader) error
}

// Listing is one read of the browser's state.
type Listing struct {
	Path    string            `json:"path"`
	Files   []models.FileItem `json:"files"`
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
}

// Browser navigates one device's filesystem. Listings are fetched on every
// path change and never cached across directories. A generation counter
// guards against a slow response for a previous path overwriting the
// current listing after the user has navigated away.
type Browser struct {
	client   FilesClient
	deviceID string

	mu      sync.Mutex
	path    string
	files   []models.FileItem
	loading bool
	errMsg  string
	gen     uint64
}

func NewBrowser(client FilesClient, deviceID string) *Browser {
	return &Browser{
		client:   client,
		deviceID: deviceID,
		path:     "/",
		files:    []models.FileItem{},
	}
}

// Navigate switches to path and fetches its listing. Only the newest
// navigation may publish its result; a result for a superseded generation
// is discarded.
func (b *Browser) Navigate(ctx context.Context, path string) Listing {
	path = normalizePath(path)

	b.mu.Lock()
	b.path = path
	b.loading = true
	b.errMsg = ""
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	files, err := b.client.ListFiles(ctx, b.deviceID, path)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		// A newer navigation superseded this fetch.
		nuts.L.Debugf("[FileBrowser] Dropping stale listing for %s:%s", b.deviceID, path)
		return b.listingLocked()
	}

	b.loading = false
	if err != nil {
		b.errMsg = "could not connect to device"
		b.files = []models.FileItem{}
		return b.listingLocked()
	}

	sortListing(files)
	b.files = files
	return b.listingLocked()
}

// Enter navigates into a folder of the current directory.
func (b *Browser) Enter(ctx context.Context, folderName string) Listing {
	b.mu.Lock()
	next := joinPath(b.path, folderName)
	b.mu.Unlock()
	return b.Navigate(ctx, next)
}

// Up navigates to the parent of the current directory.
func (b *Browser) Up(ctx context.Context) Listing {
	b.mu.Lock()
	next := parentPath(b.path)
	b.mu.Unlock()
	return b.Navigate(ctx, next)
}

// ResetToRoot is the escape hatch out of a terminal error state.
func (b *Browser) ResetToRoot(ctx context.Context) Listing {
	return b.Navigate(ctx, "/")
}

// Refresh re-fetches the current directory.
func (b *Browser) Refresh(ctx context.Context) Listing {
	b.mu.Lock()
	current := b.path
	b.mu.Unlock()
	return b.Navigate(ctx, current)
}

// Mkdir creates a folder in the current directory and refreshes the listing
// on success.
func (b *Browser) Mkdir(ctx context.Context, name string) (Listing, error) {
	b.mu.Lock()
	current := b.path
	b.mu.Unlock()

	if err := b.client.Mkdir(ctx, b.deviceID, current, name); err != nil {
		return b.Listing(), err
	}
	return b.Refresh(ctx), nil
}

// Delete removes an entry of the current directory and refreshes the
// listing on success.
func (b *Browser) Delete(ctx context.Context, name string) (Listing, error) {
	b.mu.Lock()
	target := joinPath(b.path, name)
	b.mu.Unlock()

	if err := b.client.Delete(ctx, b.deviceID, target); err != nil {
		return b.Listing(), err
	}
	return b.Refresh(ctx), nil
}

// Upload stores a file into the current directory and refreshes the listing
// on success.
func (b *Browser) Upload(ctx context.Context, filename string, content io.Reader) (Listing, error) {
	b.mu.Lock()
	current := b.path
	b.mu.Unlock()

	if err := b.client.Upload(ctx, b.deviceID, current, filename, content); err != nil {
		return b.Listing(), err
	}
	return b.Refresh(ctx), nil
}

// Listing returns the current state without fetching.
func (b *Browser) Listing() Listing {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listingLocked()
}

// Path returns the current directory.
func (b *Browser) Path() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

// DownloadPath builds the raw-download path for a file in the current
// directory.
func (b *Browser) DownloadPath(fileName string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return joinPath(b.path, fileName)
}

func (b *Browser) listingLocked() Listing {
	files := make([]models.FileItem, len(b.files))
	copy(files, b.files)
	return Listing{
		Path:    b.path,
		Files:   files,
		Loading: b.loading,
		Error:   b.errMsg,
	}
}

// sortListing orders folders first, then by name, matching the portal's
// display order.
func sortListing(files []models.FileItem) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Type != files[j].Type {
			return files[i].Type == models.FileTypeFolder
		}
		return files[i].Name < files[j].Name
	})
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func joinPath(current, name string) string {
	if current == "/" {
		return "/" + name
	}
	return current + "/" + name
}

func parentPath(current string) string {
	if current == "/" {
		return "/"
	}
	idx := strings.LastIndex(current, "/")
	if idx <= 0 {
		return "/"
	}
	return current[:idx]
}
