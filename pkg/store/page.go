package store

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/notefold/notefold.go/internal/slug"
	"github.com/notefold/notefold.go/pkg/api"
	"github.com/notefold/notefold.go/pkg/gateway"
	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/models"
	"github.com/notefold/notefold.go/pkg/ref"
)

const minTitleLength = 3

// PageStore caches the known pages and the currently open page. Every
// successful mutation overwrites the cached copy with the canonical Page
// the server returned; failures leave prior cached state untouched.
type PageStore struct {
	api    *api.Client
	nav    Navigator
	logger logger.Logger

	mu      sync.Mutex
	current *models.Page
	pages   []models.Page

	// Current and Pages publish cache snapshots for UI bindings.
	Current *ref.Ref[*models.Page]
	Pages   *ref.Ref[[]models.Page]

	// Per-operation error slots. Cleared on success, set to the mapped
	// human-readable message on failure.
	CreateErr  *ref.Ref[string]
	GetErr     *ref.Ref[string]
	TitleErr   *ref.Ref[string]
	ListErr    *ref.Ref[string]
	DeleteErr  *ref.Ref[string]
	ArchiveErr *ref.Ref[string]
	JoinErr    *ref.Ref[string]
}

// NewPageStore creates an empty PageStore backed by the given API client.
func NewPageStore(client *api.Client, nav Navigator, log logger.Logger) *PageStore {
	if nav == nil {
		nav = NopNavigator()
	}
	return &PageStore{
		api:        client,
		nav:        nav,
		logger:     log,
		Current:    ref.New[*models.Page](nil),
		Pages:      ref.New([]models.Page(nil)),
		CreateErr:  ref.New(""),
		GetErr:     ref.New(""),
		TitleErr:   ref.New(""),
		ListErr:    ref.New(""),
		DeleteErr:  ref.New(""),
		ArchiveErr: ref.New(""),
		JoinErr:    ref.New(""),
	}
}

// Register subscribes the store to gateway notifications: the page snapshot
// that confirms a channel join, and join failures.
func (s *PageStore) Register(d *gateway.Dispatcher) {
	gateway.On(d, gateway.KindJoinedChannel, func(msg gateway.JoinedChannel) {
		s.adoptSnapshot(msg.Page)
		s.JoinErr.Set("")
	})
	gateway.On(d, gateway.KindChannelNotFound, func(msg gateway.ChannelNotFound) {
		s.logger.Warn("page: channel not found", "page_id", msg.PageID)
		s.JoinErr.Set(fmt.Sprintf("no channel exists for page %d", msg.PageID))
	})
}

// CurrentPage returns a copy of the currently open page, or nil.
func (s *PageStore) CurrentPage() *models.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	page := *s.current
	return &page
}

// SetCurrent marks page as the one currently open. Passing nil closes it.
func (s *PageStore) SetCurrent(page *models.Page) {
	s.mu.Lock()
	if page == nil {
		s.current = nil
	} else {
		copied := *page
		s.current = &copied
	}
	s.mu.Unlock()
	s.publish()
}

// KnownPages returns a copy of the known-pages collection.
func (s *PageStore) KnownPages() []models.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := make([]models.Page, len(s.pages))
	copy(pages, s.pages)
	return pages
}

// PageURL returns the navigable path of a page, with a slug derived from
// its title.
func (s *PageStore) PageURL(page models.Page) string {
	return fmt.Sprintf("/page/%d/%s", page.ID, slug.Make(page.Title))
}

// Create persists a new page. On success the returned page becomes current
// and joins the known-pages collection; on failure cached state is left
// untouched and current never points at the failed draft.
func (s *PageStore) Create(ctx context.Context, draft models.PageCreation) (*models.Page, error) {
	page, err := s.api.CreatePage(ctx, draft)
	if err != nil {
		s.CreateErr.Set(err.Error())
		return nil, err
	}

	s.mu.Lock()
	copied := *page
	s.current = &copied
	s.pages = append(s.pages, *page)
	s.mu.Unlock()
	s.publish()
	s.CreateErr.Set("")
	return page, nil
}

// Get returns the page with the given id. When id matches the current page
// the cached copy is returned with no network call; otherwise the page is
// fetched.
func (s *PageStore) Get(ctx context.Context, id int) (*models.Page, error) {
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		page := *s.current
		s.mu.Unlock()
		return &page, nil
	}
	s.mu.Unlock()

	page, err := s.api.GetPage(ctx, id)
	if err != nil {
		s.GetErr.Set(err.Error())
		return nil, err
	}
	s.GetErr.Set("")
	return page, nil
}

// ChangeTitle renames a page. Titles shorter than three characters are
// rejected before any network call. On success the canonical page
// overwrites the cached copies and the visible URL is regenerated so
// navigation stays consistent with the persisted title.
func (s *PageStore) ChangeTitle(ctx context.Context, page models.Page, title string) (*models.Page, error) {
	if utf8.RuneCountInString(title) < minTitleLength {
		return nil, ErrTitleTooShort
	}

	updated, err := s.api.UpdatePage(ctx, page.ID, models.PageCreation{Title: title})
	if err != nil {
		s.TitleErr.Set(err.Error())
		return nil, err
	}

	s.updatePage(*updated)
	s.TitleErr.Set("")
	s.nav.Replace(s.PageURL(*updated))
	return updated, nil
}

// ListPages replaces the known-pages collection with the server's current
// listing. This is a wholesale replacement, not a merge: there is no
// concurrent local mutation to preserve.
func (s *PageStore) ListPages(ctx context.Context) ([]models.Page, error) {
	pages, err := s.api.ListPages(ctx)
	if err != nil {
		s.ListErr.Set(err.Error())
		return nil, err
	}

	s.mu.Lock()
	s.pages = make([]models.Page, len(pages))
	copy(s.pages, pages)
	s.mu.Unlock()
	s.publish()
	s.ListErr.Set("")
	return pages, nil
}

// DeletePage deletes the given page.
func (s *PageStore) DeletePage(ctx context.Context, page models.Page) error {
	return s.DeletePageByID(ctx, page.ID)
}

// DeletePageByID deletes a page by id. On success exactly the id-matched
// entry leaves the known-pages collection.
func (s *PageStore) DeletePageByID(ctx context.Context, id int) error {
	deleted, err := s.api.DeletePage(ctx, id)
	if err != nil {
		s.DeleteErr.Set(err.Error())
		return err
	}

	s.mu.Lock()
	for i := range s.pages {
		if s.pages[i].ID == deleted.ID {
			s.pages = append(s.pages[:i], s.pages[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.publish()
	s.DeleteErr.Set("")
	return nil
}

// Archive flags a page as archived.
func (s *PageStore) Archive(ctx context.Context, page models.Page) (*models.Page, error) {
	updated, err := s.api.ArchivePage(ctx, page.ID)
	if err != nil {
		s.ArchiveErr.Set(err.Error())
		return nil, err
	}
	s.updatePage(*updated)
	s.ArchiveErr.Set("")
	return updated, nil
}

// Unarchive clears a page's archived flag.
func (s *PageStore) Unarchive(ctx context.Context, page models.Page) (*models.Page, error) {
	updated, err := s.api.UnarchivePage(ctx, page.ID)
	if err != nil {
		s.ArchiveErr.Set(err.Error())
		return nil, err
	}
	s.updatePage(*updated)
	s.ArchiveErr.Set("")
	return updated, nil
}

// updatePage overwrites the id-matched entry in the known-pages collection
// and, if it is the current page, the current copy too. A page must never
// have its state inconsistent between the two.
func (s *PageStore) updatePage(page models.Page) {
	s.mu.Lock()
	for i := range s.pages {
		if s.pages[i].ID == page.ID {
			s.pages[i] = page
			break
		}
	}
	if s.current != nil && s.current.ID == page.ID {
		copied := page
		s.current = &copied
	}
	s.mu.Unlock()
	s.publish()
}

// adoptSnapshot merges the page state confirmed by a channel join.
func (s *PageStore) adoptSnapshot(page models.Page) {
	s.updatePage(page)
}

// publish refreshes the observable snapshots. Cache writes happen before
// this runs so observers see consistent state.
func (s *PageStore) publish() {
	s.mu.Lock()
	var current *models.Page
	if s.current != nil {
		copied := *s.current
		current = &copied
	}
	pages := make([]models.Page, len(s.pages))
	copy(pages, s.pages)
	s.mu.Unlock()

	s.Current.Set(current)
	s.Pages.Set(pages)
}
