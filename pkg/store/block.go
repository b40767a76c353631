package store

import (
	"context"
	"sync"

	"github.com/notefold/notefold.go/pkg/api"
	"github.com/notefold/notefold.go/pkg/gateway"
	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/models"
	"github.com/notefold/notefold.go/pkg/ref"
)

// refreshBatchSize matches the server's listing slice size. Refresh keeps
// paging while full batches come back.
const refreshBatchSize = 25

// Publisher sends gateway messages. The gateway channel satisfies it; tests
// substitute a recorder. Sends are best-effort: a disconnected channel
// drops them and the reconnect rejoin resynchronizes peers.
type Publisher interface {
	Send(msg gateway.Outbound)
}

// BlockStore caches the blocks of the currently open page, ordered as the
// server orders them. Local mutations write through to the server, update
// the cache from the canonical response and announce themselves on the
// gateway. Remote notifications reconcile the cache with targeted fetches,
// never a full reload.
type BlockStore struct {
	api    *api.Client
	pages  *PageStore
	pub    Publisher
	logger logger.Logger

	mu     sync.Mutex
	blocks []models.Block

	// Blocks publishes ordered cache snapshots for UI bindings.
	Blocks *ref.Ref[[]models.Block]

	GetErr    *ref.Ref[string]
	CreateErr *ref.Ref[string]
	UpdateErr *ref.Ref[string]
	DeleteErr *ref.Ref[string]
	OrderErr  *ref.Ref[string]
}

// NewBlockStore creates an empty BlockStore. Blocks are scoped to the
// page store's current page.
func NewBlockStore(client *api.Client, pages *PageStore, pub Publisher, log logger.Logger) *BlockStore {
	return &BlockStore{
		api:       client,
		pages:     pages,
		pub:       pub,
		logger:    log,
		Blocks:    ref.New([]models.Block(nil)),
		GetErr:    ref.New(""),
		CreateErr: ref.New(""),
		UpdateErr: ref.New(""),
		DeleteErr: ref.New(""),
		OrderErr:  ref.New(""),
	}
}

// Register subscribes the store to the four block notifications. Handlers
// ignore notifications that arrive while no page is open and reconcile
// self-originated echoes as no-ops.
func (s *BlockStore) Register(d *gateway.Dispatcher) {
	gateway.On(d, gateway.KindBlockAdded, func(msg gateway.BlockAdded) {
		page := s.pages.CurrentPage()
		if page == nil || s.cached(msg.BlockID) {
			return
		}
		s.fetchInto(page.ID, msg.BlockID)
	})
	gateway.On(d, gateway.KindBlockModified, func(msg gateway.BlockModified) {
		page := s.pages.CurrentPage()
		if page == nil {
			return
		}
		s.fetchInto(page.ID, msg.BlockID)
	})
	gateway.On(d, gateway.KindBlockDeleted, func(msg gateway.BlockDeleted) {
		if s.pages.CurrentPage() == nil {
			return
		}
		s.mu.Lock()
		removed := s.removeLocked(msg.BlockID)
		s.mu.Unlock()
		if removed {
			s.publish()
		}
	})
	gateway.On(d, gateway.KindBlockMoved, func(msg gateway.BlockMoved) {
		page := s.pages.CurrentPage()
		if page == nil {
			return
		}
		s.mu.Lock()
		moved := s.moveToIndexLocked(msg.BlockID, msg.Dest)
		s.mu.Unlock()
		if moved {
			s.publish()
			return
		}
		// Unknown block: the move notification races its add. Fetch it;
		// the fresh sequence places it correctly.
		s.fetchInto(page.ID, msg.BlockID)
	})
}

// CachedBlocks returns a copy of the ordered cache.
func (s *BlockStore) CachedBlocks() []models.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocks := make([]models.Block, len(s.blocks))
	copy(blocks, s.blocks)
	return blocks
}

// Reset drops the cache, for page switches.
func (s *BlockStore) Reset() {
	s.mu.Lock()
	s.blocks = nil
	s.mu.Unlock()
	s.publish()
}

// Get returns the block with the given id, fetching it from the server and
// refreshing the cached copy.
func (s *BlockStore) Get(ctx context.Context, id string) (*models.Block, error) {
	page := s.pages.CurrentPage()
	if page == nil {
		return nil, ErrNoCurrentPage
	}

	block, err := s.api.GetBlock(ctx, page.ID, id)
	if err != nil {
		s.GetErr.Set(err.Error())
		return nil, err
	}

	s.mu.Lock()
	s.upsertLocked(*block)
	s.mu.Unlock()
	s.publish()
	s.GetErr.Set("")
	return block, nil
}

// ListBlocks fetches one listing batch starting after the block with id
// start (empty for the beginning). A pure read: the cache is not touched.
func (s *BlockStore) ListBlocks(ctx context.Context, start string) ([]models.Block, error) {
	page := s.pages.CurrentPage()
	if page == nil {
		return nil, ErrNoCurrentPage
	}

	blocks, err := s.api.ListBlocks(ctx, page.ID, start)
	if err != nil {
		s.GetErr.Set(err.Error())
		return nil, err
	}
	s.GetErr.Set("")
	return blocks, nil
}

// Refresh replaces the cache with the full server listing, paging with the
// cursor until a short batch ends the walk.
func (s *BlockStore) Refresh(ctx context.Context) error {
	page := s.pages.CurrentPage()
	if page == nil {
		return ErrNoCurrentPage
	}

	var all []models.Block
	start := ""
	for {
		batch, err := s.api.ListBlocks(ctx, page.ID, start)
		if err != nil {
			s.GetErr.Set(err.Error())
			return err
		}
		all = append(all, batch...)
		if len(batch) < refreshBatchSize {
			break
		}
		start = batch[len(batch)-1].ID
	}

	s.mu.Lock()
	s.blocks = all
	s.renumberLocked()
	s.mu.Unlock()
	s.publish()
	s.GetErr.Set("")
	return nil
}

// Create persists a new block with the given client-generated id, caches
// the canonical copy and announces it on the gateway.
func (s *BlockStore) Create(ctx context.Context, id string, draft models.BlockCreation) (*models.Block, error) {
	page := s.pages.CurrentPage()
	if page == nil {
		return nil, ErrNoCurrentPage
	}

	block, err := s.api.CreateBlock(ctx, page.ID, id, draft)
	if err != nil {
		s.CreateErr.Set(err.Error())
		return nil, err
	}

	s.mu.Lock()
	s.upsertLocked(*block)
	s.mu.Unlock()
	s.publish()
	s.CreateErr.Set("")
	s.announce(gateway.BlockAdded{BlockID: block.ID})
	return block, nil
}

// Update patches a block's type or data and announces the modification.
func (s *BlockStore) Update(ctx context.Context, id string, patch models.BlockUpdate) (*models.Block, error) {
	page := s.pages.CurrentPage()
	if page == nil {
		return nil, ErrNoCurrentPage
	}

	block, err := s.api.UpdateBlock(ctx, page.ID, id, patch)
	if err != nil {
		s.UpdateErr.Set(err.Error())
		return nil, err
	}

	s.mu.Lock()
	s.upsertLocked(*block)
	s.mu.Unlock()
	s.publish()
	s.UpdateErr.Set("")
	s.announce(gateway.BlockModified{BlockID: block.ID})
	return block, nil
}

// Delete removes a block and announces the deletion.
func (s *BlockStore) Delete(ctx context.Context, id string) error {
	page := s.pages.CurrentPage()
	if page == nil {
		return ErrNoCurrentPage
	}

	if _, err := s.api.DeleteBlock(ctx, page.ID, id); err != nil {
		s.DeleteErr.Set(err.Error())
		return err
	}

	s.mu.Lock()
	s.removeLocked(id)
	s.mu.Unlock()
	s.publish()
	s.DeleteErr.Set("")
	s.announce(gateway.BlockDeleted{BlockID: id})
	return nil
}

// Swap exchanges the positions of two blocks. Unknown ids make it a no-op.
func (s *BlockStore) Swap(ctx context.Context, aID, bID string) error {
	page := s.pages.CurrentPage()
	if page == nil {
		return ErrNoCurrentPage
	}
	if aID == bID || !s.cached(aID) || !s.cached(bID) {
		return nil
	}

	if err := s.api.SwapBlocks(ctx, page.ID, aID, bID); err != nil {
		s.OrderErr.Set(err.Error())
		return err
	}

	s.mu.Lock()
	ai, bi := s.indexOfLocked(aID), s.indexOfLocked(bID)
	if ai >= 0 && bi >= 0 {
		s.blocks[ai], s.blocks[bi] = s.blocks[bi], s.blocks[ai]
		s.renumberLocked()
	}
	s.mu.Unlock()
	s.publish()
	s.OrderErr.Set("")
	s.announce(gateway.BlockMoved{BlockID: aID, Dest: bi})
	s.announce(gateway.BlockMoved{BlockID: bID, Dest: ai})
	return nil
}

// Move repositions a block in front of the block with id beforeID, or to
// the end of the page when beforeID is nil. An unknown reference block
// makes it a no-op.
func (s *BlockStore) Move(ctx context.Context, id string, beforeID *string) error {
	page := s.pages.CurrentPage()
	if page == nil {
		return ErrNoCurrentPage
	}

	s.mu.Lock()
	src := s.indexOfLocked(id)
	if src < 0 {
		s.mu.Unlock()
		return nil
	}
	dest := len(s.blocks) - 1
	if beforeID != nil {
		bi := s.indexOfLocked(*beforeID)
		if bi < 0 {
			s.mu.Unlock()
			return nil
		}
		// Removing the block first shifts everything after it down one,
		// so a forward move lands one short of the reference index.
		if src < bi {
			dest = bi - 1
		} else {
			dest = bi
		}
	}
	s.mu.Unlock()
	if dest == src {
		return nil
	}

	if err := s.api.MoveBlock(ctx, page.ID, id, dest); err != nil {
		s.OrderErr.Set(err.Error())
		return err
	}

	s.mu.Lock()
	s.moveToIndexLocked(id, dest)
	s.mu.Unlock()
	s.publish()
	s.OrderErr.Set("")
	s.announce(gateway.BlockMoved{BlockID: id, Dest: dest})
	return nil
}

// fetchInto pulls one block and reconciles it into the cache.
func (s *BlockStore) fetchInto(pageID int, blockID string) {
	block, err := s.api.GetBlock(context.Background(), pageID, blockID)
	if err != nil {
		s.logger.Warn("block: reconcile fetch failed", "block_id", blockID, "error", err)
		return
	}
	s.mu.Lock()
	s.upsertLocked(*block)
	s.mu.Unlock()
	s.publish()
}

func (s *BlockStore) announce(msg gateway.Outbound) {
	if s.pub == nil {
		return
	}
	s.pub.Send(msg)
}

func (s *BlockStore) cached(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOfLocked(id) >= 0
}

func (s *BlockStore) indexOfLocked(id string) int {
	for i := range s.blocks {
		if s.blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// upsertLocked replaces a cached block in place or inserts a new one at
// the position its server sequence calls for, then renumbers. Inserting
// before the first block with an equal sequence mirrors the server shifting
// later blocks up.
func (s *BlockStore) upsertLocked(block models.Block) {
	if i := s.indexOfLocked(block.ID); i >= 0 {
		s.blocks[i] = block
		return
	}
	at := len(s.blocks)
	for i := range s.blocks {
		if s.blocks[i].Sequence >= block.Sequence {
			at = i
			break
		}
	}
	s.blocks = append(s.blocks, models.Block{})
	copy(s.blocks[at+1:], s.blocks[at:])
	s.blocks[at] = block
	s.renumberLocked()
}

func (s *BlockStore) removeLocked(id string) bool {
	i := s.indexOfLocked(id)
	if i < 0 {
		return false
	}
	s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
	s.renumberLocked()
	return true
}

// moveToIndexLocked repositions a cached block to the given index,
// clamping out-of-range destinations.
func (s *BlockStore) moveToIndexLocked(id string, dest int) bool {
	src := s.indexOfLocked(id)
	if src < 0 {
		return false
	}
	block := s.blocks[src]
	s.blocks = append(s.blocks[:src], s.blocks[src+1:]...)
	if dest < 0 {
		dest = 0
	}
	if dest > len(s.blocks) {
		dest = len(s.blocks)
	}
	s.blocks = append(s.blocks, models.Block{})
	copy(s.blocks[dest+1:], s.blocks[dest:])
	s.blocks[dest] = block
	s.renumberLocked()
	return true
}

// renumberLocked rewrites cached sequences from slice positions. Cached
// sequences are a local ordering key; fresh server values reposition a
// block on the next fetch regardless.
func (s *BlockStore) renumberLocked() {
	for i := range s.blocks {
		s.blocks[i].Sequence = i
	}
}

func (s *BlockStore) publish() {
	s.mu.Lock()
	blocks := make([]models.Block, len(s.blocks))
	copy(blocks, s.blocks)
	s.mu.Unlock()
	s.Blocks.Set(blocks)
}
