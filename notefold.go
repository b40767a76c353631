package notefold

import (
	"context"
	"os"

	"github.com/notefold/notefold.go/pkg/api"
	"github.com/notefold/notefold.go/pkg/config"
	"github.com/notefold/notefold.go/pkg/gateway"
	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/models"
	"github.com/notefold/notefold.go/pkg/state"
	"github.com/notefold/notefold.go/pkg/store"
)

// Notifier surfaces user-facing notices from background events, such as a
// failed gateway authentication. Embedders plug in their own presentation.
type Notifier interface {
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Error(string) {}

// Options customizes a Client beyond its Config. Zero values get sensible
// defaults.
type Options struct {
	// Logger receives structured SDK logs. Defaults to JSON on stderr.
	Logger logger.Logger
	// Navigator integrates with the embedder's routing. Defaults to a no-op.
	Navigator store.Navigator
	// Notifier receives user-facing notices. Defaults to a no-op.
	Notifier Notifier
}

// Client is the assembled SDK: the HTTP resource client, the realtime
// gateway channel and the stores that keep local state consistent with the
// server. Create one with New, call Connect, and bind the UI to the stores'
// refs.
type Client struct {
	API        *api.Client
	Channel    *gateway.Channel
	Dispatcher *gateway.Dispatcher

	Pages    *store.PageStore
	Blocks   *store.BlockStore
	Session  *store.SessionStore
	Presence *store.PresenceStore
	Theme    *store.ThemeStore

	logger logger.Logger
	nav    store.Navigator
}

// New assembles a Client from configuration. The persisted state file is
// optional: when it cannot be opened the client still works, without
// persistence.
func New(cfg config.Config, opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.New(os.Stderr)
	}
	nav := opts.Navigator
	if nav == nil {
		nav = store.NopNavigator()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	st, err := state.Open(cfg.StateFile)
	if err != nil {
		log.Warn("client: state file unusable, continuing without persistence",
			"path", cfg.StateFile, "error", err)
		st = nil
	}

	apiClient := api.NewClient(cfg.APIURL, log)
	dispatcher := gateway.NewDispatcher(log)
	channel := gateway.NewChannel(cfg.GatewayURL, dispatcher, log)

	pages := store.NewPageStore(apiClient, nav, log)
	blocks := store.NewBlockStore(apiClient, pages, channel, log)
	session := store.NewSessionStore(apiClient, st, nav, log)
	presence := store.NewPresenceStore(log)
	theme := store.NewThemeStore(st, log)

	pages.Register(dispatcher)
	blocks.Register(dispatcher)
	presence.Register(dispatcher)
	registerLoginHandler(dispatcher, channel, pages, notifier, log)

	return &Client{
		API:        apiClient,
		Channel:    channel,
		Dispatcher: dispatcher,
		Pages:      pages,
		Blocks:     blocks,
		Session:    session,
		Presence:   presence,
		Theme:      theme,
		logger:     log,
		nav:        nav,
	}
}

// registerLoginHandler wires the gateway's authentication outcome: a failed
// login is surfaced to the user, a successful one rejoins the page channel
// so reconnects resubscribe transparently.
func registerLoginHandler(d *gateway.Dispatcher, pub store.Publisher, pages *store.PageStore, notifier Notifier, log logger.Logger) {
	gateway.On(d, gateway.KindLogin, func(msg gateway.Login) {
		if !msg.Success {
			log.Warn("client: gateway rejected login")
			notifier.Error("could not authenticate the realtime connection")
			return
		}
		if msg.Version != gateway.ProtocolVersion {
			log.Warn("client: gateway protocol mismatch",
				"ours", gateway.ProtocolVersion, "theirs", msg.Version)
		}
		log.Info("client: gateway login", "username", msg.Username)
		if page := pages.CurrentPage(); page != nil {
			pub.Send(gateway.RequestJoinChannel{PageID: page.ID})
		}
	})
}

// Connect opens the gateway connection. It returns immediately; the channel
// dials and authenticates in the background, reconnecting on failures.
func (c *Client) Connect() {
	c.Channel.Connect()
}

// Close shuts the gateway connection down.
func (c *Client) Close() error {
	return c.Channel.Close()
}

// Login authenticates against the resource boundary. When the account has
// two-factor authentication enabled the returned session requires a
// Verify2FA call before the identity is usable; otherwise the identity is
// loaded right away.
func (c *Client) Login(ctx context.Context, username, password string) (*api.Session, error) {
	session, err := c.API.Login(ctx, api.Credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	if session.Requires2FA {
		return session, nil
	}
	if err := c.Session.Reload(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// Verify2FA completes a two-factor login and loads the identity.
func (c *Client) Verify2FA(ctx context.Context, code string) (*api.Session, error) {
	session, err := c.API.Verify2FA(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := c.Session.Reload(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// Logout invalidates the server session and clears the local identity.
func (c *Client) Logout(ctx context.Context) error {
	err := c.API.Logout(ctx)
	c.Session.SetIdentity(nil)
	return err
}

// OpenPage makes the page with the given id current: it fetches the page,
// loads its blocks, joins its broadcast channel and navigates to its URL.
func (c *Client) OpenPage(ctx context.Context, id int) (*models.Page, error) {
	page, err := c.Pages.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Pages.SetCurrent(page)
	c.Blocks.Reset()
	if err := c.Blocks.Refresh(ctx); err != nil {
		return nil, err
	}
	c.Channel.Send(gateway.RequestJoinChannel{PageID: page.ID})
	c.nav.Push(c.Pages.PageURL(*page))
	return page, nil
}

// CreateBlock appends a new block to the current page under a fresh
// client-generated id.
func (c *Client) CreateBlock(ctx context.Context, draft models.BlockCreation) (*models.Block, error) {
	return c.Blocks.Create(ctx, models.NewBlockID(), draft)
}

// ClosePage leaves the current page's channel and clears page-scoped state.
func (c *Client) ClosePage() {
	if c.Pages.CurrentPage() == nil {
		return
	}
	c.Channel.Send(gateway.LeaveChannel{})
	c.Pages.SetCurrent(nil)
	c.Blocks.Reset()
}
