// Package client owns the on-screen process list, a per-id preview cache and
// the selection/dropdown state machine. Controller is a bubbletea Model:
// fetches run as commands and report back as messages, so all state changes
// happen on the single Update loop.
package client

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"procproxy/internal/proxy"
	"procproxy/pkg/types"
)

// Fetcher is the slice of the proxy service the controller consumes.
// *proxy.Service and *RemoteFetcher implement it.
type Fetcher interface {
	FetchOwned(ctx context.Context, rawCredential string) ([]types.ProcessSummary, error)
	FetchDetail(ctx context.Context, rawCredential, id string) (types.ProcessDetail, error)
	FetchPreview(ctx context.Context, rawCredential, id string) (types.PreviewImage, error)
}

// PreviewStatus is the state of one preview cache entry.
type PreviewStatus int

const (
	PreviewPending PreviewStatus = iota + 1
	PreviewReady
	// PreviewUnavailable: the fetch failed; the item renders without a preview.
	PreviewUnavailable
)

// PreviewEntry is one cache slot.
type PreviewEntry struct {
	Status PreviewStatus
	Image  types.PreviewImage
}

// UiState is the client-visible state.
type UiState struct {
	Loading      bool
	Items        []types.ProcessSummary
	PreviewCache map[string]PreviewEntry
	Selected     *types.ProcessSummary
	DropdownOpen bool
	LastError    string
}

// Options configures a Controller.
type Options struct {
	Fetcher     Fetcher
	Credentials CredentialSource
	Sink        SelectionSink
	// RestoreSelection is a previously persisted selection: a bare id or a
	// URL ending in the id. When set, Init fetches only that item.
	RestoreSelection string
	Logger           zerolog.Logger
}

// Controller drives UiState. It is not safe for concurrent use; run it under
// a tea.Program or call its methods from one goroutine.
type Controller struct {
	fetcher   Fetcher
	creds     CredentialSource
	sink      SelectionSink
	log       zerolog.Logger
	restoreID string

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	state          UiState
	loaded         bool
	gen            uint64
	listInFlight   bool
	detailInFlight bool
	detail         *types.ProcessDetail
	cursor         int
}

// New returns a controller in the initial state.
func New(opts Options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:   opts.Fetcher,
		creds:     opts.Credentials,
		sink:      opts.Sink,
		log:       opts.Logger,
		restoreID: ExtractID(opts.RestoreSelection),
		ctx:       ctx,
		cancel:    cancel,
		state: UiState{
			Items:        []types.ProcessSummary{},
			PreviewCache: map[string]PreviewEntry{},
		},
	}
	if c.sink == nil {
		c.sink = noopSink{}
	}
	return c
}

type ownedMsg struct {
	gen   uint64
	items []types.ProcessSummary
	err   error
}

type previewMsg struct {
	id  string
	img types.PreviewImage
	err error
}

type detailMsg struct {
	id     string
	detail types.ProcessDetail
	err    error
}

// Init implements tea.Model: restore a persisted selection if one was
// given, otherwise load the owned list.
func (c *Controller) Init() tea.Cmd {
	if c.restoreID != "" {
		return c.Restore(c.restoreID)
	}
	return c.Start()
}

// Start begins loading the owned list. A newer Start supersedes any list
// fetch still in flight.
func (c *Controller) Start() tea.Cmd {
	if c.closed || c.fetcher == nil {
		return nil
	}
	c.gen++
	gen := c.gen
	c.listInFlight = true
	c.syncLoading()
	ctx := c.ctx
	return func() tea.Msg {
		items, err := c.fetcher.FetchOwned(ctx, c.credential(ctx))
		return ownedMsg{gen: gen, items: items, err: err}
	}
}

// Restore fetches the detail and preview of one item, identified by a bare
// id or a URL, without loading the owned list.
func (c *Controller) Restore(ref string) tea.Cmd {
	id := ExtractID(ref)
	if c.closed || c.fetcher == nil || id == "" {
		return nil
	}
	c.detailInFlight = true
	c.syncLoading()
	ctx := c.ctx
	detail := func() tea.Msg {
		d, err := c.fetcher.FetchDetail(ctx, c.credential(ctx), id)
		return detailMsg{id: id, detail: d, err: err}
	}
	return tea.Batch(detail, c.previewCmd(id))
}

// Update implements tea.Model.
func (c *Controller) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case ownedMsg:
		return c, c.applyOwned(m)
	case previewMsg:
		c.applyPreview(m)
	case detailMsg:
		c.applyDetail(m)
	case tea.KeyMsg:
		return c, c.handleKey(m)
	}
	return c, nil
}

func (c *Controller) applyOwned(m ownedMsg) tea.Cmd {
	if c.closed || m.gen != c.gen {
		c.log.Debug().Uint64("gen", m.gen).Msg("dropping stale owned list")
		return nil
	}
	c.listInFlight = false
	c.syncLoading()
	if m.err != nil {
		c.state.LastError = Describe(m.err)
		c.log.Warn().Str("kind", proxy.KindOf(m.err).String()).Msg("owned list fetch failed")
		return nil
	}
	items := make([]types.ProcessSummary, len(m.items))
	copy(items, m.items)
	c.state.Items = items
	c.state.LastError = ""
	c.loaded = true
	if c.cursor >= len(items) {
		c.cursor = 0
	}

	cmds := make([]tea.Cmd, 0, len(items))
	for _, it := range items {
		if e, ok := c.state.PreviewCache[it.ID]; ok && e.Status != PreviewUnavailable {
			continue
		}
		cmds = append(cmds, c.previewCmd(it.ID))
	}
	return tea.Batch(cmds...)
}

// previewCmd marks id pending and returns the command fetching it.
func (c *Controller) previewCmd(id string) tea.Cmd {
	if e, ok := c.state.PreviewCache[id]; ok && e.Status == PreviewReady {
		return nil
	}
	c.state.PreviewCache[id] = PreviewEntry{Status: PreviewPending}
	ctx := c.ctx
	return func() tea.Msg {
		img, err := c.fetcher.FetchPreview(ctx, c.credential(ctx), id)
		return previewMsg{id: id, img: img, err: err}
	}
}

func (c *Controller) applyPreview(m previewMsg) {
	if c.closed {
		return
	}
	if m.err != nil || m.img.Empty() {
		c.state.PreviewCache[m.id] = PreviewEntry{Status: PreviewUnavailable}
		return
	}
	c.state.PreviewCache[m.id] = PreviewEntry{Status: PreviewReady, Image: m.img}
}

func (c *Controller) applyDetail(m detailMsg) {
	if c.closed {
		return
	}
	c.detailInFlight = false
	c.syncLoading()
	if m.err != nil {
		c.state.LastError = Describe(m.err)
		c.log.Warn().Str("id", m.id).Str("kind", proxy.KindOf(m.err).String()).Msg("restore fetch failed")
		return
	}
	d := m.detail
	sel := d.ProcessSummary
	c.detail = &d
	c.state.Selected = &sel
}

// ToggleDropdown flips the dropdown; items and previews are untouched.
func (c *Controller) ToggleDropdown() {
	c.state.DropdownOpen = !c.state.DropdownOpen
}

// Select makes item current, closes the dropdown and notifies the sink. It
// returns the cached preview, or false while it is pending or unavailable.
func (c *Controller) Select(item types.ProcessSummary) (types.PreviewImage, bool) {
	if c.closed {
		return types.PreviewImage{}, false
	}
	sel := item
	c.state.Selected = &sel
	c.state.DropdownOpen = false
	c.sink.SelectionChanged(item.ID)
	if e, ok := c.state.PreviewCache[item.ID]; ok && e.Status == PreviewReady {
		return e.Image, true
	}
	return types.PreviewImage{}, false
}

// Teardown cancels outstanding fetches; completions arriving afterwards are
// discarded.
func (c *Controller) Teardown() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
}

// Closed reports whether Teardown has run.
func (c *Controller) Closed() bool { return c.closed }

// Loaded reports whether an owned list has been received, which tells an
// empty list apart from one that never arrived.
func (c *Controller) Loaded() bool { return c.loaded }

// Detail returns the detail fetched by Restore, if any.
func (c *Controller) Detail() (types.ProcessDetail, bool) {
	if c.detail == nil {
		return types.ProcessDetail{}, false
	}
	return *c.detail, true
}

// State returns a snapshot of the current state. Mutating the snapshot does
// not affect the controller.
func (c *Controller) State() UiState {
	s := c.state
	s.Items = append([]types.ProcessSummary(nil), c.state.Items...)
	if s.Items == nil {
		s.Items = []types.ProcessSummary{}
	}
	s.PreviewCache = make(map[string]PreviewEntry, len(c.state.PreviewCache))
	for k, v := range c.state.PreviewCache {
		s.PreviewCache[k] = v
	}
	if c.state.Selected != nil {
		sel := *c.state.Selected
		s.Selected = &sel
	}
	return s
}

func (c *Controller) syncLoading() {
	c.state.Loading = c.listInFlight || c.detailInFlight
}

// credential asks the source for a raw token; failures mean none.
func (c *Controller) credential(ctx context.Context) string {
	if c.creds == nil {
		return ""
	}
	raw, err := c.creds.Token(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("credential source failed")
		return ""
	}
	return raw
}

// Describe turns a fetch failure into a message for the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	switch proxy.KindOf(err) {
	case proxy.KindNoCredential:
		return "Not signed in: connect your account to see your processes."
	case proxy.KindAuthExpired:
		return "Your session has expired. Sign in again to reload your processes."
	case proxy.KindUpstream:
		return "The process service is not responding right now. Try again shortly."
	case proxy.KindNotFound:
		return "The selected process could not be found."
	default:
		return "Something went wrong while loading your processes."
	}
}
