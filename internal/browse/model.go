package browse

import (
	"context"
	"strings"
	"time"

	"catalog/internal/client"
	"catalog/internal/forms"

	tea "github.com/charmbracelet/bubbletea"
)

// DebounceDelay is the quiet period after the last keystroke before a search runs.
const DebounceDelay = 300 * time.Millisecond

// API is the subset of the catalog client the browser needs.
type API interface {
	List(ctx context.Context) ([]client.Product, error)
	Search(ctx context.Context, query string) ([]client.Product, error)
	Update(ctx context.Context, id uint, payload client.ProductPayload) (*client.Product, error)
	Delete(ctx context.Context, id uint) error
}

// DebounceState tracks the pending search timer.
type DebounceState int

const (
	DebounceIdle DebounceState = iota
	DebouncePending
	DebounceFired
	DebounceCancelled
)

func (s DebounceState) String() string {
	switch s {
	case DebouncePending:
		return "pending"
	case DebounceFired:
		return "fired"
	case DebounceCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

type mode int

const (
	modeList mode = iota
	modeEdit
	modeConfirmDelete
)

type (
	debounceMsg struct{ seq int }

	productsLoadedMsg struct {
		seq      int
		products []client.Product
		err      error
	}

	productUpdatedMsg struct {
		id      uint
		payload client.ProductPayload
		stored  *client.Product
		err     error
	}

	productDeletedMsg struct {
		id  uint
		err error
	}
)

// Notice is the message shown under the list.
type Notice struct {
	Text  string
	Error bool
}

// Option configures a Model.
type Option func(*Model)

// WithDebounceDelay overrides DebounceDelay.
func WithDebounceDelay(d time.Duration) Option {
	return func(m *Model) { m.delay = d }
}

// WithRequestTimeout bounds every API call.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Model) { m.timeout = d }
}

// Model is the list and search screen.
type Model struct {
	api     API
	delay   time.Duration
	timeout time.Duration

	products   []client.Product
	query      string
	loading    bool
	refreshing bool
	cursor     int
	notice     Notice

	mode       mode
	form       forms.ProductForm
	focus      int
	editingID  uint
	pendingDel *client.Product

	debounce    DebounceState
	debounceSeq int
	requestSeq  int

	width int
}

// New builds a model that loads the full list on Init.
func New(api API, opts ...Option) Model {
	m := Model{
		api:        api,
		delay:      DebounceDelay,
		timeout:    10 * time.Second,
		loading:    true,
		requestSeq: 1,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.fetch(m.requestSeq, "")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}

	case debounceMsg:
		if msg.seq != m.debounceSeq || m.debounce != DebouncePending {
			return m, nil
		}
		m.debounce = DebounceFired
		return m, m.load(strings.TrimSpace(m.query))

	case productsLoadedMsg:
		if msg.seq != m.requestSeq {
			// A newer list or search was issued after this one.
			return m, nil
		}
		m.loading = false
		m.refreshing = false
		if m.debounce != DebouncePending {
			m.debounce = DebounceIdle
		}
		if msg.err != nil {
			m.notice = Notice{Text: "could not load products: " + msg.err.Error(), Error: true}
			return m, nil
		}
		m.products = msg.products
		m.clampCursor()
		return m, nil

	case productUpdatedMsg:
		if msg.err != nil {
			m.notice = Notice{Text: "update failed: " + msg.err.Error(), Error: true}
			return m, nil
		}
		for i := range m.products {
			if m.products[i].ID != msg.id {
				continue
			}
			// Prefer the stored record: the server trims and rounds what it was sent.
			if msg.stored != nil {
				m.products[i] = *msg.stored
			} else {
				m.products[i].Name = msg.payload.Name
				m.products[i].Price = client.Price(msg.payload.Price)
				m.products[i].Description = msg.payload.Description
			}
			break
		}
		m.notice = Notice{Text: "product updated"}
		return m, nil

	case productDeletedMsg:
		if msg.err != nil {
			m.notice = Notice{Text: "delete failed: " + msg.err.Error(), Error: true}
			return m, nil
		}
		kept := m.products[:0:0]
		for _, p := range m.products {
			if p.ID != msg.id {
				kept = append(kept, p)
			}
		}
		m.products = kept
		m.clampCursor()
		m.notice = Notice{Text: "product deleted"}
		return m, nil
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "ctrl+r":
		return m, m.refresh()
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.products)-1 {
			m.cursor++
		}
		return m, nil
	case "ctrl+e":
		if p, ok := m.Selected(); ok {
			m.mode = modeEdit
			m.form = forms.FromProduct(p)
			m.focus = 0
			m.editingID = p.ID
		}
		return m, nil
	case "ctrl+d":
		if p, ok := m.Selected(); ok {
			m.mode = modeConfirmDelete
			m.pendingDel = &p
		}
		return m, nil
	case "backspace":
		if m.query == "" {
			return m, nil
		}
		r := []rune(m.query)
		m.query = string(r[:len(r)-1])
		return m, m.scheduleSearch()
	}
	switch msg.Type {
	case tea.KeyRunes:
		m.query += string(msg.Runes)
	case tea.KeySpace:
		m.query += " "
	default:
		return m, nil
	}
	return m, m.scheduleSearch()
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		return m, nil
	case "tab", "down":
		m.focus = (m.focus + 1) % 3
		return m, nil
	case "shift+tab", "up":
		m.focus = (m.focus + 2) % 3
		return m, nil
	case "enter":
		payload, err := m.form.Validate()
		if err != nil {
			m.notice = Notice{Text: err.Error(), Error: true}
			return m, nil
		}
		m.mode = modeList
		return m, m.update(m.editingID, payload)
	case "backspace":
		field := m.focusedField()
		if r := []rune(*field); len(r) > 0 {
			*field = string(r[:len(r)-1])
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		*m.focusedField() += string(msg.Runes)
	} else if msg.Type == tea.KeySpace {
		*m.focusedField() += " "
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := m.pendingDel
	m.mode = modeList
	m.pendingDel = nil
	if target != nil && (msg.String() == "y" || msg.String() == "Y") {
		return m, m.remove(target.ID)
	}
	return m, nil
}

func (m *Model) focusedField() *string {
	switch m.focus {
	case 1:
		return &m.form.Price
	case 2:
		return &m.form.Description
	default:
		return &m.form.Name
	}
}

// scheduleSearch starts a new debounce timer; any earlier timer is orphaned.
func (m *Model) scheduleSearch() tea.Cmd {
	m.debounceSeq++
	m.debounce = DebouncePending
	seq := m.debounceSeq
	return tea.Tick(m.delay, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq}
	})
}

func (m *Model) refresh() tea.Cmd {
	m.query = ""
	if m.debounce == DebouncePending {
		m.debounce = DebounceCancelled
	}
	m.debounceSeq++
	m.refreshing = true
	return m.load("")
}

func (m *Model) load(query string) tea.Cmd {
	m.requestSeq++
	return m.fetch(m.requestSeq, query)
}

func (m Model) fetch(seq int, query string) tea.Cmd {
	api, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		var (
			products []client.Product
			err      error
		)
		if query == "" {
			products, err = api.List(ctx)
		} else {
			products, err = api.Search(ctx, query)
		}
		return productsLoadedMsg{seq: seq, products: products, err: err}
	}
}

func (m Model) update(id uint, payload client.ProductPayload) tea.Cmd {
	api, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		stored, err := api.Update(ctx, id, payload)
		return productUpdatedMsg{id: id, payload: payload, stored: stored, err: err}
	}
}

func (m Model) remove(id uint) tea.Cmd {
	api, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return productDeletedMsg{id: id, err: api.Delete(ctx, id)}
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.products) {
		m.cursor = len(m.products) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Products returns the rows currently shown.
func (m Model) Products() []client.Product { return m.products }

// Query returns the search text.
func (m Model) Query() string { return m.query }

// Loading reports whether the initial load is still running.
func (m Model) Loading() bool { return m.loading }

// Refreshing reports whether a refresh is in flight.
func (m Model) Refreshing() bool { return m.refreshing }

// Debounce returns the search timer state.
func (m Model) Debounce() DebounceState { return m.debounce }

// Notice returns the current notification.
func (m Model) Notice() Notice { return m.notice }

// Editing reports whether the edit form is open.
func (m Model) Editing() bool { return m.mode == modeEdit }

// Form returns the edit form contents.
func (m Model) Form() forms.ProductForm { return m.form }

// Selected returns the product under the cursor.
func (m Model) Selected() (client.Product, bool) {
	if m.cursor < 0 || m.cursor >= len(m.products) {
		return client.Product{}, false
	}
	return m.products[m.cursor], true
}

// Run starts the interactive browser.
func Run(api API, opts ...Option) error {
	_, err := tea.NewProgram(New(api, opts...), tea.WithAltScreen()).Run()
	return err
}
