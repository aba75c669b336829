package services_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sweetshop-backend/models"
	"sweetshop-backend/repository"
)

// mockSweetRepo is a mutex-guarded in-memory catalog. findByIDHook, when set,
// lets a test feed the pre-validation pass stale stock numbers while the
// committed decrement still sees the real ones.
type mockSweetRepo struct {
	mu           sync.Mutex
	sweets       map[uuid.UUID]*models.Sweet
	findByIDHook func(id uuid.UUID) (*models.Sweet, error)
}

func newMockSweetRepo(sweets ...*models.Sweet) *mockSweetRepo {
	m := &mockSweetRepo{sweets: make(map[uuid.UUID]*models.Sweet)}
	for _, s := range sweets {
		cp := *s
		m.sweets[s.ID] = &cp
	}
	return m
}

func (m *mockSweetRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Sweet, error) {
	if m.findByIDHook != nil {
		return m.findByIDHook(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sweets[id]
	if !ok {
		return nil, &repository.SweetNotFoundError{SweetID: id}
	}
	cp := *s
	return &cp, nil
}

func (m *mockSweetRepo) FindAll(context.Context) ([]models.Sweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Sweet, 0, len(m.sweets))
	for _, s := range m.sweets {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockSweetRepo) Search(_ context.Context, q models.SweetSearchQuery) ([]models.Sweet, error) {
	all, _ := m.FindAll(context.Background())
	var out []models.Sweet
	for _, s := range all {
		if q.Name != "" && s.Name != q.Name {
			continue
		}
		if q.Category != "" && s.Category != q.Category {
			continue
		}
		if q.MinPrice != nil && s.Price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && s.Price.GreaterThan(*q.MaxPrice) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSweetRepo) Create(_ context.Context, sweet *models.Sweet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sweet
	m.sweets[sweet.ID] = &cp
	return nil
}

func (m *mockSweetRepo) Update(_ context.Context, sweet *models.Sweet) error {
	return m.Create(context.Background(), sweet)
}

func (m *mockSweetRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sweets[id]; !ok {
		return &repository.SweetNotFoundError{SweetID: id}
	}
	delete(m.sweets, id)
	return nil
}

func (m *mockSweetRepo) Restock(_ context.Context, id uuid.UUID, amount int) (*models.Sweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sweets[id]
	if !ok {
		return nil, &repository.SweetNotFoundError{SweetID: id}
	}
	s.Quantity += amount
	cp := *s
	return &cp, nil
}

func (m *mockSweetRepo) DecrementStock(_ context.Context, id uuid.UUID, quantity int) (*models.Sweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sweets[id]
	if !ok {
		return nil, &repository.SweetNotFoundError{SweetID: id}
	}
	if s.Quantity < quantity {
		return nil, &repository.InsufficientStockError{
			SweetID: id, Name: s.Name, Available: s.Quantity, Requested: quantity,
		}
	}
	s.Quantity -= quantity
	cp := *s
	return &cp, nil
}

func (m *mockSweetRepo) stockOf(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweets[id].Quantity
}

// mockOrderRepo emulates the transactional commit: all stock checks run
// before any write, under one lock shared with the catalog, so a failed order
// leaves both the orders and the stock untouched.
type mockOrderRepo struct {
	stock  *mockSweetRepo
	mu     sync.Mutex
	orders []models.Order
	seq    int
}

func newMockOrderRepo(stock *mockSweetRepo) *mockOrderRepo {
	return &mockOrderRepo{stock: stock}
}

func (m *mockOrderRepo) CreateWithStockDecrement(_ context.Context, order *models.Order) error {
	m.stock.mu.Lock()
	defer m.stock.mu.Unlock()

	for _, item := range order.Items {
		s, ok := m.stock.sweets[item.SweetID]
		if !ok {
			return &repository.SweetNotFoundError{SweetID: item.SweetID}
		}
		if s.Quantity < item.Quantity {
			return &repository.InsufficientStockError{
				SweetID: item.SweetID, Name: s.Name,
				Available: s.Quantity, Requested: item.Quantity,
			}
		}
	}
	for _, item := range order.Items {
		m.stock.sweets[item.SweetID].Quantity -= item.Quantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	order.CreatedAt = time.Unix(int64(m.seq), 0)
	m.orders = append(m.orders, *order)
	return nil
}

func (m *mockOrderRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var mine []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })

	total := int64(len(mine))
	start := (page - 1) * limit
	if start >= len(mine) {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], total, nil
}

func (m *mockOrderRepo) FindByIDAndUserID(_ context.Context, id, userID uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id && o.UserID == userID {
			cp := o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockOrderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []models.OrderCreatedEvent
	err    error
}

func (m *mockPublisher) PublishOrderCreated(_ context.Context, event models.OrderCreatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

type mockCartRepo struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*models.Cart
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[uuid.UUID]*models.Cart)}
}

func (m *mockCartRepo) Get(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	cp := *c
	cp.Items = append([]models.CartItem(nil), c.Items...)
	return &cp, nil
}

func (m *mockCartRepo) Save(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	m.carts[cart.UserID] = &cp
	return nil
}

func (m *mockCartRepo) Delete(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

type mockUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) FindByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == identifier || u.Username == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) MarkEmailVerified(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u.EmailVerified = true
			return nil
		}
	}
	return repository.ErrNotFound
}

type mockOtpRepo struct {
	mu   sync.Mutex
	otps map[string]*models.OtpVerification
}

func newMockOtpRepo() *mockOtpRepo {
	return &mockOtpRepo{otps: make(map[string]*models.OtpVerification)}
}

func (m *mockOtpRepo) Replace(_ context.Context, email, code string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[email] = &models.OtpVerification{
		ID: uuid.New(), Email: email, Code: code, ExpiresAt: expiresAt, CreatedAt: time.Now(),
	}
	return nil
}

func (m *mockOtpRepo) FindByEmail(_ context.Context, email string) (*models.OtpVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	otp, ok := m.otps[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *otp
	return &cp, nil
}

func (m *mockOtpRepo) DeleteByEmail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.otps, email)
	return nil
}

func (m *mockOtpRepo) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for email, otp := range m.otps {
		if time.Now().After(otp.ExpiresAt) {
			delete(m.otps, email)
			n++
		}
	}
	return n, nil
}

type stubEmailSender struct {
	mu      sync.Mutex
	sent    []string
	enabled bool
}

func (s *stubEmailSender) SendVerificationCode(to, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+":"+code)
	return nil
}

func (s *stubEmailSender) Enabled() bool {
	return s.enabled
}
