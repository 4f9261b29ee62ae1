package lifecycle

import (
	"sync"

	"github.com/echallan/backend/models"
)

// MemoryStore keeps entities in-process. Used by tests and local runs
// without a database.
type MemoryStore struct {
	mu       sync.Mutex
	cameras  map[uint]models.Camera
	users    map[uint]models.User
	tokens   []models.DeviceToken
	challans map[uint]models.Challan
	payments map[uint]models.Payment
	appeals  map[uint]models.Appeal

	nextID uint
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cameras:  make(map[uint]models.Camera),
		users:    make(map[uint]models.User),
		challans: make(map[uint]models.Challan),
		payments: make(map[uint]models.Payment),
		appeals:  make(map[uint]models.Appeal),
		nextID:   1,
	}
}

func (m *MemoryStore) assignID() uint {
	id := m.nextID
	m.nextID++
	return id
}

// AddCamera seeds a camera, assigning an id when missing.
func (m *MemoryStore) AddCamera(cam models.Camera) models.Camera {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cam.ID == 0 {
		cam.ID = m.assignID()
	}
	m.cameras[cam.ID] = cam
	return cam
}

// AddUser seeds a user, assigning an id when missing.
func (m *MemoryStore) AddUser(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.assignID()
	}
	m.users[u.ID] = u
	return u
}

// AddDeviceToken seeds a push registration.
func (m *MemoryStore) AddDeviceToken(t models.DeviceToken) models.DeviceToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.assignID()
	}
	m.tokens = append(m.tokens, t)
	return t
}

func (m *MemoryStore) GetCamera(id uint) (*models.Camera, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cam, ok := m.cameras[id]; ok {
		c := cam
		return &c, nil
	}
	return nil, nil
}

func (m *MemoryStore) UpdateCamera(cam *models.Camera) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cameras[cam.ID] = *cam
	return nil
}

func (m *MemoryStore) GetUser(id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		user := u
		return &user, nil
	}
	return nil, nil
}

func (m *MemoryStore) ListDeviceTokens() ([]models.DeviceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.DeviceToken, len(m.tokens))
	copy(out, m.tokens)
	return out, nil
}

func (m *MemoryStore) CreateChallan(c *models.Challan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.assignID()
	}
	m.challans[c.ID] = *c
	return nil
}

func (m *MemoryStore) GetChallan(id uint) (*models.Challan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.challans[id]; ok {
		challan := c
		return &challan, nil
	}
	return nil, nil
}

func (m *MemoryStore) UpdateChallan(c *models.Challan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challans[c.ID] = *c
	return nil
}

func (m *MemoryStore) CreatePayment(p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.assignID()
	}
	m.payments[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetPayment(id uint) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		payment := p
		return &payment, nil
	}
	return nil, nil
}

func (m *MemoryStore) UpdatePayment(p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = *p
	return nil
}

func (m *MemoryStore) CompletedPaymentForChallan(challanID uint) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := uint(1); id < m.nextID; id++ {
		if p, ok := m.payments[id]; ok && p.ChallanID == challanID && p.Status == models.PaymentCompleted {
			payment := p
			return &payment, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateAppeal(a *models.Appeal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.appeals {
		if existing.ChallanID == a.ChallanID {
			return ErrStoreConflict
		}
	}
	if a.ID == 0 {
		a.ID = m.assignID()
	}
	m.appeals[a.ID] = *a
	return nil
}

func (m *MemoryStore) GetAppeal(id uint) (*models.Appeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.appeals[id]; ok {
		appeal := a
		return &appeal, nil
	}
	return nil, nil
}

func (m *MemoryStore) UpdateAppeal(a *models.Appeal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appeals[a.ID] = *a
	return nil
}

func (m *MemoryStore) AppealForChallan(challanID uint) (*models.Appeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := uint(1); id < m.nextID; id++ {
		if a, ok := m.appeals[id]; ok && a.ChallanID == challanID {
			appeal := a
			return &appeal, nil
		}
	}
	return nil, nil
}

// Atomically runs fn against the store. The in-memory store executes the
// callback directly; per-entity locking keeps individual operations
// consistent, which is enough for tests.
func (m *MemoryStore) Atomically(fn func(tx Store) error) error {
	return fn(m)
}

// DeleteChallan removes a challan row (test helper for the
// concurrently-deleted-challan path).
func (m *MemoryStore) DeleteChallan(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.challans, id)
}
