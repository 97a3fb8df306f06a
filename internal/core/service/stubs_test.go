package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Transactor
// ---------------------------------------------------------------------------

// stubTx runs fn directly and counts how many transactions were opened.
type stubTx struct {
	calls int
}

func (t *stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID      map[uint]*domain.User
	nextID    uint
	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[uint]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	u.ID = r.nextID
	clone := *u
	r.byID[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *u
	r.byID[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.byID)), nil
}

// plainHasher "hashes" by prefixing, which is enough to prove the stored
// value is not the raw password.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) Compare(h, p string) bool       { return h == "hashed:"+p }

type stubTokens struct {
	issued []uint
	err    error
}

func (s *stubTokens) Issue(u *domain.User) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.issued = append(s.issued, u.ID)
	return "token-for-" + u.Email, nil
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

type stubCustomerRepo struct {
	byID   map[uint]*domain.Customer
	nextID uint
	// tasks is consulted by Delete to mirror the cascading delete.
	tasks *stubTaskRepo
}

func newStubCustomerRepo(tasks *stubTaskRepo) *stubCustomerRepo {
	return &stubCustomerRepo{byID: make(map[uint]*domain.Customer), tasks: tasks}
}

func (r *stubCustomerRepo) Create(_ context.Context, c *domain.Customer) error {
	r.nextID++
	c.ID = r.nextID
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *domain.Customer) error {
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubCustomerRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	if r.tasks != nil {
		for tid, t := range r.tasks.byID {
			if t.CustomerID == id {
				delete(r.tasks.byID, tid)
			}
		}
	}
	delete(r.byID, id)
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uint) (*domain.Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCustomerRepo) FindByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range r.byID {
		if c.Email == email {
			clone := *c
			return &clone, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (r *stubCustomerRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *stubCustomerRepo) sorted() []*domain.Customer {
	out := make([]*domain.Customer, 0, len(r.byID))
	for _, c := range r.byID {
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubCustomerRepo) List(_ context.Context, p ports.PageRequest) ([]*domain.Customer, int64, error) {
	all := r.sorted()
	return window(all, p), int64(len(all)), nil
}

func (r *stubCustomerRepo) FindActive(_ context.Context) ([]*domain.Customer, error) {
	var out []*domain.Customer
	for _, c := range r.sorted() {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubCustomerRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.byID)), nil
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

type stubTaskRepo struct {
	byID   map[uint]*domain.Task
	nextID uint
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{byID: make(map[uint]*domain.Task)}
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) error {
	r.nextID++
	t.ID = r.nextID
	clone := *t
	r.byID[t.ID] = &clone
	return nil
}

func (r *stubTaskRepo) Update(_ context.Context, t *domain.Task) error {
	old, ok := r.byID[t.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	clone := *t
	clone.CreatedAt = old.CreatedAt
	r.byID[t.ID] = &clone
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id uint) (*domain.Task, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTaskRepo) filter(keep func(*domain.Task) bool) []*domain.Task {
	out := []*domain.Task{}
	for _, t := range r.byID {
		if keep(t) {
			clone := *t
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubTaskRepo) List(_ context.Context, p ports.PageRequest) ([]*domain.Task, int64, error) {
	all := r.filter(func(*domain.Task) bool { return true })
	return window(all, p), int64(len(all)), nil
}

func (r *stubTaskRepo) FindByCustomerID(_ context.Context, id uint) ([]*domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.CustomerID == id }), nil
}

func (r *stubTaskRepo) FindByAssignedToID(_ context.Context, id uint) ([]*domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.AssignedToID != nil && *t.AssignedToID == id }), nil
}

func (r *stubTaskRepo) FindByStatus(_ context.Context, s domain.TaskStatus) ([]*domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.Status == s }), nil
}

func (r *stubTaskRepo) FindOverdue(_ context.Context, now time.Time) ([]*domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.IsOverdue(now) }), nil
}

func dueWithin(t *domain.Task, start, end time.Time) bool {
	return t.DueDate != nil && !t.DueDate.Before(start) && !t.DueDate.After(end)
}

func (r *stubTaskRepo) FindByDueDateBetween(_ context.Context, start, end time.Time) ([]*domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return dueWithin(t, start, end) }), nil
}

func (r *stubTaskRepo) FindOpenByDueDateBetween(_ context.Context, start, end time.Time) ([]*domain.Task, error) {
	out := r.filter(func(t *domain.Task) bool { return t.Status != domain.TaskCompleted && dueWithin(t, start, end) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	return out, nil
}

func (r *stubTaskRepo) CountByStatus(_ context.Context, s domain.TaskStatus) (int64, error) {
	return int64(len(r.filter(func(t *domain.Task) bool { return t.Status == s }))), nil
}

func (r *stubTaskRepo) FindRecent(_ context.Context, limit int) ([]*domain.Task, error) {
	all := r.filter(func(*domain.Task) bool { return true })
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *stubTaskRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.byID)), nil
}

func window[T any](all []T, p ports.PageRequest) []T {
	from := p.Offset()
	if from >= len(all) {
		return []T{}
	}
	to := from + p.Size
	if to > len(all) {
		to = len(all)
	}
	return all[from:to]
}

// ---------------------------------------------------------------------------
// Idempotency, activity recorder and broker
// ---------------------------------------------------------------------------

type stubIdem struct {
	keys      map[string]uint
	lookupErr error
}

func newStubIdem() *stubIdem {
	return &stubIdem{keys: make(map[string]uint)}
}

func (s *stubIdem) Lookup(_ context.Context, scope, key string) (uint, bool, error) {
	if s.lookupErr != nil {
		return 0, false, s.lookupErr
	}
	id, ok := s.keys[scope+":"+key]
	return id, ok, nil
}

func (s *stubIdem) Remember(_ context.Context, scope, key string, id uint) error {
	s.keys[scope+":"+key] = id
	return nil
}

type stubRecorder struct {
	mu     sync.Mutex
	events []domain.TaskEvent
}

func (r *stubRecorder) Record(e domain.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *stubRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, string(e.Type))
	}
	return out
}

type stubEventRepo struct {
	inserted  []domain.TaskEvent
	insertErr error
	lastLimit int
}

func (r *stubEventRepo) Insert(_ context.Context, e *domain.TaskEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, *e)
	return nil
}

func (r *stubEventRepo) ListByTask(_ context.Context, taskID uint, limit int) ([]domain.TaskEvent, error) {
	r.lastLimit = limit
	var out []domain.TaskEvent
	for i := len(r.inserted) - 1; i >= 0 && len(out) < limit; i-- {
		if r.inserted[i].TaskID == taskID {
			out = append(out, r.inserted[i])
		}
	}
	return out, nil
}

type stubPublisher struct {
	keys []string
	err  error
}

func (p *stubPublisher) PublishJSON(_ context.Context, key string, _ any) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	return nil
}

var errBoom = errors.New("boom")

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	tx        *stubTx
	users     *stubUserRepo
	customers *stubCustomerRepo
	tasks     *stubTaskRepo
	idem      *stubIdem
	recorder  *stubRecorder
	tokens    *stubTokens

	userSvc     *UserService
	customerSvc *CustomerService
	taskSvc     *TaskService
}

func newFixture() *fixture {
	f := &fixture{
		tx:       &stubTx{},
		users:    newStubUserRepo(),
		tasks:    newStubTaskRepo(),
		idem:     newStubIdem(),
		recorder: &stubRecorder{},
		tokens:   &stubTokens{},
	}
	f.customers = newStubCustomerRepo(f.tasks)

	log := zerolog.Nop()
	clock := func() time.Time { return fixedNow }

	f.userSvc = NewUserService(f.users, f.tx, plainHasher{}, f.tokens, log)
	f.userSvc.now = clock
	f.customerSvc = NewCustomerService(f.customers, f.tasks, f.tx, f.idem, f.recorder, log)
	f.customerSvc.now = clock
	f.taskSvc = NewTaskService(f.tasks, f.customers, f.users, f.tx, f.idem, f.recorder, log)
	f.taskSvc.now = clock
	return f
}

func (f *fixture) seedCustomer(name string) *domain.Customer {
	c := &domain.Customer{Name: name, Email: strings.ToLower(name) + "@example.com", IsActive: true, CreatedAt: fixedNow}
	_ = f.customers.Create(context.Background(), c)
	return c
}

func (f *fixture) seedUser(email string, role domain.Role, active bool) *domain.User {
	u := &domain.User{FullName: email, Email: email, Password: "hashed:secret", Role: role, IsActive: active}
	_ = f.users.Create(context.Background(), u)
	return u
}

func (f *fixture) seedTask(customerID uint, status domain.TaskStatus, due *time.Time, created time.Time) *domain.Task {
	t := &domain.Task{Title: "t", Status: status, CustomerID: customerID, DueDate: due, CreatedAt: created}
	_ = f.tasks.Create(context.Background(), t)
	return t
}

func ptr[T any](v T) *T { return &v }
