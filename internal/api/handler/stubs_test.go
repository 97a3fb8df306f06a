package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

// newCtx builds an echo context with the validator installed and, when body
// is non-empty, a JSON payload.
func newCtx(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withParams(c echo.Context, kv ...string) echo.Context {
	var names, values []string
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

type stubUserService struct {
	registerFn   func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn      func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error)
	currentFn    func(ctx context.Context, email string) (*domain.User, error)
	findFn       func(ctx context.Context, email string) (*domain.User, bool, error)
	updateFn     func(ctx context.Context, email string, in ports.UpdateUserInput) (*domain.User, error)
	setActiveErr error
	activated    []string
	deactivated  []string
}

func (s *stubUserService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubUserService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubUserService) GetCurrentUser(ctx context.Context, email string) (*domain.User, error) {
	return s.currentFn(ctx, email)
}

func (s *stubUserService) FindByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return s.findFn(ctx, email)
}

func (s *stubUserService) UpdateUser(ctx context.Context, email string, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, email, in)
}

func (s *stubUserService) ActivateUser(_ context.Context, email string) error {
	s.activated = append(s.activated, email)
	return s.setActiveErr
}

func (s *stubUserService) DeactivateUser(_ context.Context, email string) error {
	s.deactivated = append(s.deactivated, email)
	return s.setActiveErr
}

// stubTaskService embeds the interface so tests only implement what they hit;
// anything else panics.
type stubTaskService struct {
	ports.TaskService

	createIn   ports.CreateTaskInput
	updateIn   ports.UpdateTaskInput
	page       ports.PageRequest
	start, end time.Time
	limit      int
	days       int
	deleted    []uint
	tasks      map[uint]*domain.Task
	counts     map[domain.TaskStatus]int64
	err        error
}

func newStubTaskService(tasks ...*domain.Task) *stubTaskService {
	s := &stubTaskService{tasks: map[uint]*domain.Task{}, counts: map[domain.TaskStatus]int64{}}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

func (s *stubTaskService) CreateTask(_ context.Context, in ports.CreateTaskInput) (*domain.Task, error) {
	s.createIn = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Task{ID: 1, Title: in.Title, Status: domain.TaskPending, CustomerID: in.CustomerID}, nil
}

func (s *stubTaskService) UpdateTask(_ context.Context, id uint, in ports.UpdateTaskInput) (*domain.Task, error) {
	s.updateIn = in
	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t, s.err
}

func (s *stubTaskService) DeleteTask(_ context.Context, id uint) error {
	if _, ok := s.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubTaskService) FindByID(_ context.Context, id uint) (*domain.Task, bool, error) {
	t, ok := s.tasks[id]
	return t, ok, s.err
}

func (s *stubTaskService) FindAll(_ context.Context, page ports.PageRequest) (ports.Page[*domain.Task], error) {
	s.page = page
	items := make([]*domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		items = append(items, t)
	}
	return ports.NewPage(items, int64(len(items)), page), s.err
}

func (s *stubTaskService) FindTasksByDueDateBetween(_ context.Context, start, end time.Time) ([]*domain.Task, error) {
	s.start, s.end = start, end
	return nil, s.err
}

func (s *stubTaskService) FindOverdueTasks(context.Context) ([]*domain.Task, error) {
	return []*domain.Task{{ID: 9}}, s.err
}

func (s *stubTaskService) FindRecentTasks(_ context.Context, limit int) ([]*domain.Task, error) {
	s.limit = limit
	return nil, s.err
}

func (s *stubTaskService) FindUpcomingDeadlines(_ context.Context, days int) ([]*domain.Task, error) {
	s.days = days
	return []*domain.Task{{ID: 3}, {ID: 4}}, s.err
}

func (s *stubTaskService) CountTasksByStatus(_ context.Context, status string) (int64, error) {
	st, ok := domain.ParseTaskStatus(status)
	if !ok {
		return 0, domain.Invalid("unknown status %q", status)
	}
	return s.counts[st], s.err
}

type stubCustomerService struct {
	ports.CustomerService

	createIn  ports.CreateCustomerInput
	updateIn  ports.UpdateCustomerInput
	customers map[uint]*domain.Customer
	deleted   []uint
	err       error
}

func newStubCustomerService(customers ...*domain.Customer) *stubCustomerService {
	s := &stubCustomerService{customers: map[uint]*domain.Customer{}}
	for _, c := range customers {
		s.customers[c.ID] = c
	}
	return s
}

func (s *stubCustomerService) CreateCustomer(_ context.Context, in ports.CreateCustomerInput) (*domain.Customer, error) {
	s.createIn = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Customer{ID: 5, Name: in.Name, Email: in.Email, IsActive: true}, nil
}

func (s *stubCustomerService) UpdateCustomer(_ context.Context, id uint, in ports.UpdateCustomerInput) (*domain.Customer, error) {
	s.updateIn = in
	c, ok := s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return c, s.err
}

func (s *stubCustomerService) DeleteCustomer(_ context.Context, id uint) error {
	if _, ok := s.customers[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubCustomerService) FindByID(_ context.Context, id uint) (*domain.Customer, bool, error) {
	c, ok := s.customers[id]
	return c, ok, s.err
}

func (s *stubCustomerService) FindActive(context.Context) ([]*domain.Customer, error) {
	var out []*domain.Customer
	for _, c := range s.customers {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, s.err
}

func (s *stubCustomerService) CountCustomers(context.Context) (int64, error) {
	return int64(len(s.customers)), s.err
}

type stubEventService struct {
	events    []domain.TaskEvent
	lastLimit int
}

func (s *stubEventService) Process(context.Context, domain.TaskEvent) error { return nil }

func (s *stubEventService) History(_ context.Context, taskID uint, limit int) ([]domain.TaskEvent, error) {
	s.lastLimit = limit
	var out []domain.TaskEvent
	for _, e := range s.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}
