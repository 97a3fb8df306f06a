package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

func TestCustomerService_CreateCustomer(t *testing.T) {
	f := newFixture()

	c, err := f.customerSvc.CreateCustomer(context.Background(), ports.CreateCustomerInput{
		Name: " Acme Corp ", Email: "Sales@Acme.com", Phone: "555-0100",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID == 0 || c.Name != "Acme Corp" || c.Email != "sales@acme.com" {
		t.Errorf("unexpected customer: %+v", c)
	}
	if !c.IsActive {
		t.Error("customers default to active")
	}
	if !c.CreatedAt.Equal(fixedNow) {
		t.Errorf("expected created_at %v, got %v", fixedNow, c.CreatedAt)
	}
}

func TestCustomerService_CreateCustomer_Errors(t *testing.T) {
	f := newFixture()
	f.seedCustomer("Acme")

	if _, err := f.customerSvc.CreateCustomer(context.Background(), ports.CreateCustomerInput{Name: "", Email: "x@y.z"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := f.customerSvc.CreateCustomer(context.Background(), ports.CreateCustomerInput{Name: "Dup", Email: "ACME@example.com"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestCustomerService_CreateCustomer_IdempotencyReplay(t *testing.T) {
	f := newFixture()
	in := ports.CreateCustomerInput{Name: "Once", Email: "once@example.com", IdempotencyKey: "key-1"}

	first, err := f.customerSvc.CreateCustomer(context.Background(), in)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := f.customerSvc.CreateCustomer(context.Background(), in)
	if err != nil {
		t.Fatalf("replay should not conflict: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same customer, got %d and %d", first.ID, second.ID)
	}
}

func TestCustomerService_UpdateCustomer(t *testing.T) {
	f := newFixture()
	c := f.seedCustomer("Acme")
	f.seedCustomer("Beta")

	updated, err := f.customerSvc.UpdateCustomer(context.Background(), c.ID, ports.UpdateCustomerInput{
		Phone:    ptr("555-0199"),
		IsActive: ptr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Phone != "555-0199" || updated.IsActive {
		t.Errorf("fields not applied: %+v", updated)
	}
	if updated.Name != "Acme" || !updated.CreatedAt.Equal(c.CreatedAt) {
		t.Errorf("untouched fields changed: %+v", updated)
	}

	if _, err := f.customerSvc.UpdateCustomer(context.Background(), c.ID, ports.UpdateCustomerInput{Email: ptr("beta@example.com")}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict on email reuse, got %v", err)
	}
	if _, err := f.customerSvc.UpdateCustomer(context.Background(), 999, ports.UpdateCustomerInput{}); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCustomerService_DeleteCustomer_CascadesTasks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.seedCustomer("Acme")
	b := f.seedCustomer("Beta")
	f.seedTask(a.ID, domain.TaskPending, nil, fixedNow)
	f.seedTask(a.ID, domain.TaskCompleted, nil, fixedNow)
	kept := f.seedTask(b.ID, domain.TaskPending, nil, fixedNow)

	if err := f.customerSvc.DeleteCustomer(ctx, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := f.customerSvc.FindByID(ctx, a.ID); ok {
		t.Error("customer still present")
	}
	if left, _ := f.tasks.FindByCustomerID(ctx, a.ID); len(left) != 0 {
		t.Errorf("expected customer tasks removed, %d left", len(left))
	}
	if _, err := f.tasks.FindByID(ctx, kept.ID); err != nil {
		t.Errorf("other customer's task was removed: %v", err)
	}
	if f.tx.calls != 1 {
		t.Errorf("expected a single transaction, got %d", f.tx.calls)
	}
	if got := f.recorder.types(); len(got) != 2 || got[0] != "deleted" {
		t.Errorf("expected two deleted events, got %v", got)
	}

	if err := f.customerSvc.DeleteCustomer(ctx, a.ID); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestCustomerService_Queries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedCustomer("Acme")
	b := f.seedCustomer("Beta")
	f.seedCustomer("Gamma")
	_, _ = f.customerSvc.UpdateCustomer(ctx, b.ID, ports.UpdateCustomerInput{IsActive: ptr(false)})

	active, _ := f.customerSvc.FindActive(ctx)
	if len(active) != 2 {
		t.Errorf("expected 2 active customers, got %d", len(active))
	}

	n, _ := f.customerSvc.CountCustomers(ctx)
	if n != 3 {
		t.Errorf("expected 3 customers, got %d", n)
	}

	page, _ := f.customerSvc.FindAll(ctx, ports.PageRequest{Page: 0, Size: 2})
	if len(page.Items) != 2 || page.TotalPages != 2 {
		t.Errorf("unexpected page: %+v", page)
	}

	c, ok, err := f.customerSvc.FindByEmail(ctx, "BETA@example.com")
	if err != nil || !ok || c.ID != b.ID {
		t.Errorf("find by email: %v %v %v", c, ok, err)
	}
	if _, ok, _ := f.customerSvc.FindByEmail(ctx, "none@example.com"); ok {
		t.Error("expected absent customer")
	}
}

func TestCustomerService_UpdateCustomer_StampsUpdatedAt(t *testing.T) {
	f := newFixture()
	c := f.seedCustomer("Acme")
	later := fixedNow.Add(time.Hour)
	f.customerSvc.now = func() time.Time { return later }

	updated, err := f.customerSvc.UpdateCustomer(context.Background(), c.ID, ports.UpdateCustomerInput{Notes: ptr("vip")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Errorf("expected updated_at %v, got %v", later, updated.UpdatedAt)
	}
}
