package gormdb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

type seedUser struct {
	fullName, email, password string
	role                      domain.Role
}

var seedUsers = []seedUser{
	{"Admin User", "admin@example.com", "admin123", domain.RoleAdmin},
	{"Manager User", "manager@example.com", "manager123", domain.RoleManager},
	{"Normal User", "user@example.com", "user123", domain.RoleUser},
}

// Seed fills an empty database with demo users, customers and tasks. It does
// nothing if any of the three tables already holds a row.
func Seed(ctx context.Context, db *gorm.DB, hasher ports.PasswordHasher, log zerolog.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&domain.User{}, &domain.Customer{}, &domain.Task{}} {
			var n int64
			if err := tx.Model(model).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				log.Debug().Msg("database not empty, skipping seed")
				return nil
			}
		}

		now := time.Now().UTC()
		day := 24 * time.Hour

		users := make([]*domain.User, 0, len(seedUsers))
		for _, su := range seedUsers {
			hash, err := hasher.Hash(su.password)
			if err != nil {
				return fmt.Errorf("seed hash: %w", err)
			}
			users = append(users, &domain.User{
				FullName: su.fullName, Email: su.email, Password: hash,
				Role: su.role, IsActive: true, CreatedAt: now, UpdatedAt: now,
			})
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		admin, manager, user := users[0], users[1], users[2]

		customers := []*domain.Customer{
			{Name: "Ahmet Yılmaz", Email: "ahmet@example.com", Phone: "5550101", Address: "İstanbul", Notes: "VIP customer", IsActive: true},
			{Name: "Ayşe Demir", Email: "ayse@example.com", Phone: "5550102", Address: "Ankara", IsActive: true},
			{Name: "Mehmet Kaya", Email: "mehmet@example.com", Phone: "5550103", Address: "İzmir", IsActive: false},
		}
		for _, c := range customers {
			c.CreatedAt, c.UpdatedAt = now, now
		}
		if err := tx.Create(&customers).Error; err != nil {
			return fmt.Errorf("seed customers: %w", err)
		}

		tasks := []*domain.Task{
			{
				Title: "Customer meeting", Description: "Discuss the new offer",
				Status: domain.TaskPending, DueDate: at(now.Add(3 * day)), Priority: intp(2),
				EstimatedHours: f64p(3), CustomerID: customers[0].ID, AssignedToID: &manager.ID,
			},
			{
				Title: "Prepare contract", Description: "Draft the contract for the next period",
				Status: domain.TaskInProgress, DueDate: at(now.Add(7 * day)), Priority: intp(1),
				EstimatedHours: f64p(5), CustomerID: customers[1].ID, AssignedToID: &admin.ID,
			},
			{
				Title: "Technical support", Description: "Help with the system integration",
				Status: domain.TaskCompleted, DueDate: at(now.Add(-2 * day)), CompletedAt: at(now.Add(-day)),
				Priority: intp(3), EstimatedHours: f64p(2), ActualHours: f64p(2.5),
				CustomerID: customers[2].ID, AssignedToID: &user.ID,
			},
		}
		for _, t := range tasks {
			t.CreatedAt, t.UpdatedAt = now, now
		}
		if err := tx.Omit("Customer", "AssignedTo").Create(&tasks).Error; err != nil {
			return fmt.Errorf("seed tasks: %w", err)
		}

		log.Info().Int("users", len(users)).Int("customers", len(customers)).Int("tasks", len(tasks)).Msg("seeded demo data")
		return nil
	})
}

func at(t time.Time) *time.Time { return &t }
func intp(v int) *int           { return &v }
func f64p(v float64) *float64   { return &v }
