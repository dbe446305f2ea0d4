package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrms/internal/domain/auth"
	"hrms/internal/platform/config"
)

var seedDepartments = []string{
	"Human Resources",
	"Engineering",
	"Finance",
}

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureDepartments(ctx, pool); err != nil {
		return err
	}
	return ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureDepartments(ctx context.Context, pool *pgxpool.Pool) error {
	for _, name := range seedDepartments {
		_, err := pool.Exec(ctx, "INSERT INTO departments (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	err = pool.QueryRow(ctx,
		"INSERT INTO users (email, password_hash, role, is_active) VALUES ($1, $2, $3, true) RETURNING id",
		email, hash, auth.RoleHR).Scan(&id)
	if err != nil {
		return err
	}

	var employeeID string
	err = pool.QueryRow(ctx,
		"INSERT INTO employees (user_id, full_name, designation, is_verified) VALUES ($1, $2, $3, true) RETURNING id",
		id, "HR Administrator", "HR Manager").Scan(&employeeID)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		"INSERT INTO leave_balances (employee_id, casual, sick) VALUES ($1, $2, $3) ON CONFLICT (employee_id) DO NOTHING",
		employeeID, 12, 8)
	return err
}
