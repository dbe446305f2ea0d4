package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrms/internal/app/server"
	"hrms/internal/domain/auth"
	"hrms/internal/platform/config"
)

// The journey tests need a real PostgreSQL instance. They are skipped unless
// TEST_DATABASE_URL points at one; migrations run against it on startup.

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testEnv struct {
	app    *server.App
	srv    *httptest.Server
	pool   *pgxpool.Pool
	client *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Load()
	cfg.DatabaseURL = dbURL
	cfg.MigrationsDir = "../../../migrations"
	cfg.JWTSecret = "journey-test-secret"
	cfg.RunMigrations = true
	cfg.RunSeed = false
	cfg.EmailEnabled = false
	cfg.RateLimitPerMinute = 10000
	cfg.PayslipDir = t.TempDir()
	cfg.PayslipStaleAfter = 10 * time.Minute

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	srv := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		srv.Close()
		app.Close()
	})
	return &testEnv{app: app, srv: srv, pool: app.DB, client: srv.Client()}
}

func (e *testEnv) createUser(t *testing.T, role string) (userID, email, password string) {
	t.Helper()
	email = fmt.Sprintf("journey-%s@example.com", uuid.NewString())
	password = "correct horse battery"
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	err = e.pool.QueryRow(context.Background(), `
    INSERT INTO users (email, password_hash, role, is_active)
    VALUES ($1, $2, $3, true)
    RETURNING id
  `, email, hash, role).Scan(&userID)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return userID, email, password
}

func (e *testEnv) createEmployee(t *testing.T, userID, fullName string, verified bool) string {
	t.Helper()
	var employeeID string
	err := e.pool.QueryRow(context.Background(), `
    INSERT INTO employees (user_id, full_name, designation, is_verified)
    VALUES ($1, $2, 'Engineer', $3)
    RETURNING id
  `, userID, fullName, verified).Scan(&employeeID)
	if err != nil {
		t.Fatalf("insert employee: %v", err)
	}
	return employeeID
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"email": email, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login returned %d", status)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login response missing token: %v", err)
	}
	return data.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func wantErrorCode(t *testing.T, env envelope, code string) {
	t.Helper()
	if env.Error == nil {
		t.Fatalf("expected error code %q, got success", code)
	}
	if env.Error.Code != code {
		t.Fatalf("expected error code %q, got %q (%s)", code, env.Error.Code, env.Error.Message)
	}
}

func TestLeaveLifecycle(t *testing.T) {
	env := newTestEnv(t)

	_, hrEmail, hrPassword := env.createUser(t, auth.RoleHR)
	hrToken := env.login(t, hrEmail, hrPassword)

	empUserID, empEmail, empPassword := env.createUser(t, auth.RoleEmployee)
	employeeID := env.createEmployee(t, empUserID, "Priya Nair", true)
	empToken := env.login(t, empEmail, empPassword)

	otherUserID, otherEmail, otherPassword := env.createUser(t, auth.RoleEmployee)
	env.createEmployee(t, otherUserID, "Dev Mehta", true)
	otherToken := env.login(t, otherEmail, otherPassword)

	// Fund the casual balance so one approval fits and a larger one does not.
	status, _ := env.do(t, http.MethodPost, "/api/v1/leave/balances/"+employeeID+"/adjust", hrToken,
		map[string]int{"casualDelta": 5})
	if status != http.StatusOK {
		t.Fatalf("adjust balance returned %d", status)
	}

	status, created := env.do(t, http.MethodPost, "/api/v1/leave/requests", empToken, map[string]string{
		"type": "CASUAL", "startDate": "2026-03-02", "endDate": "2026-03-04", "reason": "family visit",
	})
	if status != http.StatusCreated {
		t.Fatalf("create leave returned %d", status)
	}
	var request struct {
		ID   string `json:"id"`
		Days int    `json:"days"`
	}
	if err := json.Unmarshal(created.Data, &request); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if request.Days != 3 {
		t.Fatalf("inclusive day count: got %d, want 3", request.Days)
	}

	// Same range again while the first is pending.
	status, dup := env.do(t, http.MethodPost, "/api/v1/leave/requests", empToken, map[string]string{
		"type": "CASUAL", "startDate": "2026-03-02", "endDate": "2026-03-04",
	})
	if status != http.StatusConflict {
		t.Fatalf("duplicate create returned %d", status)
	}
	wantErrorCode(t, dup, "duplicate_request")

	// The pre-insert read can race a concurrent create; the partial unique
	// index is the backstop for identical active ranges.
	_, err := env.pool.Exec(context.Background(), `
    INSERT INTO leave_requests (employee_id, type, start_date, end_date, days, is_paid, reason, status)
    VALUES ($1, 'CASUAL', '2026-03-02', '2026-03-04', 3, true, '', 'PENDING')
  `, employeeID)
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		t.Fatalf("expected unique violation for duplicate active range, got %v", err)
	}

	status, _ = env.do(t, http.MethodPost, "/api/v1/leave/requests/"+request.ID+"/approve", hrToken, nil)
	if status != http.StatusOK {
		t.Fatalf("approve returned %d", status)
	}

	status, balanceEnv := env.do(t, http.MethodGet, "/api/v1/leave/balance?employeeId="+employeeID, hrToken, nil)
	if status != http.StatusOK {
		t.Fatalf("get balance returned %d", status)
	}
	var balance struct {
		Casual int `json:"casual"`
	}
	if err := json.Unmarshal(balanceEnv.Data, &balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if balance.Casual != 2 {
		t.Fatalf("balance after approval: got %d, want 2", balance.Casual)
	}

	// A second approval of the same request is a state conflict.
	status, again := env.do(t, http.MethodPost, "/api/v1/leave/requests/"+request.ID+"/approve", hrToken, nil)
	if status != http.StatusConflict {
		t.Fatalf("re-approve returned %d", status)
	}
	wantErrorCode(t, again, "invalid_state")

	// Approving more days than remain must fail and leave everything alone.
	status, bigEnv := env.do(t, http.MethodPost, "/api/v1/leave/requests", empToken, map[string]string{
		"type": "CASUAL", "startDate": "2026-04-01", "endDate": "2026-04-10",
	})
	if status != http.StatusCreated {
		t.Fatalf("create large leave returned %d", status)
	}
	var big struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(bigEnv.Data, &big); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	status, insufficient := env.do(t, http.MethodPost, "/api/v1/leave/requests/"+big.ID+"/approve", hrToken, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("approve beyond balance returned %d", status)
	}
	wantErrorCode(t, insufficient, "insufficient_balance")

	status, balanceEnv = env.do(t, http.MethodGet, "/api/v1/leave/balance?employeeId="+employeeID, hrToken, nil)
	if status != http.StatusOK {
		t.Fatalf("get balance returned %d", status)
	}
	if err := json.Unmarshal(balanceEnv.Data, &balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if balance.Casual != 2 {
		t.Fatalf("failed approval must not touch the balance: got %d, want 2", balance.Casual)
	}

	// Only the requester may cancel.
	status, forbidden := env.do(t, http.MethodPost, "/api/v1/leave/requests/"+big.ID+"/cancel", otherToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("foreign cancel returned %d", status)
	}
	wantErrorCode(t, forbidden, "forbidden")

	status, _ = env.do(t, http.MethodPost, "/api/v1/leave/requests/"+big.ID+"/cancel", empToken, nil)
	if status != http.StatusOK {
		t.Fatalf("owner cancel returned %d", status)
	}

	// A cancelled request frees its date range for resubmission.
	status, _ = env.do(t, http.MethodPost, "/api/v1/leave/requests", empToken, map[string]string{
		"type": "CASUAL", "startDate": "2026-04-01", "endDate": "2026-04-10",
	})
	if status != http.StatusCreated {
		t.Fatalf("resubmit after cancel returned %d", status)
	}
}

func TestAttendanceCheckInOut(t *testing.T) {
	env := newTestEnv(t)

	empUserID, empEmail, empPassword := env.createUser(t, auth.RoleEmployee)
	env.createEmployee(t, empUserID, "Arun Shah", true)
	empToken := env.login(t, empEmail, empPassword)

	status, _ := env.do(t, http.MethodPost, "/api/v1/attendance/check-in", empToken, nil)
	if status != http.StatusOK {
		t.Fatalf("check-in returned %d", status)
	}

	status, dup := env.do(t, http.MethodPost, "/api/v1/attendance/check-in", empToken, nil)
	if status != http.StatusConflict {
		t.Fatalf("second check-in returned %d", status)
	}
	wantErrorCode(t, dup, "already_checked_in")

	status, outEnv := env.do(t, http.MethodPost, "/api/v1/attendance/check-out", empToken, nil)
	if status != http.StatusOK {
		t.Fatalf("check-out returned %d", status)
	}
	var rec struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(outEnv.Data, &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.Status != "present" && rec.Status != "late" {
		t.Fatalf("closed record has status %q", rec.Status)
	}

	status, again := env.do(t, http.MethodPost, "/api/v1/attendance/check-out", empToken, nil)
	if status != http.StatusConflict {
		t.Fatalf("second check-out returned %d", status)
	}
	wantErrorCode(t, again, "already_checked_out")

	// Checking out without ever checking in.
	freshUserID, freshEmail, freshPassword := env.createUser(t, auth.RoleEmployee)
	env.createEmployee(t, freshUserID, "Nila Rao", true)
	freshToken := env.login(t, freshEmail, freshPassword)
	status, missing := env.do(t, http.MethodPost, "/api/v1/attendance/check-out", freshToken, nil)
	if status != http.StatusConflict {
		t.Fatalf("check-out without check-in returned %d", status)
	}
	wantErrorCode(t, missing, "invalid_state")
}

func TestPayslipGenerationGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, hrEmail, hrPassword := env.createUser(t, auth.RoleHR)
	hrToken := env.login(t, hrEmail, hrPassword)

	empUserID, _, _ := env.createUser(t, auth.RoleEmployee)
	employeeID := env.createEmployee(t, empUserID, "Sana Iqbal", true)

	status, _ := env.do(t, http.MethodPut, "/api/v1/employees/"+employeeID+"/payment-profile", hrToken,
		map[string]float64{"baseSalary": 60000, "overtimeRate": 250})
	if status != http.StatusOK {
		t.Fatalf("payment profile returned %d", status)
	}

	status, periodEnv := env.do(t, http.MethodPost, "/api/v1/payroll/periods", hrToken, map[string]string{
		"startDate": "2026-08-01", "endDate": "2026-08-31",
	})
	if status != http.StatusCreated {
		t.Fatalf("create period returned %d", status)
	}
	var period struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(periodEnv.Data, &period); err != nil {
		t.Fatalf("decode period: %v", err)
	}

	status, runEnv := env.do(t, http.MethodPost, "/api/v1/payroll/periods/"+period.ID+"/run", hrToken, nil)
	if status != http.StatusOK {
		t.Fatalf("run payroll returned %d", status)
	}
	var run struct {
		Processed int `json:"processed"`
	}
	if err := json.Unmarshal(runEnv.Data, &run); err != nil {
		t.Fatalf("decode run result: %v", err)
	}
	if run.Processed < 1 {
		t.Fatalf("payroll run processed %d employees", run.Processed)
	}

	var payrollID string
	err := env.pool.QueryRow(ctx,
		"SELECT id FROM payrolls WHERE employee_id = $1 AND period_id = $2",
		employeeID, period.ID).Scan(&payrollID)
	if err != nil {
		t.Fatalf("lookup payroll row: %v", err)
	}

	// Nothing to download yet.
	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/v1/payroll/"+payrollID+"/payslip", nil)
	req.Header.Set("Authorization", "Bearer "+hrToken)
	resp, err := env.client.Do(req)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("download before generation returned %d", resp.StatusCode)
	}

	// A live generation flag turns new attempts away.
	if _, err := env.pool.Exec(ctx,
		"UPDATE payrolls SET is_generating = true, generation_started_at = now() WHERE id = $1",
		payrollID); err != nil {
		t.Fatalf("set generation flag: %v", err)
	}
	status, busy := env.do(t, http.MethodPost, "/api/v1/payroll/"+payrollID+"/payslip", hrToken, nil)
	if status != http.StatusConflict {
		t.Fatalf("generate while busy returned %d", status)
	}
	wantErrorCode(t, busy, "payslip_generating")

	// A stale flag is treated as abandoned and taken over.
	if _, err := env.pool.Exec(ctx,
		"UPDATE payrolls SET generation_started_at = now() - interval '1 hour' WHERE id = $1",
		payrollID); err != nil {
		t.Fatalf("age generation flag: %v", err)
	}
	status, _ = env.do(t, http.MethodPost, "/api/v1/payroll/"+payrollID+"/payslip", hrToken, nil)
	if status != http.StatusAccepted {
		t.Fatalf("generate with stale flag returned %d", status)
	}

	// The background job clears the flag and stores the file.
	deadline := time.Now().Add(5 * time.Second)
	for {
		var generating bool
		var file string
		if err := env.pool.QueryRow(ctx,
			"SELECT is_generating, payslip_file FROM payrolls WHERE id = $1", payrollID,
		).Scan(&generating, &file); err != nil {
			t.Fatalf("poll payroll row: %v", err)
		}
		if !generating && file != "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("payslip not rendered in time (generating=%v file=%q)", generating, file)
		}
		time.Sleep(100 * time.Millisecond)
	}

	resp, err = env.client.Do(req.Clone(ctx))
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download after generation returned %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("download content type %q", got)
	}
}
