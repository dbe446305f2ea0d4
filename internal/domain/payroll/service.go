package payroll

import (
	"context"
	"fmt"
	"time"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/core"
	"hrms/internal/domain/notifications"
	"hrms/internal/platform/jobs"
)

type Service struct {
	Store      *Store
	Core       *core.Store
	Attendance *attendance.Service
	Jobs       *jobs.Service
	Notifier   *notifications.Service
	PayslipDir string
	StaleAfter time.Duration
}

func NewService(store *Store, coreStore *core.Store, att *attendance.Service, jobSvc *jobs.Service, notifier *notifications.Service, payslipDir string, staleAfter time.Duration) *Service {
	return &Service{
		Store:      store,
		Core:       coreStore,
		Attendance: att,
		Jobs:       jobSvc,
		Notifier:   notifier,
		PayslipDir: payslipDir,
		StaleAfter: staleAfter,
	}
}

func (s *Service) EmployeeIDByUserID(ctx context.Context, userID string) (string, error) {
	return s.Core.EmployeeIDByUserID(ctx, userID)
}

func (s *Service) CreatePeriod(ctx context.Context, start, end time.Time) (*Period, error) {
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	id, err := s.Store.CreatePeriod(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &Period{ID: id, StartDate: start, EndDate: end}, nil
}

func (s *Service) GetPeriod(ctx context.Context, periodID string) (*Period, error) {
	return s.Store.GetPeriod(ctx, periodID)
}

func (s *Service) ListPeriods(ctx context.Context) ([]Period, error) {
	return s.Store.ListPeriods(ctx)
}

// ClosePeriod marks the period closed and finalizes its remaining draft
// rows. Closed periods refuse further runs.
func (s *Service) ClosePeriod(ctx context.Context, periodID string) (int, error) {
	if err := s.Store.ClosePeriod(ctx, periodID); err != nil {
		return 0, err
	}
	return s.Store.FinalizeForPeriod(ctx, periodID)
}

// RunForPeriod computes a draft payroll row for every verified employee with
// a payment profile. Overtime comes from the period's completed attendance
// records. The run is idempotent: rerunning recomputes and overwrites drafts.
func (s *Service) RunForPeriod(ctx context.Context, periodID string) (*RunResult, error) {
	period, err := s.Store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.IsClosed {
		return nil, ErrPeriodClosed
	}

	payable, err := s.Store.PayableEmployees(ctx)
	if err != nil {
		return nil, err
	}

	result := RunResult{PeriodID: periodID}
	for _, pe := range payable {
		overtimeHours, err := s.Attendance.OvertimeForRange(ctx, pe.EmployeeID, period.StartDate, period.EndDate)
		if err != nil {
			result.Skipped++
			continue
		}
		gross, overtimePay, net := ComputePay(pe.BaseSalary, pe.OvertimeRate, overtimeHours, 0)
		if _, err := s.Store.Upsert(ctx, Payroll{
			EmployeeID:  pe.EmployeeID,
			PeriodID:    periodID,
			Gross:       gross,
			OvertimePay: overtimePay,
			Net:         net,
			Status:      StatusDraft,
		}); err != nil {
			result.Skipped++
			continue
		}
		result.Processed++
	}
	return &result, nil
}

func (s *Service) Get(ctx context.Context, payrollID string) (*Payroll, error) {
	return s.Store.Get(ctx, payrollID)
}

func (s *Service) List(ctx context.Context, employeeID, periodID string, limit, offset int) ([]Payroll, error) {
	return s.Store.List(ctx, employeeID, periodID, limit, offset)
}

// GeneratePayslip starts rendering the payslip for one payroll row. The
// conditional lock admits exactly one caller; everyone else gets
// ErrAlreadyGenerating and should retry later. The winner returns as soon as
// the render job is queued.
func (s *Service) GeneratePayslip(ctx context.Context, payrollID string) error {
	if _, err := s.Store.Get(ctx, payrollID); err != nil {
		return err
	}

	acquired, err := s.Store.AcquireGenerationLock(ctx, payrollID, s.StaleAfter)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrAlreadyGenerating
	}

	queued := s.Jobs.Enqueue(jobs.JobPayslipGenerate, func(jobCtx context.Context) (any, error) {
		return s.renderPayslip(jobCtx, payrollID)
	})
	if !queued {
		// Nothing will run for this payroll, so hand the flag back instead
		// of leaving it locked until the staleness window.
		if clearErr := s.Store.ClearGeneration(ctx, payrollID); clearErr != nil {
			return fmt.Errorf("%w (flag clear also failed: %v)", ErrWorkerBusy, clearErr)
		}
		return ErrWorkerBusy
	}
	return nil
}

// renderPayslip runs in the background worker. Whatever happens, the
// generation flag is released: FinishGeneration clears it on success and
// ClearGeneration on any failure.
func (s *Service) renderPayslip(ctx context.Context, payrollID string) (any, error) {
	filePath, err := s.Store.RenderPayslip(ctx, payrollID, s.PayslipDir)
	if err != nil {
		if clearErr := s.Store.ClearGeneration(ctx, payrollID); clearErr != nil {
			return nil, fmt.Errorf("render failed: %w (flag clear also failed: %v)", err, clearErr)
		}
		return nil, err
	}
	if err := s.Store.FinishGeneration(ctx, payrollID, filePath); err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		if pr, err := s.Store.Get(ctx, payrollID); err == nil {
			if userID, err := s.Core.UserIDByEmployeeID(ctx, pr.EmployeeID); err == nil {
				_ = s.Notifier.Create(ctx, userID, notifications.TypePayslipReady,
					"Payslip ready", "Your payslip has been generated and is ready to download.")
			}
		}
	}
	return map[string]any{"payrollId": payrollID, "file": filePath}, nil
}

// PayslipPath resolves the stored payslip file for download, after the
// caller's access has been checked.
func (s *Service) PayslipPath(ctx context.Context, payrollID string) (string, error) {
	pr, err := s.Store.Get(ctx, payrollID)
	if err != nil {
		return "", err
	}
	if pr.PayslipFile == "" {
		return "", ErrPayslipNotReady
	}
	return pr.PayslipFile, nil
}
