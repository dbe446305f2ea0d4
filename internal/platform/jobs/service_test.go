package jobs

import (
	"context"
	"testing"

	"hrms/internal/platform/config"
)

func TestEnqueueReportsFullQueue(t *testing.T) {
	s := New(nil, config.Config{})
	noop := func(context.Context) (any, error) { return nil, nil }

	// No worker is running, so nothing drains the buffer.
	for i := 0; i < cap(s.queue); i++ {
		if !s.Enqueue(JobPayslipGenerate, noop) {
			t.Fatalf("enqueue %d rejected before the queue filled", i)
		}
	}
	if s.Enqueue(JobPayslipGenerate, noop) {
		t.Fatal("enqueue must report false once the queue is full")
	}
}
