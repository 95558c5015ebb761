package model

import "testing"

func TestNewBuildJob(t *testing.T) {
	job := NewBuildJob(1, "job-uuid", "inputs/data.bp", 4)
	if job.Status != BuildStatusPending {
		t.Errorf("Status = %v, want %v", job.Status, BuildStatusPending)
	}
	if job.IsTerminal() {
		t.Error("a freshly created job should not be terminal")
	}
	if job.CreateTime.IsZero() {
		t.Error("CreateTime should be set")
	}
}

func TestBuildJob_IsTerminal(t *testing.T) {
	cases := map[BuildStatus]bool{
		BuildStatusPending:   false,
		BuildStatusRunning:   false,
		BuildStatusCompleted: true,
		BuildStatusFailed:    true,
	}
	for status, want := range cases {
		j := &BuildJob{Status: status}
		if got := j.IsTerminal(); got != want {
			t.Errorf("IsTerminal() for status %v = %v, want %v", status, got, want)
		}
	}
}

func TestBuildStatus_String(t *testing.T) {
	cases := map[BuildStatus]string{
		BuildStatusPending:   "pending",
		BuildStatusRunning:   "running",
		BuildStatusCompleted: "completed",
		BuildStatusFailed:    "failed",
		BuildStatus(99):      "unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("String() for %d = %q, want %q", status, got, want)
		}
	}
}

func TestNewBuildRun(t *testing.T) {
	job := NewBuildJob(1, "job-uuid", "inputs/data.bp", 8)
	run := NewBuildRun(job, 1024, 4, 2, 0, 1<<20)
	if run.JobUUID != job.JobUUID || run.InputKey != job.InputKey {
		t.Error("BuildRun should inherit identity fields from its BuildJob")
	}
	if run.Status != BuildStatusCompleted {
		t.Errorf("Status = %v, want %v", run.Status, BuildStatusCompleted)
	}
}
