package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/chargewatch/internal/dispute"
	"github.com/dshills/chargewatch/internal/mail"
	"github.com/dshills/chargewatch/internal/risk"
)

// Failure categories. Every aborted run wraps exactly one of these so
// operators can tell a provider outage from a local rendering problem from a
// delivery problem.
var (
	ErrFetch    = errors.New("report: dispute fetch failed")
	ErrRender   = errors.New("report: artifact render failed")
	ErrDelivery = errors.New("report: delivery failed")
)

// DisputeLister fetches disputes created inside a window. Implemented by the
// billing-provider client.
type DisputeLister interface {
	ListDisputes(ctx context.Context, createdAfter, createdBefore time.Time) ([]dispute.Dispute, error)
}

// TaskTracker files the report as a task. Implemented by the task-tool
// client, which carries its own project and assignee configuration.
type TaskTracker interface {
	CreateTask(ctx context.Context, title, notes string, dueOn time.Time) (taskID string, err error)
	AttachFile(ctx context.Context, taskID, fileName string, contents io.Reader) error
}

// Mailer sends the report notification.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Pipeline runs one weekly report end to end. Collaborators are injected so
// tests can substitute fakes; the scorer itself is pure and called directly.
type Pipeline struct {
	Disputes DisputeLister
	Tasks    TaskTracker
	Mail     Mailer
	Log      *zap.Logger

	Account      string
	Location     *time.Location
	Subject      string
	BodyTemplate string
	TaskDueDays  int

	// DryRun renders the CSV but skips task and mail delivery.
	DryRun bool
	// CopyTo, when set, also writes the CSV to this path before delivery.
	CopyTo string

	// Now is the clock; nil means time.Now. It is sampled exactly once per
	// run so every dispute is scored against the same instant.
	Now func() time.Time
}

// Outcome summarizes a completed (or no-op) run.
type Outcome struct {
	RunID       string
	WindowStart time.Time
	WindowEnd   time.Time
	Disputes    int
	NoOp        bool
	TaskID      string
	FileName    string
}

// Run executes one report run: resolve window, fetch, score, sort, render,
// deliver. Any failure aborts the remainder of the run; nothing is retried
// and nothing already delivered is rolled back.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	began := time.Now()
	now := began
	if p.Now != nil {
		now = p.Now()
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	runID := uuid.NewString()
	log := p.Log.With(zap.String("run_id", runID))

	start, end := WeekWindow(now, loc)
	out := Outcome{RunID: runID, WindowStart: start, WindowEnd: end}
	log.Info("report run started",
		zap.Time("window_start", start),
		zap.Time("window_end", end),
		zap.String("account", p.Account))

	disputes, err := p.Disputes.ListDisputes(ctx, start, end)
	if err != nil {
		log.Error("dispute fetch failed", zap.Error(err))
		return out, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	out.Disputes = len(disputes)

	if len(disputes) == 0 {
		out.NoOp = true
		log.Info("no disputes in window, nothing to report")
		return out, nil
	}

	scored := p.scoreAndSort(disputes, now, log)

	fileName := FileName(start, end, p.Account)
	out.FileName = fileName

	path, err := p.renderTemp(scored)
	if err != nil {
		log.Error("report render failed", zap.Error(err))
		return out, fmt.Errorf("%w: %w", ErrRender, err)
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			log.Warn("temp report file not removed", zap.String("path", path), zap.Error(rmErr))
		}
	}()
	log.Info("report rendered", zap.String("file", fileName), zap.Int("disputes", len(scored)))

	if p.CopyTo != "" {
		if err := copyFile(path, p.CopyTo); err != nil {
			log.Error("report copy failed", zap.String("dest", p.CopyTo), zap.Error(err))
			return out, fmt.Errorf("%w: %w", ErrRender, err)
		}
	}

	if p.DryRun {
		log.Info("dry run, skipping task and mail delivery")
		return out, nil
	}

	taskID, err := p.fileTask(ctx, start, end, now, path, fileName, scored)
	if err != nil {
		log.Error("task delivery failed", zap.Error(err))
		return out, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	out.TaskID = taskID

	msg := mail.Message{
		Subject:     mail.Expand(p.Subject, start, end),
		Body:        mail.Expand(p.BodyTemplate, start, end),
		Attachments: []mail.Attachment{{FileName: fileName, FilePath: path}},
	}
	if err := p.Mail.Send(ctx, msg); err != nil {
		log.Error("mail delivery failed", zap.Error(err))
		return out, fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	log.Info("report run completed",
		zap.String("task_id", taskID),
		zap.Duration("elapsed", time.Since(began)))
	return out, nil
}

// scoreAndSort assesses every dispute against the shared instant and orders
// the result by descending score. The sort is stable: ties keep the
// provider's order.
func (p *Pipeline) scoreAndSort(disputes []dispute.Dispute, now time.Time, log *zap.Logger) []ScoredDispute {
	scored := make([]ScoredDispute, 0, len(disputes))
	for _, d := range disputes {
		if d.Charge == nil {
			log.Warn("dispute missing charge data, using fallback assessment",
				zap.String("dispute_id", d.ID))
		}
		scored = append(scored, ScoredDispute{Dispute: d, Assessment: risk.Assess(d, now)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Assessment.Score > scored[j].Assessment.Score
	})
	return scored
}

// renderTemp writes the CSV to a temp file and returns its path. The caller
// removes the file on every exit path.
func (p *Pipeline) renderTemp(scored []ScoredDispute) (string, error) {
	f, err := os.CreateTemp("", "chargewatch-*.csv")
	if err != nil {
		return "", fmt.Errorf("report: create temp file: %w", err)
	}
	path := f.Name()
	if err := WriteCSV(f, scored); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("report: close temp file: %w", err)
	}
	return path, nil
}

func (p *Pipeline) fileTask(ctx context.Context, start, end, now time.Time, path, fileName string, scored []ScoredDispute) (string, error) {
	title := fmt.Sprintf("Dispute risk report %s to %s",
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	top := scored[0].Assessment
	notes := fmt.Sprintf(
		"Weekly dispute risk report for account %q.\n\nDisputes: %d\nHighest score: %d (%s)\n\nThe full report is attached as %s.",
		p.Account, len(scored), top.Score, top.Level, fileName)

	dueDays := p.TaskDueDays
	if dueDays <= 0 {
		dueDays = 3
	}
	dueOn := now.AddDate(0, 0, dueDays)

	taskID, err := p.Tasks.CreateTask(ctx, title, notes, dueOn)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return taskID, fmt.Errorf("report: open rendered file: %w", err)
	}
	defer f.Close()
	if err := p.Tasks.AttachFile(ctx, taskID, fileName, f); err != nil {
		return taskID, err
	}
	return taskID, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("report: open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("report: copy to %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("report: close %s: %w", dest, err)
	}
	return nil
}
