package main

import (
	"context"

	"apiprobe/internal/dispatch"
	"apiprobe/internal/models"
)

// RunItem carries one finished run through the sink stages.
type RunItem struct {
	Report *models.RunReport

	// Set by the archive step in the first stage.
	ArchiveBucket string
	ArchiveKey    string
}

func NewRunItem(r *models.RunReport) *RunItem {
	return &RunItem{Report: r}
}

type reportArchiver interface {
	Bucket() string
	StoreReport(ctx context.Context, r *models.RunReport) (string, error)
}

type runRecorder interface {
	Record(ctx context.Context, r *models.RunReport) error
}

type eventPublisher interface {
	Publish(ctx context.Context, key string, v any) error
}

type failureNotifier interface {
	Notify(ctx context.Context, r *models.RunReport) error
}

func StepArchive(a reportArchiver) dispatch.Step[RunItem] {
	return func(ctx context.Context, item *RunItem) error {
		key, err := a.StoreReport(ctx, item.Report)
		if err != nil {
			return err
		}
		item.ArchiveBucket = a.Bucket()
		item.ArchiveKey = key
		return nil
	}
}

func StepRecord(rec runRecorder) dispatch.Step[RunItem] {
	return func(ctx context.Context, item *RunItem) error {
		return rec.Record(ctx, item.Report)
	}
}

// StepPublish sends the run event. It points at the archived report only when
// the archive step succeeded.
func StepPublish(p eventPublisher) dispatch.Step[RunItem] {
	return func(ctx context.Context, item *RunItem) error {
		event := models.NewRunEvent(item.Report, item.ArchiveBucket, item.ArchiveKey)
		return p.Publish(ctx, item.Report.ID, event)
	}
}

func StepNotify(n failureNotifier) dispatch.Step[RunItem] {
	return func(ctx context.Context, item *RunItem) error {
		return n.Notify(ctx, item.Report)
	}
}
