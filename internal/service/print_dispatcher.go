// internal/service/print_dispatcher.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"printer-service/internal/escpos"
	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/utils"
)

// DefaultCopyPause keeps consecutive copies from overrunning the printer buffer
const DefaultCopyPause = 500 * time.Millisecond

// DeviceWriter delivers bytes to a device, reconnecting when needed
type DeviceWriter interface {
	Write(ctx context.Context, deviceID string, data []byte) error
}

// EventPublisher receives print outcome events
type EventPublisher interface {
	Publish(event model.DeviceEvent)
}

// Sleeper waits d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// DispatcherOption configures a PrintDispatcher
type DispatcherOption func(*PrintDispatcher)

// WithSleeper replaces the pause between copies
func WithSleeper(sleep Sleeper) DispatcherOption {
	return func(d *PrintDispatcher) { d.sleep = sleep }
}

// WithCopyPause sets the pause between copies
func WithCopyPause(pause time.Duration) DispatcherOption {
	return func(d *PrintDispatcher) { d.copyPause = pause }
}

// WithTransliteration folds job text to ASCII before encoding
func WithTransliteration(enabled bool) DispatcherOption {
	return func(d *PrintDispatcher) { d.transliterate = enabled }
}

// WithDispatcherEvents sets the publisher notified of print outcomes
func WithDispatcherEvents(events EventPublisher) DispatcherOption {
	return func(d *PrintDispatcher) { d.events = events }
}

// WithClock replaces the clock used to stamp jobs
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *PrintDispatcher) { d.now = now }
}

// PrintDispatcher resolves a role to its printer config, encodes the job and
// sends the configured number of copies
type PrintDispatcher struct {
	configs       repository.ConfigRepository
	history       repository.HistoryRepository
	writer        DeviceWriter
	encoder       *escpos.Encoder
	events        EventPublisher
	copyPause     time.Duration
	sleep         Sleeper
	now           func() time.Time
	transliterate bool
	logger        *utils.ServiceLogger
}

// NewPrintDispatcher creates a new print dispatcher
func NewPrintDispatcher(
	configs repository.ConfigRepository,
	history repository.HistoryRepository,
	writer DeviceWriter,
	encoder *escpos.Encoder,
	logger *zap.Logger,
	opts ...DispatcherOption,
) *PrintDispatcher {
	d := &PrintDispatcher{
		configs:   configs,
		history:   history,
		writer:    writer,
		encoder:   encoder,
		copyPause: DefaultCopyPause,
		sleep:     sleepContext,
		now:       time.Now,
		logger:    utils.NewServiceLogger(logger, "print-dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Print sends job to the printer configured for role. A role without an
// enabled config is not an error; nothing is written.
func (d *PrintDispatcher) Print(ctx context.Context, job model.PrintJob, role model.PrinterRole) error {
	cfg, ok := d.configs.ByRole(ctx, role)
	if !ok {
		d.logger.Debug("No enabled printer for role, skipping", zap.String("role", string(role)))
		return nil
	}
	return d.dispatch(ctx, job, *cfg, model.TriggerManual)
}

// TestPrinter prints a one-line sample through cfg, whatever its enabled
// and autoprint flags
func (d *PrintDispatcher) TestPrinter(ctx context.Context, cfg model.PrinterConfig) error {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	job := model.PrintJob{
		Kind:           cfg.Role.JobKind(),
		RestaurantName: "TESTE DE IMPRESSAO",
		Lines:          []model.JobLine{{Name: "Impressora: " + cfg.Name, Quantity: 1}},
	}
	if job.Kind == model.JobPaymentReceipt {
		job.Lines[0].UnitPrice = model.Money(decimal.Zero)
		job.Total = model.Money(decimal.Zero)
	}

	return d.dispatch(ctx, job, cfg, model.TriggerTest)
}

// PrintKitchenOrder is the hook called when an order is created. It never
// fails the caller; problems are logged.
func (d *PrintDispatcher) PrintKitchenOrder(ctx context.Context, restaurantName string, tableNumber *string, items []model.JobLine, note *string) {
	d.autoprint(ctx, model.RoleKitchen, model.PrintJob{
		Kind:           model.JobKitchenOrder,
		RestaurantName: restaurantName,
		TableNumber:    tableNumber,
		Lines:          items,
		GeneralNote:    note,
	})
}

// PrintPaymentReceipt is the hook called when a payment completes. It never
// fails the caller; problems are logged.
func (d *PrintDispatcher) PrintPaymentReceipt(ctx context.Context, restaurantName string, tableNumber *string, items []model.JobLine, total decimal.Decimal, paymentMethod string) {
	d.autoprint(ctx, model.RolePayment, model.PrintJob{
		Kind:           model.JobPaymentReceipt,
		RestaurantName: restaurantName,
		TableNumber:    tableNumber,
		Lines:          items,
		Total:          model.Money(total),
		PaymentMethod:  model.String(paymentMethod),
	})
}

func (d *PrintDispatcher) autoprint(ctx context.Context, role model.PrinterRole, job model.PrintJob) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Panic during automatic print",
				zap.String("role", string(role)),
				zap.Any("panic", r),
				zap.Stack("stacktrace"),
			)
		}
	}()

	cfg, ok := d.configs.ByRole(ctx, role)
	if !ok {
		d.logger.Debug("No enabled printer for role, skipping", zap.String("role", string(role)))
		return
	}

	if !cfg.Autoprint {
		record := d.newRecord(*cfg, job.Kind, model.TriggerAuto)
		record.Complete(model.PrintStatusSkipped, nil)
		d.saveRecord(ctx, record)
		return
	}

	if err := d.dispatch(ctx, job, *cfg, model.TriggerAuto); err != nil {
		d.logger.Warn("Automatic print failed",
			zap.String("role", string(role)),
			zap.String("device_id", cfg.DeviceID),
			zap.Error(err),
		)
	}
}

// dispatch encodes job once and writes cfg.Copies copies, pausing between
// them. The first failing copy aborts the rest.
func (d *PrintDispatcher) dispatch(ctx context.Context, job model.PrintJob, cfg model.PrinterConfig, trigger model.PrintTrigger) error {
	if job.Kind == "" {
		job.Kind = cfg.Role.JobKind()
	}

	record := d.newRecord(cfg, job.Kind, trigger)
	jobLogger := utils.NewJobLogger(d.logger.Logger, string(cfg.Role), record.ID.String())
	deviceLogger := utils.NewDeviceLogger(jobLogger.Logger(), cfg.DeviceID, string(cfg.ConnectionKind))

	if err := job.Validate(); err != nil {
		return d.fail(ctx, record, jobLogger, err)
	}
	if job.IssuedAt.IsZero() {
		job.IssuedAt = d.now()
	}
	if d.transliterate {
		job = transliterateJob(job)
	}

	data := d.encoder.Encode(job, cfg.PaperWidthChars)
	record.Bytes = len(data)

	jobLogger.Start(
		zap.String("device_id", cfg.DeviceID),
		zap.String("trigger", string(trigger)),
		zap.Int("copies", cfg.Copies),
		zap.Int("bytes", len(data)),
	)

	for i := 0; i < cfg.Copies; i++ {
		if i > 0 {
			if err := d.sleep(ctx, d.copyPause); err != nil {
				return d.fail(ctx, record, jobLogger, err)
			}
		}

		start := time.Now()
		if err := d.writer.Write(ctx, cfg.DeviceID, data); err != nil {
			return d.fail(ctx, record, jobLogger, fmt.Errorf("copy %d of %d: %w", i+1, cfg.Copies, err))
		}
		record.CopiesPrinted++
		deviceLogger.LogCopy(i+1, cfg.Copies, len(data), time.Since(start))
	}

	record.Complete(model.PrintStatusPrinted, nil)
	d.saveRecord(ctx, record)
	d.publish(model.EventPrintCompleted, cfg, "")
	jobLogger.Success(zap.Int("copies_printed", record.CopiesPrinted))
	return nil
}

func (d *PrintDispatcher) fail(ctx context.Context, record *model.PrintRecord, jobLogger *utils.JobLogger, err error) error {
	record.Complete(model.PrintStatusFailed, err)
	d.saveRecord(ctx, record)
	d.publish(model.EventPrintFailed, model.PrinterConfig{DeviceID: record.DeviceID, Role: record.Role}, err.Error())
	jobLogger.Error(err, zap.Int("copies_printed", record.CopiesPrinted))
	return err
}

func (d *PrintDispatcher) newRecord(cfg model.PrinterConfig, kind model.JobKind, trigger model.PrintTrigger) *model.PrintRecord {
	return &model.PrintRecord{
		ID:              uuid.New(),
		ConfigID:        cfg.ID,
		Role:            cfg.Role,
		Kind:            kind,
		DeviceID:        cfg.DeviceID,
		Trigger:         trigger,
		CopiesRequested: cfg.Copies,
		StartedAt:       time.Now(),
	}
}

// saveRecord stores a history entry; a history failure never fails a print
func (d *PrintDispatcher) saveRecord(ctx context.Context, record *model.PrintRecord) {
	if d.history == nil {
		return
	}
	if err := d.history.Create(context.WithoutCancel(ctx), record); err != nil {
		d.logger.Warn("Failed to record print history",
			zap.String("record_id", record.ID.String()),
			zap.Error(err),
		)
	}
}

func (d *PrintDispatcher) publish(eventType model.EventType, cfg model.PrinterConfig, reason string) {
	if d.events == nil {
		return
	}
	kind, _ := model.TransportOf(cfg.DeviceID)
	event := model.NewDeviceEvent(eventType, cfg.DeviceID, kind)
	event.Reason = reason
	d.events.Publish(event)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
