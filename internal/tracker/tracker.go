// Package tracker is the interaction ingestion pipeline: classify the
// event, enrich it, persist it, fan it out. Recording is best-effort;
// nothing here may propagate an error into the caller's request path.
package tracker

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/catalog"
	"github.com/oguzhanyavuz/tradeport/internal/enrich"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/queue"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
	queue_publisher "github.com/oguzhanyavuz/tradeport/internal/service"
)

// Enricher is the geo/UA resolver seam.
type Enricher interface {
	Enrich(ip, userAgent string) enrich.Context
}

// Service classifies, enriches and persists interactions.
type Service struct {
	store    repository.TrackingStore
	enricher Enricher
	targets  map[string]repository.TargetChecker
	log      *zap.Logger
	publish  bool
}

// New wires the pipeline. targets maps event type to the collection that
// validates its target ids (CATEGORY, COMPANY, PRODUCT).
func New(store repository.TrackingStore, enricher Enricher,
	targets map[string]repository.TargetChecker, log *zap.Logger, publish bool) *Service {
	return &Service{store: store, enricher: enricher, targets: targets, log: log, publish: publish}
}

// Input is one raw interaction as seen at the boundary.
type Input struct {
	UserID    uint64 // 0 for anonymous
	Kind      string // CATEGORY | COMPANY | PRODUCT | OTHER
	TargetID  uint64 // 0 when absent
	IP        string
	UserAgent string
	Referrer  string
	Params    map[string]string
}

// Record stores one interaction. It never returns an error: enrichment
// failures produce empty fields, an unresolvable target downgrades the
// kind to OTHER with params.invalid_target, and persistence failures are
// logged and swallowed.
func (s *Service) Record(ctx context.Context, in Input) {
	now := time.Now().UTC()

	kind, params := s.classify(ctx, in)
	ec := s.enricher.Enrich(in.IP, in.UserAgent)

	e := model.TrackingEvent{
		Date:           now,
		Type:           kind,
		IP:             in.IP,
		Country:        ec.CountryISO,
		Region:         ec.Region,
		City:           ec.City,
		Postal:         ec.Postal,
		Referrer:       in.Referrer,
		DeviceClass:    ec.DeviceClass,
		Device:         ec.Device,
		Browser:        ec.Browser,
		BrowserVersion: ec.BrowserVersion,
		OS:             ec.OS,
		OSVersion:      ec.OSVersion,
		Params:         params,
	}
	if ec.HasCoords {
		e.Lat = sql.NullFloat64{Float64: ec.Lat, Valid: true}
		e.Lng = sql.NullFloat64{Float64: ec.Lng, Valid: true}
	}
	if kind != model.TrackOther && in.TargetID != 0 {
		e.TargetID = sql.NullInt64{Int64: int64(in.TargetID), Valid: true}
	}
	if in.UserID != 0 {
		e.UserID = sql.NullInt64{Int64: int64(in.UserID), Valid: true}
	}

	id, err := s.store.Insert(ctx, e)
	if err != nil {
		s.log.Warn("tracking insert failed", zap.Error(err), zap.String("type", kind))
		return
	}

	if s.publish {
		ev := queue.TrackingRecordedEvent{
			EventID:     id,
			Type:        kind,
			TargetID:    in.TargetID,
			UserID:      in.UserID,
			Country:     ec.CountryISO,
			DeviceClass: ec.DeviceClass,
			RecordedAt:  now.Format(time.RFC3339),
		}
		_ = queue_publisher.Publish(ctx, queue.TrackingQueue, ev)
	}
}

// classify picks the stored type. A present target id must resolve in its
// referenced collection; otherwise the kind is forced to OTHER and the
// original id is preserved in params.invalid_target.
func (s *Service) classify(ctx context.Context, in Input) (string, map[string]string) {
	params := in.Params
	if params == nil {
		params = map[string]string{}
	}

	switch in.Kind {
	case model.TrackCategory, model.TrackCompany, model.TrackProduct:
	default:
		return model.TrackOther, params
	}
	if in.TargetID == 0 {
		return model.TrackOther, params
	}

	checker := s.targets[in.Kind]
	if checker == nil {
		return model.TrackOther, params
	}
	ok, err := checker.Exists(ctx, in.TargetID)
	if err != nil {
		s.log.Warn("tracking target check failed", zap.Error(err))
		ok = false
	}
	if !ok {
		params["invalid_target"] = strconv.FormatUint(in.TargetID, 10)
		return model.TrackOther, params
	}
	return in.Kind, params
}

// List pages events for the staff console.
func (s *Service) List(ctx context.Context, f catalog.TrackingFilter, page catalog.Page) ([]model.TrackingEvent, string, error) {
	return s.store.List(ctx, f, page)
}

// DeleteBulk removes events by id.
func (s *Service) DeleteBulk(ctx context.Context, eventIDs []uint64) (int64, error) {
	return s.store.DeleteBulk(ctx, eventIDs)
}
