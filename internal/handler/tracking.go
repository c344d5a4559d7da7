package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
	"github.com/oguzhanyavuz/tradeport/internal/catalog"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/tracker"
	"github.com/oguzhanyavuz/tradeport/internal/utils"
)

// TrackingHandler terminates interaction ingest and the staff console.
type TrackingHandler struct {
	Tracker *tracker.Service
	Log     *zap.Logger
}

func NewTrackingHandler(t *tracker.Service, log *zap.Logger) *TrackingHandler {
	return &TrackingHandler{Tracker: t, Log: log}
}

type trackReq struct {
	CategoryID string            `json:"category_id"`
	CompanyID  string            `json:"company_id"`
	ProductID  string            `json:"product_id"`
	Referrer   string            `json:"referrer"`
	Params     map[string]string `json:"params"`
}

// Record ingests one interaction. At most one target kind may be set;
// sending several is the one condition that rejects instead of degrading,
// because the client is malformed rather than the data.
func (h *TrackingHandler) Record(c echo.Context) error {
	var req trackReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	kind := ""
	targetRaw := ""
	set := 0
	for _, t := range []struct{ kind, raw string }{
		{model.TrackCategory, req.CategoryID},
		{model.TrackCompany, req.CompanyID},
		{model.TrackProduct, req.ProductID},
	} {
		if t.raw != "" {
			set++
			kind = t.kind
			targetRaw = t.raw
		}
	}
	if set > 1 {
		return writeErr(c, h.Log, apperr.ErrTooManyItems)
	}

	in := tracker.Input{
		UserID:    callerID(c),
		Kind:      model.TrackOther,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Referrer:  req.Referrer,
		Params:    req.Params,
	}
	if set == 1 {
		in.Kind = kind
		// A malformed or unknown id downgrades inside Record; keep the raw
		// value so the downgrade can note it.
		if id, err := utils.DecodeID(kindTag(kind), targetRaw); err == nil {
			in.TargetID = id
		} else {
			if in.Params == nil {
				in.Params = map[string]string{}
			}
			in.Params["invalid_target"] = targetRaw
			in.Kind = model.TrackOther
		}
	}

	h.Tracker.Record(c.Request().Context(), in)
	return c.NoContent(http.StatusAccepted)
}

func kindTag(trackKind string) string {
	switch trackKind {
	case model.TrackCategory:
		return KindCategory
	case model.TrackCompany:
		return KindCompany
	case model.TrackProduct:
		return KindProduct
	}
	return ""
}

// List pages tracking events for staff, newest first.
func (h *TrackingHandler) List(c echo.Context) error {
	var (
		f   catalog.TrackingFilter
		err error
	)
	if f.From, err = timeParam(c, "from"); err != nil {
		return err
	}
	if f.To, err = timeParam(c, "to"); err != nil {
		return err
	}
	for _, t := range strings.Split(c.QueryParam("types"), ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			f.Types = append(f.Types, t)
		}
	}
	if f.Companies, err = idsParam(c, "companies", KindCompany); err != nil {
		return err
	}
	if f.Users, err = idsParam(c, "users", KindUser); err != nil {
		return err
	}
	f.Text = strings.TrimSpace(c.QueryParam("q"))

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	events, next, err := h.Tracker.List(ctx, f, page)
	if err != nil {
		return writeErr(c, h.Log, err)
	}

	type eventResp struct {
		ID             string            `json:"id"`
		Date           time.Time         `json:"date"`
		Type           string            `json:"type"`
		TargetID       string            `json:"target_id,omitempty"`
		UserID         string            `json:"user_id,omitempty"`
		IP             string            `json:"ip"`
		Country        string            `json:"country,omitempty"`
		Region         string            `json:"region,omitempty"`
		City           string            `json:"city,omitempty"`
		Referrer       string            `json:"referrer,omitempty"`
		DeviceClass    string            `json:"device_class"`
		Device         string            `json:"device,omitempty"`
		Browser        string            `json:"browser,omitempty"`
		BrowserVersion string            `json:"browser_version,omitempty"`
		OS             string            `json:"os,omitempty"`
		OSVersion      string            `json:"os_version,omitempty"`
		Params         map[string]string `json:"params,omitempty"`
	}
	out := make([]eventResp, 0, len(events))
	for _, e := range events {
		r := eventResp{
			ID:             utils.EncodeID(KindTracking, e.ID),
			Date:           e.Date,
			Type:           e.Type,
			IP:             e.IP,
			Country:        e.Country,
			Region:         e.Region,
			City:           e.City,
			Referrer:       e.Referrer,
			DeviceClass:    e.DeviceClass,
			Device:         e.Device,
			Browser:        e.Browser,
			BrowserVersion: e.BrowserVersion,
			OS:             e.OS,
			OSVersion:      e.OSVersion,
			Params:         e.Params,
		}
		if e.TargetID.Valid && kindTag(e.Type) != "" {
			r.TargetID = utils.EncodeID(kindTag(e.Type), uint64(e.TargetID.Int64))
		}
		if e.UserID.Valid {
			r.UserID = utils.EncodeID(KindUser, uint64(e.UserID.Int64))
		}
		out = append(out, r)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out, "next_cursor": next})
}

// DeleteBulk removes events by id. Staff only.
func (h *TrackingHandler) DeleteBulk(c echo.Context) error {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.Bind(&req); err != nil || len(req.IDs) == 0 {
		return badRequest(c, "ids required")
	}
	ids, err := decodeIDList(KindTracking, req.IDs)
	if err != nil {
		return badRequest(c, "malformed id")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	n, err := h.Tracker.DeleteBulk(ctx, ids)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}
