package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
	"github.com/oguzhanyavuz/tradeport/internal/middleware"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
	"github.com/oguzhanyavuz/tradeport/internal/utils"
)

// SellerPortDealHandler manages spot deals of the caller's company.
type SellerPortDealHandler struct {
	Deals *repository.PortDealRepo
	Log   *zap.Logger
}

func NewSellerPortDealHandler(d *repository.PortDealRepo, log *zap.Logger) *SellerPortDealHandler {
	return &SellerPortDealHandler{Deals: d, Log: log}
}

type portDealReq struct {
	ProductName  string    `json:"product_name"`
	HSCode       string    `json:"hs_code"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Quantity     uint32    `json:"quantity"`
	Unit         string    `json:"unit"`
	Price        string    `json:"price"`
	Currency     string    `json:"currency"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	Certificates []string  `json:"certificates"`
}

type portDealResp struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	Slug         string    `json:"slug"`
	ProductName  string    `json:"product_name"`
	HSCode       string    `json:"hs_code,omitempty"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Quantity     uint32    `json:"quantity"`
	Unit         string    `json:"unit"`
	Price        string    `json:"price"`
	Currency     string    `json:"currency"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	IsActive     bool      `json:"is_active"`
	IsExpired    bool      `json:"is_expired"`
	Certificates []string  `json:"certificates,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func portDealRespOf(d model.PortDeal, now time.Time) portDealResp {
	return portDealResp{
		ID:          utils.EncodeID(KindPortDeal, d.ID),
		CompanyID:   utils.EncodeID(KindCompany, d.CompanyID),
		Slug:        d.Slug,
		ProductName: d.ProductName,
		HSCode:      d.HSCode,
		Lat:         d.Lat,
		Lng:         d.Lng,
		Quantity:    d.Quantity,
		Unit:        d.Unit,
		Price:       d.Price.String(),
		Currency:    d.Currency,
		StartAt:     d.StartAt,
		EndAt:       d.EndAt,
		IsActive:    d.IsActive,
		// Reads correct the flag on the fly; the sweep catches up within a
		// minute.
		IsExpired:    d.IsExpired || d.EndAt.Before(now),
		Certificates: d.Certificates,
		CreatedAt:    d.CreatedAt,
	}
}

func bindPortDeal(req portDealReq) (model.PortDeal, apperr.List) {
	var (
		d    model.PortDeal
		list apperr.List
	)
	d.ProductName = strings.TrimSpace(req.ProductName)
	if d.ProductName == "" {
		list = append(list, apperr.Required("product_name"))
	}
	d.HSCode = strings.TrimSpace(req.HSCode)
	d.Lat = req.Lat
	d.Lng = req.Lng
	if req.Quantity == 0 {
		list = append(list, apperr.Invalid("quantity", "must be positive"))
	}
	d.Quantity = req.Quantity
	d.Unit = strings.ToUpper(strings.TrimSpace(req.Unit))
	if !model.ValidUnit(d.Unit) {
		list = append(list, apperr.Invalid("unit", "unknown measurement unit"))
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil || !price.IsPositive() {
		list = append(list, apperr.Invalid("price", "must be a positive decimal"))
	}
	d.Price = price

	d.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(d.Currency) != 3 {
		list = append(list, apperr.Invalid("currency", "must be an ISO 4217 code"))
	}

	if req.StartAt.IsZero() || req.EndAt.IsZero() {
		list = append(list, apperr.Required("start_at"))
	} else if req.EndAt.Before(req.StartAt) {
		list = append(list, apperr.Invalid("end_at", "must not precede start_at"))
	}
	d.StartAt = req.StartAt.UTC()
	d.EndAt = req.EndAt.UTC()
	d.Certificates = req.Certificates
	return d, list
}

// Create lists goods at port for the caller's company.
func (h *SellerPortDealHandler) Create(c echo.Context) error {
	var req portDealReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	caller := middleware.CallerFrom(c)
	if caller.CompanyID == 0 {
		return writeErr(c, h.Log, apperr.ErrNotFound)
	}

	d, list := bindPortDeal(req)
	if len(list) > 0 {
		return writeErr(c, h.Log, list)
	}
	d.CompanyID = caller.CompanyID
	d.IsActive = true

	ctx, cancel := dbCtx(c)
	defer cancel()

	base := utils.Slugify(d.ProductName)
	if base == "" {
		base = "deal"
	}
	d.Slug = base
	var (
		id  uint64
		err error
	)
	for attempt := 0; attempt < 3; attempt++ {
		id, err = h.Deals.Create(ctx, d)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		suffix, sErr := utils.RandomHex(3)
		if sErr != nil {
			return writeErr(c, h.Log, sErr)
		}
		d.Slug = base + "-" + suffix
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return writeErr(c, h.Log, apperr.List{apperr.SlugTaken()})
	}
	if err != nil {
		return writeErr(c, h.Log, err)
	}

	out, err := h.Deals.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, portDealRespOf(out, time.Now().UTC()))
}

// Mine lists the company's own deals including inactive and expired ones.
func (h *SellerPortDealHandler) Mine(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if caller.CompanyID == 0 {
		return writeErr(c, h.Log, apperr.ErrNotFound)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	now := time.Now().UTC()
	deals, err := h.Deals.List(ctx, caller, caller.CompanyID, now)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	out := make([]portDealResp, 0, len(deals))
	for _, d := range deals {
		out = append(out, portDealRespOf(d, now))
	}
	return c.JSON(http.StatusOK, echo.Map{"port_deals": out})
}

// Deactivate hides a deal without deleting it.
func (h *SellerPortDealHandler) Deactivate(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	d, err := h.ownDeal(ctx, c)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	if err := h.Deals.SetActive(ctx, d.ID, false); err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a deal permanently.
func (h *SellerPortDealHandler) Delete(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	d, err := h.ownDeal(ctx, c)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	if err := h.Deals.Delete(ctx, d.ID); err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SellerPortDealHandler) ownDeal(ctx context.Context, c echo.Context) (model.PortDeal, error) {
	id, err := utils.DecodeID(KindPortDeal, c.Param("id"))
	if err != nil {
		return model.PortDeal{}, apperr.ErrNotFound
	}
	d, err := h.Deals.GetByID(ctx, id)
	if err != nil {
		return model.PortDeal{}, err
	}
	caller := middleware.CallerFrom(c)
	if !caller.IsStaff() && !caller.Owns(d.CompanyID) {
		return model.PortDeal{}, apperr.ErrNotFound
	}
	return d, nil
}
