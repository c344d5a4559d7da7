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

// SellerOfferHandler manages discount offers of the caller's company.
type SellerOfferHandler struct {
	Offers *repository.OfferRepo
	Log    *zap.Logger
}

func NewSellerOfferHandler(o *repository.OfferRepo, log *zap.Logger) *SellerOfferHandler {
	return &SellerOfferHandler{Offers: o, Log: log}
}

type offerReq struct {
	Title         string    `json:"title"`
	DiscountValue string    `json:"discount_value"`
	Unit          string    `json:"unit"` // PERCENT | DIRECT
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	AllProducts   bool      `json:"all_products"`
	AllCategories bool      `json:"all_categories"`
	Products      []string  `json:"products"`
	Categories    []string  `json:"categories"`
}

type offerResp struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	DiscountValue string    `json:"discount_value"`
	Unit          string    `json:"unit"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	IsActive      bool      `json:"is_active"`
	Expired       bool      `json:"expired"`
	AllProducts   bool      `json:"all_products"`
	AllCategories bool      `json:"all_categories"`
	Products      []string  `json:"products,omitempty"`
	Categories    []string  `json:"categories,omitempty"`
}

func offerRespOf(o model.Offer, now time.Time) offerResp {
	r := offerResp{
		ID:            utils.EncodeID(KindOffer, o.ID),
		CompanyID:     utils.EncodeID(KindCompany, o.CompanyID),
		Slug:          o.Slug,
		Title:         o.Title,
		DiscountValue: o.DiscountValue.String(),
		Unit:          o.Unit,
		StartAt:       o.StartAt,
		EndAt:         o.EndAt,
		IsActive:      o.IsActive,
		Expired:       o.Expired(now),
		AllProducts:   o.AllProducts,
		AllCategories: o.AllCategories,
	}
	for _, id := range o.Products {
		r.Products = append(r.Products, utils.EncodeID(KindProduct, id))
	}
	for _, id := range o.Categories {
		r.Categories = append(r.Categories, utils.EncodeID(KindCategory, id))
	}
	return r
}

func bindOffer(req offerReq) (model.Offer, apperr.List) {
	var (
		o    model.Offer
		list apperr.List
	)
	o.Title = strings.TrimSpace(req.Title)
	if o.Title == "" {
		list = append(list, apperr.Required("title"))
	}

	o.Unit = strings.ToUpper(strings.TrimSpace(req.Unit))
	val, err := decimal.NewFromString(strings.TrimSpace(req.DiscountValue))
	switch o.Unit {
	case model.OfferUnitPercent:
		if err != nil || !val.IsPositive() || val.GreaterThan(decimal.NewFromInt(100)) {
			list = append(list, apperr.Invalid("discount_value", "percent must be in (0,100]"))
		}
	case model.OfferUnitDirect:
		if err != nil || !val.IsPositive() {
			list = append(list, apperr.Invalid("discount_value", "must be positive"))
		}
	default:
		list = append(list, apperr.Invalid("unit", "must be PERCENT or DIRECT"))
	}
	o.DiscountValue = val

	if req.StartAt.IsZero() || req.EndAt.IsZero() {
		list = append(list, apperr.Required("start_at"))
	} else if req.EndAt.Before(req.StartAt) {
		list = append(list, apperr.Invalid("end_at", "must not precede start_at"))
	}
	o.StartAt = req.StartAt.UTC()
	o.EndAt = req.EndAt.UTC()

	o.AllProducts = req.AllProducts
	o.AllCategories = req.AllCategories
	if ids, dErr := decodeIDList(KindProduct, req.Products); dErr != nil {
		list = append(list, apperr.Invalid("products", "malformed id"))
	} else {
		o.Products = ids
	}
	if ids, dErr := decodeIDList(KindCategory, req.Categories); dErr != nil {
		list = append(list, apperr.Invalid("categories", "malformed id"))
	} else {
		o.Categories = ids
	}
	// An offer must target something.
	if !o.AllProducts && !o.AllCategories && len(o.Products) == 0 && len(o.Categories) == 0 {
		list = append(list, apperr.Invalid("products", "offer targets nothing"))
	}
	return o, list
}

// Create adds an offer for the caller's company.
func (h *SellerOfferHandler) Create(c echo.Context) error {
	var req offerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	caller := middleware.CallerFrom(c)
	if caller.CompanyID == 0 {
		return writeErr(c, h.Log, apperr.ErrNotFound)
	}

	o, list := bindOffer(req)
	if len(list) > 0 {
		return writeErr(c, h.Log, list)
	}
	o.CompanyID = caller.CompanyID
	o.IsActive = true

	ctx, cancel := dbCtx(c)
	defer cancel()

	base := utils.Slugify(o.Title)
	if base == "" {
		base = "offer"
	}
	o.Slug = base
	var (
		id  uint64
		err error
	)
	for attempt := 0; attempt < 3; attempt++ {
		id, err = h.Offers.Create(ctx, o)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		suffix, sErr := utils.RandomHex(3)
		if sErr != nil {
			return writeErr(c, h.Log, sErr)
		}
		o.Slug = base + "-" + suffix
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return writeErr(c, h.Log, apperr.List{apperr.SlugTaken()})
	}
	if err != nil {
		return writeErr(c, h.Log, err)
	}

	out, err := h.Offers.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, offerRespOf(out, time.Now().UTC()))
}

// Mine lists the company's own offers, expired ones included.
func (h *SellerOfferHandler) Mine(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if caller.CompanyID == 0 {
		return writeErr(c, h.Log, apperr.ErrNotFound)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	now := time.Now().UTC()
	offers, err := h.Offers.ListByCompany(ctx, caller, caller.CompanyID, now)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	out := make([]offerResp, 0, len(offers))
	for _, o := range offers {
		out = append(out, offerRespOf(o, now))
	}
	return c.JSON(http.StatusOK, echo.Map{"offers": out})
}

// Deactivate turns an offer off before its window closes.
func (h *SellerOfferHandler) Deactivate(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.ownOffer(ctx, c)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	if err := h.Offers.SetActive(ctx, o.ID, false); err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes an offer and its join rows.
func (h *SellerOfferHandler) Delete(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.ownOffer(ctx, c)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	if err := h.Offers.Delete(ctx, o.ID); err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SellerOfferHandler) ownOffer(ctx context.Context, c echo.Context) (model.Offer, error) {
	id, err := utils.DecodeID(KindOffer, c.Param("id"))
	if err != nil {
		return model.Offer{}, apperr.ErrNotFound
	}
	o, err := h.Offers.GetByID(ctx, id)
	if err != nil {
		return model.Offer{}, err
	}
	caller := middleware.CallerFrom(c)
	if !caller.IsStaff() && !caller.Owns(o.CompanyID) {
		return model.Offer{}, apperr.ErrNotFound
	}
	return o, nil
}
