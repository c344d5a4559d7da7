package handler

import (
	"context"
	"database/sql"
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

// SellerProductHandler manages products owned by the caller's company.
type SellerProductHandler struct {
	Products   *repository.ProductRepo
	Companies  *repository.CompanyRepo
	Categories *repository.CategoryRepo
	Log        *zap.Logger
}

func NewSellerProductHandler(p *repository.ProductRepo, co *repository.CompanyRepo,
	cat *repository.CategoryRepo, log *zap.Logger) *SellerProductHandler {
	return &SellerProductHandler{Products: p, Companies: co, Categories: cat, Log: log}
}

type productReq struct {
	Name             string   `json:"name"`
	HSCode           string   `json:"hs_code"`
	CategoryID       string   `json:"category_id"`
	UnitNumber       uint32   `json:"unit_number"`
	Unit             string   `json:"unit"`
	UnitPrice        string   `json:"unit_price"`
	Currency         string   `json:"currency"`
	MOQ              uint32   `json:"moq"`
	Brand            string   `json:"brand"`
	DeliveryTime     string   `json:"delivery_time_option"`
	Tags             []string `json:"tags"`
	Rosettes         []string `json:"rosettes"`
	CertificateTypes []string `json:"certificate_types"`
}

type productResp struct {
	ID              string     `json:"id"`
	CompanyID       string     `json:"company_id"`
	Slug            string     `json:"slug"`
	Name            string     `json:"name"`
	HSCode          string     `json:"hs_code,omitempty"`
	CategoryID      string     `json:"category_id,omitempty"`
	UnitNumber      uint32     `json:"unit_number"`
	Unit            string     `json:"unit"`
	UnitPrice       string     `json:"unit_price"`
	Currency        string     `json:"currency"`
	MOQ             uint32     `json:"moq"`
	Brand           string     `json:"brand,omitempty"`
	Rating          uint8      `json:"rating"`
	DeliveryTime    string     `json:"delivery_time_option,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsPublished     bool       `json:"is_published"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Rosettes        []string   `json:"rosettes,omitempty"`
	Certificates    []string   `json:"certificate_types,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	// Display conversion, set only when the listing asked for another
	// currency.
	DisplayPrice    string `json:"display_price,omitempty"`
	DisplayCurrency string `json:"display_currency,omitempty"`
	DisplayStale    bool   `json:"display_stale,omitempty"`
}

func productRespOf(p model.Product) productResp {
	r := productResp{
		ID:           utils.EncodeID(KindProduct, p.ID),
		CompanyID:    utils.EncodeID(KindCompany, p.CompanyID),
		Slug:         p.Slug,
		Name:         p.Name,
		HSCode:       p.HSCode,
		UnitNumber:   p.UnitNumber,
		Unit:         p.Unit,
		UnitPrice:    p.UnitPrice.String(),
		Currency:     p.Currency,
		MOQ:          p.MOQ,
		Brand:        p.Brand,
		Rating:       p.Rating,
		DeliveryTime: p.DeliveryTime,
		IsActive:     p.IsActive,
		IsPublished:  p.IsPublished,
		Tags:         p.Tags,
		CreatedAt:    p.CreatedAt,
	}
	if p.CategoryID.Valid {
		r.CategoryID = utils.EncodeID(KindCategory, uint64(p.CategoryID.Int64))
	}
	if p.PublicationDate.Valid {
		t := p.PublicationDate.Time
		r.PublicationDate = &t
	}
	for _, id := range p.Rosettes {
		r.Rosettes = append(r.Rosettes, utils.EncodeID("Rosette", id))
	}
	for _, id := range p.CertificateTypes {
		r.Certificates = append(r.Certificates, utils.EncodeID("CertificateType", id))
	}
	return r
}

// bindProduct validates the payload into a model, collecting every field
// error rather than stopping at the first.
func (h *SellerProductHandler) bindProduct(ctx context.Context, req productReq) (model.Product, apperr.List) {
	var (
		p    model.Product
		list apperr.List
	)
	p.Name = strings.TrimSpace(req.Name)
	if p.Name == "" {
		list = append(list, apperr.Required("name"))
	}
	p.HSCode = strings.TrimSpace(req.HSCode)
	p.Unit = strings.ToUpper(strings.TrimSpace(req.Unit))
	if !model.ValidUnit(p.Unit) {
		list = append(list, apperr.Invalid("unit", "unknown measurement unit"))
	}
	if req.UnitNumber == 0 {
		list = append(list, apperr.Invalid("unit_number", "must be positive"))
	}
	p.UnitNumber = req.UnitNumber
	p.MOQ = req.MOQ

	price, err := decimal.NewFromString(strings.TrimSpace(req.UnitPrice))
	if err != nil || price.IsNegative() {
		list = append(list, apperr.Invalid("unit_price", "must be a non-negative decimal"))
	} else {
		p.UnitPrice = price
	}

	p.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(p.Currency) != 3 {
		list = append(list, apperr.Invalid("currency", "must be an ISO 4217 code"))
	}

	if req.CategoryID != "" {
		catID, dErr := utils.DecodeID(KindCategory, req.CategoryID)
		if dErr != nil {
			list = append(list, apperr.Invalid("category_id", "malformed id"))
		} else if ok, eErr := h.Categories.Exists(ctx, catID); eErr != nil || !ok {
			list = append(list, apperr.Invalid("category_id", "unknown category"))
		} else {
			p.CategoryID = sql.NullInt64{Int64: int64(catID), Valid: true}
		}
	}

	p.Brand = strings.TrimSpace(req.Brand)
	p.DeliveryTime = strings.TrimSpace(req.DeliveryTime)

	p.Tags = req.Tags
	if ids, dErr := decodeIDList("Rosette", req.Rosettes); dErr != nil {
		list = append(list, apperr.Invalid("rosettes", "malformed id"))
	} else {
		p.Rosettes = ids
	}
	if ids, dErr := decodeIDList("CertificateType", req.CertificateTypes); dErr != nil {
		list = append(list, apperr.Invalid("certificate_types", "malformed id"))
	} else {
		p.CertificateTypes = ids
	}
	return p, list
}

func decodeIDList(kind string, opaque []string) ([]uint64, error) {
	var out []uint64
	for _, s := range opaque {
		id, err := utils.DecodeID(kind, s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Create adds a product under the caller's company, active and unpublished.
func (h *SellerProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	caller := middleware.CallerFrom(c)
	if caller.CompanyID == 0 {
		return writeErr(c, h.Log, apperr.ErrNotFound)
	}

	p, list := h.bindProduct(ctx, req)
	if len(list) > 0 {
		return writeErr(c, h.Log, list)
	}
	p.CompanyID = caller.CompanyID

	base := utils.Slugify(p.Name)
	if base == "" {
		base = "product"
	}
	p.Slug = base
	var (
		id  uint64
		err error
	)
	for attempt := 0; attempt < 3; attempt++ {
		id, err = h.Products.Create(ctx, p)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		suffix, sErr := utils.RandomHex(3)
		if sErr != nil {
			return writeErr(c, h.Log, sErr)
		}
		p.Slug = base + "-" + suffix
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return writeErr(c, h.Log, apperr.List{apperr.SlugTaken()})
	}
	if err != nil {
		return writeErr(c, h.Log, err)
	}

	out, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, productRespOf(out))
}

// Update replaces the editable fields of an owned product.
func (h *SellerProductHandler) Update(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	existing, err := h.ownProduct(ctx, c)
	if err != nil {
		return writeErr(c, h.Log, err)
	}

	p, list := h.bindProduct(ctx, req)
	if len(list) > 0 {
		return writeErr(c, h.Log, list)
	}
	p.ID = existing.ID
	p.CompanyID = existing.CompanyID
	p.Slug = existing.Slug

	if err := h.Products.Update(ctx, p); err != nil {
		return writeErr(c, h.Log, err)
	}
	out, err := h.Products.GetByID(ctx, existing.ID)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, productRespOf(out))
}

// Publish / Unpublish / Activate / Deactivate flip the lifecycle flags.
func (h *SellerProductHandler) Publish(c echo.Context) error   { return h.setPublished(c, true) }
func (h *SellerProductHandler) Unpublish(c echo.Context) error { return h.setPublished(c, false) }

func (h *SellerProductHandler) setPublished(c echo.Context, published bool) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.ownProduct(ctx, c)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	if published && !p.IsActive {
		return writeErr(c, h.Log, apperr.List{apperr.Invalid("is_published", "inactive product cannot publish")})
	}
	if err := h.Products.SetPublished(ctx, p.ID, published, time.Now().UTC()); err != nil {
		return writeErr(c, h.Log, err)
	}
	out, err := h.Products.GetByID(ctx, p.ID)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, productRespOf(out))
}

func (h *SellerProductHandler) Activate(c echo.Context) error   { return h.setActive(c, true) }
func (h *SellerProductHandler) Deactivate(c echo.Context) error { return h.setActive(c, false) }

func (h *SellerProductHandler) setActive(c echo.Context, active bool) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.ownProduct(ctx, c)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	if err := h.Products.SetActive(ctx, p.ID, active); err != nil {
		return writeErr(c, h.Log, err)
	}
	if !active {
		// Deactivation also hides: force unpublish so reactivation needs an
		// explicit publish.
		if err := h.Products.SetPublished(ctx, p.ID, false, time.Now().UTC()); err != nil {
			return writeErr(c, h.Log, err)
		}
	}
	out, err := h.Products.GetByID(ctx, p.ID)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, productRespOf(out))
}

// Delete hard-deletes an owned product and its set rows.
func (h *SellerProductHandler) Delete(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.ownProduct(ctx, c)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	if err := h.Products.Delete(ctx, p.ID); err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ownProduct resolves :id and checks ownership, masking foreign products as
// not found.
func (h *SellerProductHandler) ownProduct(ctx context.Context, c echo.Context) (model.Product, error) {
	id, err := utils.DecodeID(KindProduct, c.Param("id"))
	if err != nil {
		return model.Product{}, apperr.ErrNotFound
	}
	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	caller := middleware.CallerFrom(c)
	if !caller.IsStaff() && !caller.Owns(p.CompanyID) {
		return model.Product{}, apperr.ErrNotFound
	}
	return p, nil
}
