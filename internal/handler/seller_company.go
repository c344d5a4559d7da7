package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
	"github.com/oguzhanyavuz/tradeport/internal/middleware"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
	"github.com/oguzhanyavuz/tradeport/internal/utils"
)

// SellerCompanyHandler manages the caller's own company profile.
type SellerCompanyHandler struct {
	Companies *repository.CompanyRepo
	Log       *zap.Logger
}

func NewSellerCompanyHandler(co *repository.CompanyRepo, log *zap.Logger) *SellerCompanyHandler {
	return &SellerCompanyHandler{Companies: co, Log: log}
}

type companyReq struct {
	Name    string `json:"name"`
	Website string `json:"website"`
	Content string `json:"content"`
}

type companyResp struct {
	ID              string     `json:"id"`
	Slug            string     `json:"slug"`
	Name            string     `json:"name"`
	Website         string     `json:"website,omitempty"`
	Content         string     `json:"content,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsPublished     bool       `json:"is_published"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	Verified        bool       `json:"verified"`
	CreatedAt       time.Time  `json:"created_at"`
}

func companyRespOf(co model.Company) companyResp {
	r := companyResp{
		ID:          utils.EncodeID(KindCompany, co.ID),
		Slug:        co.Slug,
		Name:        co.Name,
		Website:     co.Website,
		Content:     co.Content,
		IsActive:    co.IsActive,
		IsPublished: co.IsPublished,
		Verified:    co.Verified,
		CreatedAt:   co.CreatedAt,
	}
	if co.PublicationDate.Valid {
		t := co.PublicationDate.Time
		r.PublicationDate = &t
	}
	return r
}

func validateCompanyReq(req companyReq) apperr.List {
	var list apperr.List
	if strings.TrimSpace(req.Name) == "" {
		list = append(list, apperr.Required("name"))
	}
	return list
}

// createSlug inserts with a slug derived from name, retrying with a fresh
// random suffix when another row holds it. Uniqueness lives in the index;
// the retry only resolves the race.
func (h *SellerCompanyHandler) createSlug(ctx context.Context, ownerID uint64, req companyReq) (uint64, error) {
	base := utils.Slugify(req.Name)
	if base == "" {
		base = "company"
	}
	slug := base
	for attempt := 0; attempt < 3; attempt++ {
		id, err := h.Companies.Create(ctx, ownerID, slug, req.Name, req.Website, req.Content)
		if !errors.Is(err, repository.ErrDuplicate) {
			return id, err
		}
		// The name column is unique too; only retry slug collisions.
		if _, nameErr := h.Companies.GetBySlug(ctx, slug); nameErr != nil {
			return 0, repository.ErrDuplicate
		}
		suffix, sErr := utils.RandomHex(3)
		if sErr != nil {
			return 0, sErr
		}
		slug = base + "-" + suffix
	}
	return 0, repository.ErrDuplicate
}

// Create registers the caller's company, active but unpublished.
func (h *SellerCompanyHandler) Create(c echo.Context) error {
	var req companyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if list := validateCompanyReq(req); len(list) > 0 {
		return writeErr(c, h.Log, list)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	uid := callerID(c)
	if _, err := h.Companies.GetByOwner(ctx, uid); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "company already exists"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return writeErr(c, h.Log, err)
	}

	id, err := h.createSlug(ctx, uid, req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return writeErr(c, h.Log, apperr.List{apperr.Unique("name")})
		}
		return writeErr(c, h.Log, err)
	}
	co, err := h.Companies.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, companyRespOf(co))
}

// Mine returns the caller's own company regardless of publication state.
func (h *SellerCompanyHandler) Mine(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	co, err := h.Companies.GetByOwner(ctx, callerID(c))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, companyRespOf(co))
}

// Update edits name/website/content. The slug never changes after create.
func (h *SellerCompanyHandler) Update(c echo.Context) error {
	var req companyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if list := validateCompanyReq(req); len(list) > 0 {
		return writeErr(c, h.Log, list)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	co, err := h.ownCompany(ctx, c)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	if err := h.Companies.Update(ctx, co.ID, req.Name, req.Website, req.Content); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return writeErr(c, h.Log, apperr.List{apperr.Unique("name")})
		}
		return writeErr(c, h.Log, err)
	}
	co, err = h.Companies.GetByID(ctx, co.ID)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, companyRespOf(co))
}

// Publish makes the company visible; the first publish stamps the
// publication date, later ones keep it.
func (h *SellerCompanyHandler) Publish(c echo.Context) error {
	return h.setPublished(c, true)
}

// Unpublish hides the company (and with it every product) from non-owners.
func (h *SellerCompanyHandler) Unpublish(c echo.Context) error {
	return h.setPublished(c, false)
}

func (h *SellerCompanyHandler) setPublished(c echo.Context, published bool) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	co, err := h.ownCompany(ctx, c)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	if published {
		if !co.IsActive {
			return writeErr(c, h.Log, apperr.List{apperr.Invalid("is_published", "inactive company cannot publish")})
		}
		err = h.Companies.Publish(ctx, co.ID, time.Now().UTC())
	} else {
		err = h.Companies.Unpublish(ctx, co.ID)
	}
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	co, err = h.Companies.GetByID(ctx, co.ID)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, companyRespOf(co))
}

// ownCompany loads the caller's company or not-found.
func (h *SellerCompanyHandler) ownCompany(ctx context.Context, c echo.Context) (model.Company, error) {
	caller := middleware.CallerFrom(c)
	if caller.CompanyID != 0 {
		return h.Companies.GetByID(ctx, caller.CompanyID)
	}
	return h.Companies.GetByOwner(ctx, callerID(c))
}
