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

// StaffHandler is the moderation surface: role transitions, company
// lifecycle overrides, posts and port-deal reopening. Routes mounting it
// already require STAFF or SUPERUSER.
type StaffHandler struct {
	Users     *repository.UserRepo
	Tokens    *repository.TokenRepo
	Companies *repository.CompanyRepo
	Deals     *repository.PortDealRepo
	Posts     *repository.PostRepo
	Log       *zap.Logger
}

func NewStaffHandler(u *repository.UserRepo, t *repository.TokenRepo, co *repository.CompanyRepo,
	d *repository.PortDealRepo, p *repository.PostRepo, log *zap.Logger) *StaffHandler {
	return &StaffHandler{Users: u, Tokens: t, Companies: co, Deals: d, Posts: p, Log: log}
}

// SetUserRole moves a user between BUYER and SELLER. Promoting to STAFF or
// SUPERUSER requires a superuser caller. Every change revokes the target's
// refresh tokens so the old role cannot outlive its sessions.
func (h *StaffHandler) SetUserRole(c echo.Context) error {
	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	switch role {
	case model.RoleBuyer, model.RoleSeller:
	case model.RoleStaff, model.RoleSuperuser:
		if caller := middleware.CallerFrom(c); caller.Role != model.RoleSuperuser {
			return notFound(c)
		}
	default:
		return writeErr(c, h.Log, apperr.List{apperr.Invalid("role", "unknown role")})
	}

	id, err := utils.DecodeID(KindUser, c.Param("id"))
	if err != nil {
		return notFound(c)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Users.SetRole(ctx, id, role); err != nil {
		return writeErr(c, h.Log, err)
	}
	_ = h.Tokens.RevokeAllForUser(ctx, id)

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": userPartOf(u.ID, u.Email, u.Role)})
}

// ----- company moderation -----

func (h *StaffHandler) companyByParam(c echo.Context) (uint64, error) {
	id, err := utils.DecodeID(KindCompany, c.Param("id"))
	if err != nil {
		return 0, apperr.ErrNotFound
	}
	return id, nil
}

// VerifyCompany stamps the trusted badge.
func (h *StaffHandler) VerifyCompany(c echo.Context) error {
	return h.companyFlag(c, func(ctx context.Context, id uint64) error {
		_, err := h.Companies.DB.ExecContext(ctx, "UPDATE companies SET verified=1 WHERE id=?", id)
		return err
	})
}

// ActivateCompany lifts a deactivation; the mangled slug stays, publication
// remains off until the owner republishes.
func (h *StaffHandler) ActivateCompany(c echo.Context) error {
	return h.companyFlag(c, h.Companies.Activate)
}

// DeactivateCompany bans a company: slug gets the deactivated suffix and
// publication is forced off.
func (h *StaffHandler) DeactivateCompany(c echo.Context) error {
	return h.companyFlag(c, h.Companies.Deactivate)
}

// DeleteCompany removes the company and everything under it.
func (h *StaffHandler) DeleteCompany(c echo.Context) error {
	id, err := h.companyByParam(c)
	if err != nil {
		return notFound(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Companies.Delete(ctx, id); err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *StaffHandler) companyFlag(c echo.Context, op func(context.Context, uint64) error) error {
	id, err := h.companyByParam(c)
	if err != nil {
		return notFound(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := op(ctx, id); err != nil {
		return writeErr(c, h.Log, err)
	}
	co, err := h.Companies.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, companyRespOf(co))
}

// ----- port deals -----

// ReopenPortDeal clears the expired flag and extends the window. Staff
// only; sellers create a new deal instead.
func (h *StaffHandler) ReopenPortDeal(c echo.Context) error {
	var req struct {
		EndAt time.Time `json:"end_at"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	now := time.Now().UTC()
	if !req.EndAt.After(now) {
		return writeErr(c, h.Log, apperr.List{apperr.Invalid("end_at", "must be in the future")})
	}
	id, err := utils.DecodeID(KindPortDeal, c.Param("id"))
	if err != nil {
		return notFound(c)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Deals.Reopen(ctx, id, req.EndAt.UTC()); err != nil {
		return writeErr(c, h.Log, err)
	}
	d, err := h.Deals.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, portDealRespOf(d, now))
}

// ----- posts -----

type postReq struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Audience string `json:"audience"`
}

// CreatePost adds an unpublished blog or news entry.
func (h *StaffHandler) CreatePost(c echo.Context) error {
	var req postReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	var list apperr.List
	kind := strings.ToUpper(strings.TrimSpace(req.Kind))
	if kind != model.PostBlog && kind != model.PostNews {
		list = append(list, apperr.Invalid("kind", "must be BLOG or NEWS"))
	}
	audience := strings.ToUpper(strings.TrimSpace(req.Audience))
	switch audience {
	case model.AudiencePublic, model.AudiencePlatform, model.AudienceStaff:
	case "":
		audience = model.AudiencePublic
	default:
		list = append(list, apperr.Invalid("audience", "unknown audience"))
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		list = append(list, apperr.Required("title"))
	}
	if len(list) > 0 {
		return writeErr(c, h.Log, list)
	}

	p := model.Post{
		Kind:     kind,
		Title:    title,
		Body:     req.Body,
		Audience: audience,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	base := utils.Slugify(title)
	if base == "" {
		base = "post"
	}
	p.Slug = base
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		_, err = h.Posts.Create(ctx, p)
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

	out, err := h.Posts.GetBySlug(ctx, p.Slug)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, postRespOf(out))
}

// PublishPost / UnpublishPost flip publication; the first publish stamps
// the date.
func (h *StaffHandler) PublishPost(c echo.Context) error   { return h.setPostPublished(c, true) }
func (h *StaffHandler) UnpublishPost(c echo.Context) error { return h.setPostPublished(c, false) }

func (h *StaffHandler) setPostPublished(c echo.Context, published bool) error {
	id, err := utils.DecodeID(KindPost, c.Param("id"))
	if err != nil {
		return notFound(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Posts.SetPublished(ctx, id, published, time.Now().UTC()); err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeletePost removes an entry permanently.
func (h *StaffHandler) DeletePost(c echo.Context) error {
	id, err := utils.DecodeID(KindPost, c.Param("id"))
	if err != nil {
		return notFound(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Posts.Delete(ctx, id); err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
