package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
	"github.com/oguzhanyavuz/tradeport/internal/throttle"
	"github.com/oguzhanyavuz/tradeport/internal/utils"
)

// ContactHandler terminates the contact form and its staff console.
type ContactHandler struct {
	Throttle *throttle.Service
	Contacts *repository.ContactRepo
	Log      *zap.Logger
}

func NewContactHandler(t *throttle.Service, repo *repository.ContactRepo, log *zap.Logger) *ContactHandler {
	return &ContactHandler{Throttle: t, Contacts: repo, Log: log}
}

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Country string `json:"country"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Type    string `json:"type"`
}

type contactResp struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Country     string `json:"country,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Body        string `json:"body"`
	Type        string `json:"type,omitempty"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
}

func contactRespOf(m model.Contact) contactResp {
	return contactResp{
		ID:          utils.EncodeID(KindContact, m.ID),
		Name:        m.Name,
		Email:       m.Email,
		Country:     m.Country,
		Subject:     m.Subject,
		Body:        m.Body,
		Type:        m.Type,
		Status:      m.Status,
		SubmittedAt: m.SubmittedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// Submit accepts a contact message, guests included. The throttle may
// reject with TOO_MANY_MESSAGES.
func (h *ContactHandler) Submit(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	var list apperr.List
	if strings.TrimSpace(req.Email) == "" {
		list = append(list, apperr.Required("email"))
	} else if !strings.Contains(req.Email, "@") {
		list = append(list, apperr.Invalid("email", "not an email address"))
	}
	if strings.TrimSpace(req.Body) == "" {
		list = append(list, apperr.Required("body"))
	}
	if len(list) > 0 {
		return writeErr(c, h.Log, list)
	}

	m := model.Contact{
		Name:    strings.TrimSpace(req.Name),
		Email:   req.Email,
		Country: strings.ToUpper(strings.TrimSpace(req.Country)),
		Subject: strings.TrimSpace(req.Subject),
		Body:    req.Body,
		Type:    strings.TrimSpace(req.Type),
	}
	if uid := callerID(c); uid != 0 {
		m.FromUserID = sql.NullInt64{Int64: int64(uid), Valid: true}
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	id, err := h.Throttle.Submit(ctx, m)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	out, err := h.Contacts.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, contactRespOf(out))
}

// Mine lists the signed-in user's own messages.
func (h *ContactHandler) Mine(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	msgs, err := h.Contacts.ListByUser(ctx, callerID(c))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	out := make([]contactResp, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, contactRespOf(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"contacts": out})
}

// ListAll is the staff inbox.
func (h *ContactHandler) ListAll(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	msgs, err := h.Contacts.ListAll(ctx)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	out := make([]contactResp, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, contactRespOf(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"contacts": out})
}

// SetStatus moves a message between NEW/ONGOING/DONE/SPAM. Staff only.
func (h *ContactHandler) SetStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !model.ValidContactStatus(status) {
		return writeErr(c, h.Log, apperr.List{apperr.Invalid("status", "unknown status")})
	}
	id, err := utils.DecodeID(KindContact, c.Param("id"))
	if err != nil {
		return notFound(c)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Contacts.SetStatus(ctx, id, status); err != nil {
		return writeErr(c, h.Log, err)
	}
	out, err := h.Contacts.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, contactRespOf(out))
}
