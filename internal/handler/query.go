package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
	"github.com/oguzhanyavuz/tradeport/internal/chat"
	"github.com/oguzhanyavuz/tradeport/internal/middleware"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
	"github.com/oguzhanyavuz/tradeport/internal/utils"
)

// QueryHandler terminates the buyer/seller query flow over REST; live
// delivery is the chat websocket.
type QueryHandler struct {
	Chat      *chat.Service
	Queries   *repository.QueryRepo
	Products  *repository.ProductRepo
	Companies *repository.CompanyRepo
	Log       *zap.Logger
}

func NewQueryHandler(cs *chat.Service, q *repository.QueryRepo, p *repository.ProductRepo,
	co *repository.CompanyRepo, log *zap.Logger) *QueryHandler {
	return &QueryHandler{Chat: cs, Queries: q, Products: p, Companies: co, Log: log}
}

type threadResp struct {
	ID        string    `json:"id"`
	RoomToken string    `json:"room_token"`
	CompanyID string    `json:"company_id"`
	BuyerID   string    `json:"buyer_id"`
	CreatedAt time.Time `json:"created_at"`
}

func threadRespOf(t model.QueryThread) threadResp {
	return threadResp{
		ID:        utils.EncodeID(KindThread, t.ID),
		RoomToken: t.RoomToken,
		CompanyID: utils.EncodeID(KindCompany, t.SellerCompanyID),
		BuyerID:   utils.EncodeID(KindUser, t.BuyerUserID),
		CreatedAt: t.CreatedAt,
	}
}

type queryItemReq struct {
	ProductID string `json:"product_id"`
	OfferID   string `json:"offer_id"`
	Quantity  uint32 `json:"quantity"`
	Message   string `json:"message"`
	Country   string `json:"country"`
}

type queryItemResp struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	OfferID      string    `json:"offer_id,omitempty"`
	Name         string    `json:"name"`
	Quantity     uint32    `json:"quantity"`
	Message      string    `json:"message,omitempty"`
	Country      string    `json:"country,omitempty"`
	SellerClosed bool      `json:"seller_closed"`
	BuyerClosed  bool      `json:"buyer_closed"`
	CreatedAt    time.Time `json:"created_at"`
}

func queryItemRespOf(it model.QueryItem) queryItemResp {
	r := queryItemResp{
		ID:           utils.EncodeID("QueryItem", it.ID),
		ProductID:    utils.EncodeID(KindProduct, it.ProductID),
		Name:         it.Name,
		Quantity:     it.Quantity,
		Message:      it.Message,
		Country:      it.Country,
		SellerClosed: it.SellerClosed,
		BuyerClosed:  it.BuyerClosed,
		CreatedAt:    it.CreatedAt,
	}
	if it.OfferID.Valid {
		r.OfferID = utils.EncodeID(KindOffer, uint64(it.OfferID.Int64))
	}
	return r
}

// Open starts (or returns) the thread between the caller and a company, and
// optionally attaches the first item in the same call.
func (h *QueryHandler) Open(c echo.Context) error {
	var req struct {
		CompanyID string        `json:"company_id"`
		Item      *queryItemReq `json:"item"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	companyID, err := utils.DecodeID(KindCompany, req.CompanyID)
	if err != nil {
		return writeErr(c, h.Log, apperr.List{apperr.Invalid("company_id", "malformed id")})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	// The target company must be visible to the caller.
	caller := middleware.CallerFrom(c)
	co, err := h.Companies.GetByID(ctx, companyID)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	if !co.IsActive || (!co.IsPublished && !caller.IsStaff()) {
		return notFound(c)
	}
	if co.OwnerUserID == caller.UserID {
		return writeErr(c, h.Log, apperr.List{apperr.Invalid("company_id", "cannot query own company")})
	}

	t, err := h.Chat.Open(ctx, caller.UserID, companyID)
	if err != nil {
		return writeErr(c, h.Log, err)
	}

	if req.Item != nil {
		if _, err := h.addItem(ctx, t, *req.Item); err != nil {
			return writeErr(c, h.Log, err)
		}
	}
	return c.JSON(http.StatusOK, threadRespOf(t))
}

// AddItem attaches another product inquiry to an existing thread.
func (h *QueryHandler) AddItem(c echo.Context) error {
	var req queryItemReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Chat.Authorize(ctx, c.Param("room_token"), callerID(c))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	it, err := h.addItem(ctx, t, req)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, queryItemRespOf(it))
}

func (h *QueryHandler) addItem(ctx context.Context, t model.QueryThread, req queryItemReq) (model.QueryItem, error) {
	productID, err := utils.DecodeID(KindProduct, req.ProductID)
	if err != nil {
		return model.QueryItem{}, apperr.List{apperr.Invalid("product_id", "malformed id")}
	}
	p, err := h.Products.GetByID(ctx, productID)
	if err != nil {
		return model.QueryItem{}, err
	}
	if p.CompanyID != t.SellerCompanyID {
		return model.QueryItem{}, apperr.List{apperr.Invalid("product_id", "product belongs to another company")}
	}
	if req.Quantity == 0 {
		return model.QueryItem{}, apperr.List{apperr.Invalid("quantity", "must be positive")}
	}

	it := model.QueryItem{
		ThreadID:  t.ID,
		ProductID: productID,
		Name:      p.Name,
		Quantity:  req.Quantity,
		Message:   strings.TrimSpace(req.Message),
		Country:   strings.ToUpper(strings.TrimSpace(req.Country)),
	}
	if req.OfferID != "" {
		offerID, oErr := utils.DecodeID(KindOffer, req.OfferID)
		if oErr != nil {
			return model.QueryItem{}, apperr.List{apperr.Invalid("offer_id", "malformed id")}
		}
		it.OfferID = sql.NullInt64{Int64: int64(offerID), Valid: true}
	}

	id, err := h.Queries.AddItem(ctx, it)
	if err != nil {
		return model.QueryItem{}, err
	}
	it.ID = id
	return it, nil
}

// Threads lists the caller's threads: the buyer side of their own queries,
// or the company side for sellers.
func (h *QueryHandler) Threads(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	caller := middleware.CallerFrom(c)
	var (
		threads []model.QueryThread
		err     error
	)
	if caller.CompanyID != 0 {
		threads, err = h.Queries.ListThreadsForCompany(ctx, caller.CompanyID)
	} else {
		threads, err = h.Queries.ListThreadsForBuyer(ctx, caller.UserID)
	}
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	out := make([]threadResp, 0, len(threads))
	for _, t := range threads {
		out = append(out, threadRespOf(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"threads": out})
}

// Items lists a thread's product inquiries.
func (h *QueryHandler) Items(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Chat.Authorize(ctx, c.Param("room_token"), callerID(c))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	items, err := h.Queries.ListItems(ctx, t.ID)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	out := make([]queryItemResp, 0, len(items))
	for _, it := range items {
		out = append(out, queryItemRespOf(it))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// History returns messages after since_id for polling clients; the socket
// remains the live path.
func (h *QueryHandler) History(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Chat.Authorize(ctx, c.Param("room_token"), callerID(c))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	sinceID := uint64(0)
	if raw := c.QueryParam("since_id"); raw != "" {
		if v, pErr := utils.DecodeID("ChatMessage", raw); pErr == nil {
			sinceID = v
		}
	}
	msgs, err := h.Chat.History(ctx, t.ID, sinceID)
	if err != nil {
		return writeErr(c, h.Log, err)
	}

	type messageResp struct {
		ID        string    `json:"id"`
		AuthorID  string    `json:"author_id"`
		Text      string    `json:"text,omitempty"`
		Attach    string    `json:"attachment,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]messageResp, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResp{
			ID:        utils.EncodeID("ChatMessage", m.ID),
			AuthorID:  utils.EncodeID(KindUser, m.AuthorUserID),
			Text:      m.Text,
			Attach:    m.Attachment,
			CreatedAt: m.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out})
}

// Send posts one message over REST; it is persisted and broadcast exactly
// like a socket frame.
func (h *QueryHandler) Send(c echo.Context) error {
	var req struct {
		Text       string `json:"text"`
		Attachment string `json:"attachment"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Text) == "" && req.Attachment == "" {
		return writeErr(c, h.Log, apperr.List{apperr.Required("text")})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Chat.Authorize(ctx, c.Param("room_token"), callerID(c))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	m, err := h.Chat.Send(ctx, t, callerID(c), req.Text, req.Attachment)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":         utils.EncodeID("ChatMessage", m.ID),
		"created_at": m.CreatedAt,
	})
}

// Close marks the caller's side of the thread closed.
func (h *QueryHandler) Close(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Chat.Authorize(ctx, c.Param("room_token"), callerID(c))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	if err := h.Chat.CloseSide(ctx, t, callerID(c)); err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
