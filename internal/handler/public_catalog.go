package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/catalog"
	"github.com/oguzhanyavuz/tradeport/internal/currency"
	"github.com/oguzhanyavuz/tradeport/internal/middleware"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
	"github.com/oguzhanyavuz/tradeport/internal/utils"
	"github.com/oguzhanyavuz/tradeport/internal/visibility"
)

// PublicCatalogHandler serves the read-side listings and detail lookups.
// Every query is filtered by the caller's visibility before paging, so
// anonymous, buyer, owner and staff callers can share these routes.
type PublicCatalogHandler struct {
	Products   *repository.ProductRepo
	Companies  *repository.CompanyRepo
	Categories *repository.CategoryRepo
	Offers     *repository.OfferRepo
	Deals      *repository.PortDealRepo
	Posts      *repository.PostRepo
	Rates      *currency.Service
	Log        *zap.Logger
}

func NewPublicCatalogHandler(p *repository.ProductRepo, co *repository.CompanyRepo,
	cat *repository.CategoryRepo, o *repository.OfferRepo, d *repository.PortDealRepo,
	posts *repository.PostRepo, rates *currency.Service, log *zap.Logger) *PublicCatalogHandler {
	return &PublicCatalogHandler{
		Products: p, Companies: co, Categories: cat,
		Offers: o, Deals: d, Posts: posts, Rates: rates, Log: log,
	}
}

// ----- query parsing -----

func pageFrom(c echo.Context) (catalog.Page, error) {
	var p catalog.Page
	if raw := c.QueryParam("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, errBadQuery
		}
		p.Size = n
	}
	p.Cursor = c.QueryParam("cursor")
	return p, nil
}

func sortFrom(c echo.Context) catalog.Sort {
	field := c.QueryParam("sort")
	desc := false
	if strings.HasPrefix(field, "-") {
		desc = true
		field = field[1:]
	}
	return catalog.Sort{Field: field, Desc: desc}
}

var errBadQuery = echo.NewHTTPError(http.StatusBadRequest, "invalid query")

func boolParam(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errBadQuery
	}
	return &v, nil
}

func timeParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errBadQuery
	}
	u := t.UTC()
	return &u, nil
}

func decimalParam(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errBadQuery
	}
	return &d, nil
}

func idsParam(c echo.Context, name, kind string) ([]uint64, error) {
	raw := c.QueryParams()[name]
	var out []uint64
	for _, chunk := range raw {
		for _, s := range strings.Split(chunk, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := utils.DecodeID(kind, s)
			if err != nil {
				return nil, errBadQuery
			}
			out = append(out, id)
		}
	}
	return out, nil
}

// ----- products -----

func (h *PublicCatalogHandler) productFilter(c echo.Context) (catalog.ProductFilter, error) {
	var (
		f   catalog.ProductFilter
		err error
	)
	if f.Active, err = boolParam(c, "active"); err != nil {
		return f, err
	}
	if f.Published, err = boolParam(c, "published"); err != nil {
		return f, err
	}
	if f.CreatedFrom, err = timeParam(c, "created_from"); err != nil {
		return f, err
	}
	if f.CreatedTo, err = timeParam(c, "created_to"); err != nil {
		return f, err
	}
	if f.PriceMin, err = decimalParam(c, "price_min"); err != nil {
		return f, err
	}
	if f.PriceMax, err = decimalParam(c, "price_max"); err != nil {
		return f, err
	}
	if f.Rosettes, err = idsParam(c, "rosettes", "Rosette"); err != nil {
		return f, err
	}
	if f.CertificateTypes, err = idsParam(c, "certificate_types", "CertificateType"); err != nil {
		return f, err
	}
	if f.Categories, err = idsParam(c, "categories", KindCategory); err != nil {
		return f, err
	}
	if f.Companies, err = idsParam(c, "companies", KindCompany); err != nil {
		return f, err
	}
	if raw := c.QueryParam("rating"); raw != "" {
		n, perr := strconv.ParseUint(raw, 10, 8)
		if perr != nil || n > 5 {
			return f, errBadQuery
		}
		min := uint8(n)
		f.RatingMin = &min
	}
	f.DeliveryTime = strings.TrimSpace(c.QueryParam("delivery_time_option"))
	f.Text = strings.TrimSpace(c.QueryParam("q"))
	return f, nil
}

// ListProducts pages the product catalog with filters, text search and
// cursor pagination. Category filters include descendants.
func (h *PublicCatalogHandler) ListProducts(c echo.Context) error {
	f, err := h.productFilter(c)
	if err != nil {
		return err
	}
	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if len(f.Categories) > 0 {
		if f.Categories, err = h.Categories.ExpandDescendants(ctx, f.Categories); err != nil {
			return writeErr(c, h.Log, err)
		}
	}

	caller := middleware.CallerFrom(c)
	products, next, err := h.Products.Search(ctx, caller, f, sortFrom(c), page, time.Now().UTC())
	if err != nil {
		return writeErr(c, h.Log, err)
	}

	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, h.convertPrices(c, productRespOf(p)))
	}
	return c.JSON(http.StatusOK, echo.Map{"products": out, "next_cursor": next})
}

// convertPrices annotates a product with its price in the requested display
// currency when ?currency= is present. Conversion failures leave the
// original price untouched.
func (h *PublicCatalogHandler) convertPrices(c echo.Context, r productResp) productResp {
	want := strings.ToUpper(strings.TrimSpace(c.QueryParam("currency")))
	if want == "" || want == r.Currency || h.Rates == nil {
		return r
	}
	amount, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return r
	}
	conv, err := h.Rates.Convert(c.Request().Context(), amount, r.Currency, want)
	if err != nil {
		return r
	}
	if conv.Stale {
		// Amount came back unchanged; keep it labeled in its own currency.
		r.DisplayPrice = conv.Amount.String()
		r.DisplayCurrency = r.Currency
		r.DisplayStale = true
		return r
	}
	r.DisplayPrice = conv.Amount.String()
	r.DisplayCurrency = want
	return r
}

// GetProduct serves one product by slug. Hidden products read as missing.
func (h *PublicCatalogHandler) GetProduct(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Products.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	co, err := h.Companies.GetByID(ctx, p.CompanyID)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	caller := middleware.CallerFrom(c)
	if !visibility.Product(caller, p, co, time.Now().UTC()) {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, h.convertPrices(c, productRespOf(p)))
}

// ----- companies -----

func (h *PublicCatalogHandler) companyFilter(c echo.Context) (catalog.CompanyFilter, error) {
	var (
		f   catalog.CompanyFilter
		err error
	)
	if f.Active, err = boolParam(c, "active"); err != nil {
		return f, err
	}
	if f.Published, err = boolParam(c, "published"); err != nil {
		return f, err
	}
	if f.Verified, err = boolParam(c, "verified"); err != nil {
		return f, err
	}
	if f.CreatedFrom, err = timeParam(c, "created_from"); err != nil {
		return f, err
	}
	if f.CreatedTo, err = timeParam(c, "created_to"); err != nil {
		return f, err
	}
	f.Text = strings.TrimSpace(c.QueryParam("q"))
	return f, nil
}

// ListCompanies pages the company directory.
func (h *PublicCatalogHandler) ListCompanies(c echo.Context) error {
	f, err := h.companyFilter(c)
	if err != nil {
		return err
	}
	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	caller := middleware.CallerFrom(c)
	companies, next, err := h.Companies.Search(ctx, caller, f, sortFrom(c), page, time.Now().UTC())
	if err != nil {
		return writeErr(c, h.Log, err)
	}

	out := make([]companyResp, 0, len(companies))
	for _, co := range companies {
		out = append(out, companyRespOf(co))
	}
	return c.JSON(http.StatusOK, echo.Map{"companies": out, "next_cursor": next})
}

// GetCompany serves one company by slug, with its visible offers and deals.
func (h *PublicCatalogHandler) GetCompany(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	co, err := h.Companies.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	caller := middleware.CallerFrom(c)
	now := time.Now().UTC()
	if !visibility.Company(caller, co, now) {
		return notFound(c)
	}

	offers, err := h.Offers.ListByCompany(ctx, caller, co.ID, now)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	deals, err := h.Deals.List(ctx, caller, co.ID, now)
	if err != nil {
		return writeErr(c, h.Log, err)
	}

	offerOut := make([]offerResp, 0, len(offers))
	for _, o := range offers {
		offerOut = append(offerOut, offerRespOf(o, now))
	}
	dealOut := make([]portDealResp, 0, len(deals))
	for _, d := range deals {
		dealOut = append(dealOut, portDealRespOf(d, now))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"company":    companyRespOf(co),
		"offers":     offerOut,
		"port_deals": dealOut,
	})
}

// ----- categories -----

// ListCategories returns the category tree with descendants-inclusive
// product counts.
func (h *PublicCatalogHandler) ListCategories(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	cats, err := h.Categories.ListAll(ctx)
	if err != nil {
		return writeErr(c, h.Log, err)
	}

	type categoryResp struct {
		ID           string `json:"id"`
		ParentID     string `json:"parent_id,omitempty"`
		Slug         string `json:"slug"`
		Name         string `json:"name"`
		ProductCount int64  `json:"product_count"`
	}
	out := make([]categoryResp, 0, len(cats))
	for _, cat := range cats {
		n, cErr := h.Categories.ProductCount(ctx, cat.ID)
		if cErr != nil {
			return writeErr(c, h.Log, cErr)
		}
		r := categoryResp{
			ID:           utils.EncodeID(KindCategory, cat.ID),
			Slug:         cat.Slug,
			Name:         cat.Name,
			ProductCount: n,
		}
		if cat.ParentID.Valid {
			r.ParentID = utils.EncodeID(KindCategory, uint64(cat.ParentID.Int64))
		}
		out = append(out, r)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": out})
}

// ----- port deals -----

// ListPortDeals pages visible deals across all companies.
func (h *PublicCatalogHandler) ListPortDeals(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	caller := middleware.CallerFrom(c)
	now := time.Now().UTC()
	deals, err := h.Deals.List(ctx, caller, 0, now)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	out := make([]portDealResp, 0, len(deals))
	for _, d := range deals {
		out = append(out, portDealRespOf(d, now))
	}
	return c.JSON(http.StatusOK, echo.Map{"port_deals": out})
}

// GetPortDeal serves one deal by slug.
func (h *PublicCatalogHandler) GetPortDeal(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	d, err := h.Deals.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	co, err := h.Companies.GetByID(ctx, d.CompanyID)
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	caller := middleware.CallerFrom(c)
	now := time.Now().UTC()
	if !visibility.PortDeal(caller, d, co, now) {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, portDealRespOf(d, now))
}

// ----- posts -----

type postResp struct {
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Body            string     `json:"body,omitempty"`
	Audience        string     `json:"audience"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
}

func postRespOf(p model.Post) postResp {
	r := postResp{
		ID:       utils.EncodeID(KindPost, p.ID),
		Kind:     p.Kind,
		Slug:     p.Slug,
		Title:    p.Title,
		Body:     p.Body,
		Audience: p.Audience,
	}
	if p.PublicationDate.Valid {
		t := p.PublicationDate.Time
		r.PublicationDate = &t
	}
	return r
}

// ListPosts pages blog or news entries the caller may see.
func (h *PublicCatalogHandler) ListPosts(c echo.Context) error {
	kind := strings.ToUpper(c.QueryParam("kind"))
	if kind == "" {
		kind = "BLOG"
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	caller := middleware.CallerFrom(c)
	posts, err := h.Posts.List(ctx, caller, kind, time.Now().UTC())
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	out := make([]postResp, 0, len(posts))
	for _, p := range posts {
		out = append(out, postRespOf(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": out})
}

// GetPost serves one post by slug.
func (h *PublicCatalogHandler) GetPost(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Posts.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	caller := middleware.CallerFrom(c)
	if !visibility.Post(caller, p, time.Now().UTC()) {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, postRespOf(p))
}
