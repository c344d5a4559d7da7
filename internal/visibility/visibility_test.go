package visibility

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func liveCompany() model.Company {
	return model.Company{ID: 7, OwnerUserID: 3, IsActive: true, IsPublished: true}
}

func TestCompanyVisibility(t *testing.T) {
	co := liveCompany()

	if !Company(Anonymous, co, now) {
		t.Fatal("active published company should be visible to anonymous")
	}

	co.IsPublished = false
	if Company(Anonymous, co, now) {
		t.Fatal("unpublished company visible to anonymous")
	}
	if Company(Caller{UserID: 9, Role: model.RoleBuyer}, co, now) {
		t.Fatal("unpublished company visible to buyer")
	}
	if !Company(Caller{UserID: 3, Role: model.RoleSeller, CompanyID: 7}, co, now) {
		t.Fatal("owner should always see own company")
	}
	if !Company(Caller{UserID: 1, Role: model.RoleStaff}, co, now) {
		t.Fatal("staff should see unpublished company")
	}

	co.IsPublished = true
	co.IsActive = false
	if Company(Anonymous, co, now) {
		t.Fatal("inactive company visible to anonymous")
	}
}

func TestCompanyFuturePublicationDate(t *testing.T) {
	co := liveCompany()
	co.PublicationDate = sql.NullTime{Time: now.Add(time.Hour), Valid: true}

	if Company(Anonymous, co, now) {
		t.Fatal("future publication date should hide the company")
	}
	if !Company(Anonymous, co, now.Add(2*time.Hour)) {
		t.Fatal("company should appear once the date passes")
	}
	if !Company(Caller{Role: model.RoleStaff}, co, now) {
		t.Fatal("staff should see ahead of the publication date")
	}
}

func TestProductRequiresVisibleCompany(t *testing.T) {
	co := liveCompany()
	p := model.Product{ID: 11, CompanyID: co.ID, IsActive: true, IsPublished: true}

	if !Product(Anonymous, p, co, now) {
		t.Fatal("live product under live company should be visible")
	}

	co.IsPublished = false
	if Product(Anonymous, p, co, now) {
		t.Fatal("product should hide when its company is hidden")
	}
	if !Product(Caller{UserID: 3, Role: model.RoleSeller, CompanyID: 7}, p, co, now) {
		t.Fatal("owner should see products under a hidden company")
	}
}

func TestProductOwnGate(t *testing.T) {
	co := liveCompany()
	p := model.Product{ID: 11, CompanyID: co.ID, IsActive: true, IsPublished: false}

	if Product(Anonymous, p, co, now) {
		t.Fatal("unpublished product visible to anonymous")
	}
	p.IsPublished = true
	p.IsActive = false
	if Product(Caller{Role: model.RoleBuyer, UserID: 2}, p, co, now) {
		t.Fatal("inactive product visible to buyer")
	}
}

func TestOfferWindow(t *testing.T) {
	co := liveCompany()
	o := model.Offer{
		ID: 4, CompanyID: co.ID, IsActive: true,
		StartAt: now.Add(-time.Hour), EndAt: now.Add(time.Hour),
	}

	if !Offer(Anonymous, o, co, now) {
		t.Fatal("offer inside its window should be visible")
	}
	if Offer(Anonymous, o, co, now.Add(2*time.Hour)) {
		t.Fatal("expired offer visible to anonymous")
	}
	if Offer(Anonymous, o, co, now.Add(-2*time.Hour)) {
		t.Fatal("offer visible before its start")
	}
	if !Offer(Caller{UserID: 3, Role: model.RoleSeller, CompanyID: co.ID}, o, co, now.Add(2*time.Hour)) {
		t.Fatal("owner should still see an expired offer")
	}
}

func TestPortDealExpiry(t *testing.T) {
	co := liveCompany()
	d := model.PortDeal{
		ID: 5, CompanyID: co.ID, IsActive: true,
		EndAt: now.Add(24 * time.Hour),
	}

	if !PortDeal(Anonymous, d, co, now) {
		t.Fatal("live deal should be visible")
	}

	// Swept deal.
	d.IsExpired = true
	if PortDeal(Anonymous, d, co, now) {
		t.Fatal("expired flag should hide the deal")
	}

	// Not yet swept, but past end_at.
	d.IsExpired = false
	d.EndAt = now.Add(-time.Minute)
	if PortDeal(Anonymous, d, co, now) {
		t.Fatal("deal past end_at should hide before the sweep runs")
	}
}

func TestPostAudience(t *testing.T) {
	p := model.Post{ID: 1, Kind: model.PostBlog, IsPublished: true, Audience: model.AudiencePublic}

	if !Post(Anonymous, p, now) {
		t.Fatal("public post should be visible to anonymous")
	}

	p.Audience = model.AudiencePlatform
	if Post(Anonymous, p, now) {
		t.Fatal("platform post visible to anonymous")
	}
	if !Post(Caller{UserID: 2, Role: model.RoleBuyer}, p, now) {
		t.Fatal("platform post should be visible to any signed-in user")
	}

	p.Audience = model.AudienceStaff
	if Post(Caller{UserID: 2, Role: model.RoleBuyer}, p, now) {
		t.Fatal("staff post visible to buyer")
	}
	if !Post(Caller{Role: model.RoleStaff}, p, now) {
		t.Fatal("staff post hidden from staff")
	}

	p.IsPublished = false
	if Post(Caller{Role: model.RoleStaff}, p, now) {
		t.Fatal("unpublished post visible to staff")
	}
	if !Post(Caller{Role: model.RoleSuperuser}, p, now) {
		t.Fatal("superuser should bypass the published gate")
	}
}

func TestCompanyWhereShapes(t *testing.T) {
	cond, args := CompanyWhere(Caller{Role: model.RoleStaff}, "co", now)
	if cond != "1=1" || args != nil {
		t.Fatalf("staff should get a pass-through condition, got %q", cond)
	}

	cond, args = CompanyWhere(Anonymous, "co", now)
	if !strings.Contains(cond, "co.is_active=1") || !strings.Contains(cond, "co.is_published=1") {
		t.Fatalf("anonymous condition missing gates: %q", cond)
	}
	if len(args) != 1 {
		t.Fatalf("anonymous condition wants 1 arg, got %d", len(args))
	}

	cond, args = CompanyWhere(Caller{UserID: 3, Role: model.RoleSeller, CompanyID: 7}, "co", now)
	if !strings.Contains(cond, "co.id=?") {
		t.Fatalf("seller condition should carry the own-company escape: %q", cond)
	}
	if len(args) != 2 || args[1] != uint64(7) {
		t.Fatalf("seller condition args = %v", args)
	}
}

func TestOfferWhereWindowArgs(t *testing.T) {
	cond, args := OfferWhere(Anonymous, "o", "co", now)
	if !strings.Contains(cond, "o.start_at<=?") || !strings.Contains(cond, "o.end_at>=?") {
		t.Fatalf("offer condition missing window: %q", cond)
	}
	// start, end, company publication date
	if len(args) != 3 {
		t.Fatalf("offer condition wants 3 args, got %d", len(args))
	}
}

func TestPostWhereAudienceNarrowing(t *testing.T) {
	cond, _ := PostWhere(Caller{Role: model.RoleSuperuser}, "p", now)
	if cond != "1=1" {
		t.Fatalf("superuser should get a pass-through condition, got %q", cond)
	}

	cond, args := PostWhere(Anonymous, "p", now)
	if !strings.Contains(cond, "p.audience=?") {
		t.Fatalf("anonymous condition should pin the audience: %q", cond)
	}
	if args[len(args)-1] != model.AudiencePublic {
		t.Fatalf("anonymous audience arg = %v", args[len(args)-1])
	}

	cond, args = PostWhere(Caller{UserID: 2, Role: model.RoleBuyer}, "p", now)
	if !strings.Contains(cond, "p.audience IN (?,?)") {
		t.Fatalf("signed-in condition should widen the audience: %q", cond)
	}
	if len(args) != 3 {
		t.Fatalf("signed-in condition wants 3 args, got %d", len(args))
	}
}
