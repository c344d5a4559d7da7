// Package visibility is the single source of truth for who may observe
// which entity. Every listing path pushes the same rules down to SQL via
// the *Where helpers so the filters stay index-friendly; point reads apply
// the in-memory predicates after loading the row.
package visibility

import (
	"time"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

// Caller identifies the requesting principal. The zero value is the
// anonymous caller. CompanyID is the company owned by a seller caller, 0
// otherwise.
type Caller struct {
	UserID    uint64
	Role      string
	CompanyID uint64
}

// Anonymous is the unauthenticated caller.
var Anonymous = Caller{Role: model.RoleAnonymous}

// IsStaff reports whether the caller moderates content.
func (c Caller) IsStaff() bool {
	return c.Role == model.RoleStaff || c.Role == model.RoleSuperuser
}

// Owns reports whether the caller is the seller-owner of the given company.
func (c Caller) Owns(companyID uint64) bool {
	return c.Role == model.RoleSeller && c.CompanyID != 0 && c.CompanyID == companyID
}

// publishedAt applies the publication-date gate: a future publication_date
// means "not yet published" for non-staff callers.
func publishedAt(isPublished bool, pubDate *time.Time, now time.Time) bool {
	if !isPublished {
		return false
	}
	if pubDate != nil && pubDate.After(now) {
		return false
	}
	return true
}

// Company: anonymous and buyers see active+published companies; the owner
// always sees their own; staff and superusers see everything.
func Company(c Caller, co model.Company, now time.Time) bool {
	if c.IsStaff() || c.Owns(co.ID) {
		return true
	}
	var pd *time.Time
	if co.PublicationDate.Valid {
		pd = &co.PublicationDate.Time
	}
	return co.IsActive && publishedAt(co.IsPublished, pd, now)
}

// Product: visible when its company is visible and the product itself is
// active+published, owner and staff excepted.
func Product(c Caller, p model.Product, co model.Company, now time.Time) bool {
	if c.IsStaff() || c.Owns(co.ID) {
		return true
	}
	if !Company(c, co, now) {
		return false
	}
	var pd *time.Time
	if p.PublicationDate.Valid {
		pd = &p.PublicationDate.Time
	}
	return p.IsActive && publishedAt(p.IsPublished, pd, now)
}

// Offer: company rules plus the time window. An expired offer is invisible
// to non-privileged callers even while is_active remains true.
func Offer(c Caller, o model.Offer, co model.Company, now time.Time) bool {
	if c.IsStaff() || c.Owns(co.ID) {
		return true
	}
	if !Company(c, co, now) {
		return false
	}
	return o.IsActive && !o.StartAt.After(now) && !o.EndAt.Before(now)
}

// PortDeal: company rules plus the materialized expiry flag. Reads also
// check end_at so a deal the scheduler has not swept yet stays hidden.
func PortDeal(c Caller, d model.PortDeal, co model.Company, now time.Time) bool {
	if c.IsStaff() || c.Owns(co.ID) {
		return true
	}
	if !Company(c, co, now) {
		return false
	}
	return d.IsActive && !d.IsExpired && !d.EndAt.Before(now)
}

// Post: audience widens with the caller's role. Superusers bypass the
// published check as well.
func Post(c Caller, p model.Post, now time.Time) bool {
	if c.Role == model.RoleSuperuser {
		return true
	}
	var pd *time.Time
	if p.PublicationDate.Valid {
		pd = &p.PublicationDate.Time
	}
	if !publishedAt(p.IsPublished, pd, now) {
		return false
	}
	switch p.Audience {
	case model.AudiencePublic:
		return true
	case model.AudiencePlatform:
		return c.Role != model.RoleAnonymous
	case model.AudienceStaff:
		return c.Role == model.RoleStaff
	}
	return false
}

// --- SQL push-down fragments -------------------------------------------
//
// Each helper returns a WHERE fragment (no leading AND) and its args. The
// alias is the table alias used in the enclosing query. Timestamps are
// compared in the database's UTC clock so list results and the in-memory
// predicates agree.

// CompanyWhere restricts a query over companies aliased by alias.
func CompanyWhere(c Caller, alias string, now time.Time) (string, []any) {
	if c.IsStaff() {
		return "1=1", nil
	}
	base := alias + ".is_active=1 AND " + alias + ".is_published=1 AND (" +
		alias + ".publication_date IS NULL OR " + alias + ".publication_date<=?)"
	if c.Role == model.RoleSeller && c.CompanyID != 0 {
		return "(" + base + " OR " + alias + ".id=?)", []any{now, c.CompanyID}
	}
	return base, []any{now}
}

// ProductWhere restricts products aliased p joined to companies aliased co.
func ProductWhere(c Caller, p, co string, now time.Time) (string, []any) {
	if c.IsStaff() {
		return "1=1", nil
	}
	compCond, compArgs := CompanyWhere(c, co, now)
	base := p + ".is_active=1 AND " + p + ".is_published=1 AND (" +
		p + ".publication_date IS NULL OR " + p + ".publication_date<=?) AND " + compCond
	args := append([]any{now}, compArgs...)
	if c.Role == model.RoleSeller && c.CompanyID != 0 {
		return "(" + base + " OR " + p + ".company_id=?)", append(args, c.CompanyID)
	}
	return base, args
}

// OfferWhere restricts offers aliased o joined to companies aliased co.
func OfferWhere(c Caller, o, co string, now time.Time) (string, []any) {
	if c.IsStaff() {
		return "1=1", nil
	}
	compCond, compArgs := CompanyWhere(c, co, now)
	base := o + ".is_active=1 AND " + o + ".start_at<=? AND " + o + ".end_at>=? AND " + compCond
	args := append([]any{now, now}, compArgs...)
	if c.Role == model.RoleSeller && c.CompanyID != 0 {
		return "(" + base + " OR " + o + ".company_id=?)", append(args, c.CompanyID)
	}
	return base, args
}

// PortDealWhere restricts port deals aliased d joined to companies co.
func PortDealWhere(c Caller, d, co string, now time.Time) (string, []any) {
	if c.IsStaff() {
		return "1=1", nil
	}
	compCond, compArgs := CompanyWhere(c, co, now)
	base := d + ".is_active=1 AND " + d + ".is_expired=0 AND " + d + ".end_at>=? AND " + compCond
	args := append([]any{now}, compArgs...)
	if c.Role == model.RoleSeller && c.CompanyID != 0 {
		return "(" + base + " OR " + d + ".company_id=?)", append(args, c.CompanyID)
	}
	return base, args
}

// PostWhere restricts posts aliased by alias.
func PostWhere(c Caller, alias string, now time.Time) (string, []any) {
	if c.Role == model.RoleSuperuser {
		return "1=1", nil
	}
	base := alias + ".is_published=1 AND (" +
		alias + ".publication_date IS NULL OR " + alias + ".publication_date<=?)"
	args := []any{now}
	switch {
	case c.Role == model.RoleStaff:
		// all three audiences
		return base, args
	case c.Role == model.RoleAnonymous:
		return base + " AND " + alias + ".audience=?", append(args, model.AudiencePublic)
	default:
		return base + " AND " + alias + ".audience IN (?,?)",
			append(args, model.AudiencePublic, model.AudiencePlatform)
	}
}
