package model

import (
	"database/sql"
	"time"
)

// Company represents a seller profile. Each seller user owns at most one
// company (unique owner_user_id); products, offers and port deals hang off it.
//
// Lifecycle: created active+unpublished; Publish stamps publication_date when
// absent; Deactivate appends "-deactivated-<random>" to the slug and forces
// is_published back to false; delete is a hard delete cascading to products.
type Company struct {
	ID              uint64        // companies.id
	OwnerUserID     uint64        // companies.owner_user_id (unique)
	Slug            string        // companies.slug (unique, URL-safe)
	Name            string        // companies.name (unique)
	Website         string        // companies.website
	Content         string        // companies.content (profile body)
	AddressID       sql.NullInt64 // companies.address_id
	IsActive        bool          // companies.is_active
	IsPublished     bool          // companies.is_published
	PublicationDate sql.NullTime  // companies.publication_date
	Verified        bool          // companies.verified
	CreatedAt       time.Time     // companies.created_at
	UpdatedAt       time.Time     // companies.updated_at
}
