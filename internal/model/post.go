package model

import (
	"database/sql"
	"time"
)

// Post kinds. Blogs and news share one table and differ only in kind.
const (
	PostBlog = "BLOG"
	PostNews = "NEWS"
)

// Post audiences, from widest to narrowest. A buyer sees PUBLIC and
// PLATFORM, staff additionally STAFF, superusers everything.
const (
	AudiencePublic   = "PUBLIC"
	AudiencePlatform = "PLATFORM"
	AudienceStaff    = "STAFF"
)

// Post mirrors the 'posts' table.
type Post struct {
	ID              uint64       // posts.id
	Kind            string       // posts.kind (BLOG | NEWS)
	Slug            string       // posts.slug (unique)
	Title           string       // posts.title
	Body            string       // posts.body
	Audience        string       // posts.audience
	IsPublished     bool         // posts.is_published
	PublicationDate sql.NullTime // posts.publication_date
	CreatedAt       time.Time    // posts.created_at
	UpdatedAt       time.Time    // posts.updated_at
}
