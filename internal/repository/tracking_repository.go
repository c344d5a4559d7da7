package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/oguzhanyavuz/tradeport/internal/catalog"
	"github.com/oguzhanyavuz/tradeport/internal/model"
)

// TrackingRepo is the append-only sink of enriched interactions, indexed by
// (type, target_id, date desc). Rows are platform-owned; only staff bulk
// deletion removes them.
type TrackingRepo struct{ DB *sql.DB }

func NewTrackingRepo(db *sql.DB) *TrackingRepo { return &TrackingRepo{DB: db} }

// Insert appends one event and returns its id.
func (r *TrackingRepo) Insert(ctx context.Context, e model.TrackingEvent) (uint64, error) {
	params, err := json.Marshal(e.Params)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO tracking_events (date, type, target_id, user_id, ip, country, region, city,
		   postal, lat, lng, referrer, device_class, device, browser, browser_version, os,
		   os_version, params)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.Date, e.Type, e.TargetID, e.UserID, e.IP, e.Country, e.Region, e.City,
		e.Postal, e.Lat, e.Lng, e.Referrer, e.DeviceClass, e.Device, e.Browser,
		e.BrowserVersion, e.OS, e.OSVersion, string(params))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const trackingCols = "t.id,t.date,t.type,t.target_id,t.user_id,t.ip,t.country,t.region,t.city," +
	"t.postal,t.lat,t.lng,t.referrer,t.device_class,t.device,t.browser,t.browser_version," +
	"t.os,t.os_version,t.params"

func scanTracking(s interface{ Scan(dest ...any) error }) (model.TrackingEvent, error) {
	var (
		e      model.TrackingEvent
		params sql.NullString
	)
	err := s.Scan(&e.ID, &e.Date, &e.Type, &e.TargetID, &e.UserID, &e.IP, &e.Country, &e.Region,
		&e.City, &e.Postal, &e.Lat, &e.Lng, &e.Referrer, &e.DeviceClass, &e.Device, &e.Browser,
		&e.BrowserVersion, &e.OS, &e.OSVersion, &params)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	if params.Valid && params.String != "" {
		if err := json.Unmarshal([]byte(params.String), &e.Params); err != nil {
			e.Params = nil
		}
	}
	return e, nil
}

// List pages events newest first. Company scoping joins company-typed
// events directly and product-typed events through the product's company.
func (r *TrackingRepo) List(ctx context.Context, f catalog.TrackingFilter, page catalog.Page) ([]model.TrackingEvent, string, error) {
	where := []string{"1=1"}
	args := []any{}

	if f.From != nil {
		where = append(where, "t.date>=?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "t.date<=?")
		args = append(args, *f.To)
	}
	if len(f.Types) > 0 {
		where = append(where, "t.type IN ("+placeholders(len(f.Types))+")")
		for _, ty := range f.Types {
			args = append(args, ty)
		}
	}
	if len(f.Users) > 0 {
		where = append(where, "t.user_id IN ("+placeholders(len(f.Users))+")")
		args = append(args, ids(f.Users)...)
	}
	if len(f.Companies) > 0 {
		ph := placeholders(len(f.Companies))
		where = append(where,
			"((t.type=? AND t.target_id IN ("+ph+")) OR (t.type=? AND t.target_id IN "+
				"(SELECT p.id FROM products p WHERE p.company_id IN ("+ph+"))))")
		args = append(args, model.TrackCompany)
		args = append(args, ids(f.Companies)...)
		args = append(args, model.TrackProduct)
		args = append(args, ids(f.Companies)...)
	}
	if t := strings.TrimSpace(f.Text); t != "" {
		like := "%" + strings.ToLower(t) + "%"
		cols := []string{"t.ip", "t.country", "t.region", "t.city", "t.referrer",
			"t.device", "t.browser", "t.os", "t.params"}
		conds := make([]string, len(cols))
		for i, c := range cols {
			conds[i] = "LOWER(" + c + ") LIKE ?"
			args = append(args, like)
		}
		where = append(where, "("+strings.Join(conds, " OR ")+")")
	}

	cur, err := catalog.DecodeCursor(page.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cur.LastID != 0 {
		// date desc, id desc keyset
		where = append(where, "(t.date < ? OR (t.date = ? AND t.id < ?))")
		args = append(args, cur.SortValue, cur.SortValue, cur.LastID)
	}

	limit := page.Limit()
	q := "SELECT " + trackingCols + " FROM tracking_events t WHERE " + strings.Join(where, " AND ") +
		" ORDER BY t.date DESC, t.id DESC LIMIT ?"
	args = append(args, limit+1)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []model.TrackingEvent
	for rows.Next() {
		e, err := scanTracking(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		next = catalog.EncodeCursor(last.Date.UTC().Format("2006-01-02 15:04:05"), last.ID)
	}
	return out, next, nil
}

// DeleteBulk removes the given event ids. Staff-only; the capability check
// happens in the handler.
func (r *TrackingRepo) DeleteBulk(ctx context.Context, eventIDs []uint64) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tracking_events WHERE id IN ("+placeholders(len(eventIDs))+")",
		ids(eventIDs)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
