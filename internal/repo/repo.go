package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRepo struct {
	DB *gorm.DB
}

// Tx runs fn inside one database transaction. The repo handed to fn is bound
// to the transaction and must be used for every query in it.
func (r *GormRepo) Tx(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&GormRepo{DB: db})
	})
}

func (r *GormRepo) locked(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

// Scope narrows list queries to what an actor may see. Nil fields do not filter.
type Scope struct {
	OrgID      *uint
	StoreID    *uint
	CustomerID *uint
	RiderID    *uint
}

func applyStoreScope(q *gorm.DB, s Scope, col string) *gorm.DB {
	if s.StoreID != nil {
		q = q.Where(col+" = ?", *s.StoreID)
	} else if s.OrgID != nil {
		q = q.Where(col+" IN (?)", q.Session(&gorm.Session{NewDB: true}).
			Table("stores").Select("id").Where("organization_id = ?", *s.OrgID))
	}
	return q
}

func applyOrgScope(q *gorm.DB, s Scope) *gorm.DB {
	if s.OrgID != nil {
		q = q.Where("organization_id = ?", *s.OrgID)
	}
	return q
}

// excludeRiders matches nothing for rider scopes. Riders only see their own
// trips and location, never customer-facing service desk records.
func excludeRiders(q *gorm.DB, s Scope) *gorm.DB {
	if s.RiderID != nil {
		return q.Where("1 = 0")
	}
	return q
}

// Window is a limit/offset pair for list queries.
type Window struct {
	Limit  int
	Offset int
}

func paged(q *gorm.DB, w Window) *gorm.DB {
	if w.Limit > 0 {
		q = q.Limit(w.Limit)
	}
	if w.Offset > 0 {
		q = q.Offset(w.Offset)
	}
	return q
}

// findPage counts then fetches one window of q into dst. Preloads apply to
// the fetch only.
func findPage(q *gorm.DB, w Window, order string, dst any, preloads ...string) (int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	fq := q.Session(&gorm.Session{}).Order(order)
	for _, p := range preloads {
		fq = fq.Preload(p)
	}
	if err := paged(fq, w).Find(dst).Error; err != nil {
		return 0, err
	}
	return total, nil
}
