package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/realtime"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/config"
	"github.com/Skotchmaster/quickcommerce/pkg/db"
	"github.com/Skotchmaster/quickcommerce/pkg/events"
)

var windowAll = repo.Window{Limit: 100}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	DB     *gorm.DB
	Svc    *Services
	Events *events.Memory
	Feed   *recordingFeed

	Org      models.Organization
	Store    models.Store
	OrgAdmin models.User
	Manager  models.User
	Staff    models.User
	Rider    models.User
	Customer models.User

	seq int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ops.db")
	gdb, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), db.GormConfig())
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = db.Close(gdb) })

	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		DB:     gdb,
		Events: &events.Memory{},
		Feed:   &recordingFeed{},
	}
	f.Svc = New(Deps{
		Repo:      &repo.GormRepo{DB: gdb},
		Events:    f.Events,
		Business:  config.Defaults().Business,
		Locations: realtime.NewMemoryLocationCache(),
		Broadcast: f.Feed,
	})

	f.Org = models.Organization{Name: "Fresh Mart", Slug: "fresh-mart"}
	require.NoError(t, gdb.Create(&f.Org).Error)
	f.Store = models.Store{OrganizationID: f.Org.ID, Name: "Central", IsActive: true}
	require.NoError(t, gdb.Create(&f.Store).Error)

	f.OrgAdmin = f.user(models.RoleOrgAdmin, false)
	f.Manager = f.user(models.RoleStoreManager, true)
	f.Staff = f.user(models.RoleStaff, true)
	f.Rider = f.user(models.RoleRider, false)
	f.Customer = f.user(models.RoleCustomer, false)
	return f
}

// user seeds an active account of role. Non-customers belong to the
// fixture organization; withStore also pins them to the fixture store.
func (f *fixture) user(role string, withStore bool) models.User {
	f.t.Helper()
	f.seq++
	u := models.User{
		Name:         fmt.Sprintf("%s %d", role, f.seq),
		Email:        fmt.Sprintf("user%d@example.com", f.seq),
		PasswordHash: "x",
		Role:         role,
		ReferralCode: fmt.Sprintf("REF%04d", f.seq),
		IsActive:     true,
	}
	if role != models.RoleCustomer {
		u.OrganizationID = &f.Org.ID
	}
	if withStore {
		u.StoreID = &f.Store.ID
	}
	require.NoError(f.t, f.DB.Create(&u).Error)
	return u
}

func (f *fixture) product(name string, price int64, stock int) models.StoreProduct {
	f.t.Helper()
	f.seq++
	p := models.StoreProduct{
		StoreID: f.Store.ID, SKU: fmt.Sprintf("SKU-%d", f.seq), Name: name,
		Price: price, MRP: price, Stock: stock, IsAvailable: true,
	}
	require.NoError(f.t, f.DB.Create(&p).Error)
	return p
}

func (f *fixture) actor(u models.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role, OrgID: u.OrganizationID, StoreID: u.StoreID}
}

func (f *fixture) stock(productID uint) int {
	f.t.Helper()
	var p models.StoreProduct
	require.NoError(f.t, f.DB.First(&p, productID).Error)
	return p.Stock
}

func (f *fixture) points(userID uint) int64 {
	f.t.Helper()
	var b models.LoyaltyBalance
	err := f.DB.Where("user_id = ? AND organization_id = ?", userID, f.Org.ID).First(&b).Error
	if repo.IsNotFound(err) {
		return 0
	}
	require.NoError(f.t, err)
	return b.Points
}

func (f *fixture) grant(userID uint, pts int64) {
	f.t.Helper()
	require.NoError(f.t, f.Svc.Loyalty.Repo.Tx(f.ctx, func(tx *repo.GormRepo) error {
		_, err := movePoints(f.ctx, tx, pointsEntry{UserID: userID, OrgID: f.Org.ID, Points: pts, Type: models.LoyaltyAdjust, Note: "seed"})
		return err
	}))
}

func deliveryOrder(storeID uint, items ...transport.CreateOrderItem) transport.CreateOrderRequest {
	return transport.CreateOrderRequest{
		StoreID:     storeID,
		Items:       items,
		AddressLine: "12 Market Road",
		Lat:         12.97,
		Lng:         77.59,
	}
}

func item(productID uint, qty int) transport.CreateOrderItem {
	return transport.CreateOrderItem{ProductID: productID, Quantity: qty}
}

// advance moves an order along the operator route through each status.
func (f *fixture) advance(orderID uint, statuses ...string) {
	f.t.Helper()
	for _, st := range statuses {
		_, err := f.Svc.Orders.UpdateStatus(f.ctx, f.actor(f.Manager), orderID, transport.StatusRequest{Status: st})
		require.NoError(f.t, err, "move to %s", st)
	}
}

func (f *fixture) readyOrder(req transport.CreateOrderRequest) *models.Order {
	f.t.Helper()
	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), req)
	require.NoError(f.t, err)
	f.advance(o.ID, models.OrderConfirmed, models.OrderPacking, models.OrderReady)
	return o
}

func (f *fixture) eventTypes(topic string) []string {
	var out []string
	for _, e := range f.Events.Events(topic) {
		if m, ok := e.Event.(map[string]any); ok {
			out = append(out, fmt.Sprint(m["type"]))
		}
	}
	return out
}

type recordingFeed struct {
	mu  sync.Mutex
	got []transport.Position
}

func (r *recordingFeed) Publish(p transport.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, p)
}

func (r *recordingFeed) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []any
}

func (q *recordingQueue) Enqueue(_ context.Context, _ string, job any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}
