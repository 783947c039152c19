package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/internal/testutil"
)

func TestUserRepo_ScopedByCompany(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedCompany(t, db, "alpha", 5)
	b := testutil.SeedCompany(t, db, "beta", 5)
	testutil.SeedUser(t, db, a, "ana@alpha.com", model.RoleAdmin)
	testutil.SeedUser(t, db, b, "bia@beta.com", model.RoleOperator)
	testutil.SeedUser(t, db, nil, "root@platform.com", model.RoleMaster)

	repo := repository.NewUserRepo(db)

	users, err := repo.FindAll(&a.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ana@alpha.com", users[0].Email)
	require.NotNil(t, users[0].Company)
	assert.Equal(t, "alpha", users[0].Company.Name)

	all, err := repo.FindAll(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUserRepo_NotFoundAndDuplicate(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.SeedCompany(t, db, "alpha", 5)
	testutil.SeedUser(t, db, c, "ana@alpha.com", model.RoleAdmin)
	repo := repository.NewUserRepo(db)

	_, err := repo.FindByEmail("nobody@alpha.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	dup := &model.User{Email: "ana@alpha.com", Name: "Ana 2", Role: model.RoleOperator, CompanyID: &c.ID, IsActive: true}
	err = repo.Create(nil, dup)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepo_LinkAuthUserAndLastLogin(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.SeedCompany(t, db, "alpha", 5)
	u := testutil.SeedUser(t, db, c, "ana@alpha.com", model.RoleAdmin)
	repo := repository.NewUserRepo(db)

	require.NoError(t, repo.LinkAuthUser(u.ID, "auth-123"))
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(u.ID, at))

	got, err := repo.FindByAuthUserID("auth-123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(at))
}

func TestCompanyRepo_CountUsers(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.SeedCompany(t, db, "alpha", 5)
	testutil.SeedUser(t, db, c, "a@alpha.com", model.RoleAdmin)
	testutil.SeedUser(t, db, c, "b@alpha.com", model.RoleOperator)
	repo := repository.NewCompanyRepo(db)

	n, err := repo.CountUsers(nil, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.FindByID(uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductRepo_LowStock(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.SeedCompany(t, db, "alpha", 5)
	testutil.SeedProduct(t, db, c, "Arroz", 2, 5)
	testutil.SeedProduct(t, db, c, "Feijao", 5, 5)
	testutil.SeedProduct(t, db, c, "Oleo", 20, 5)
	repo := repository.NewProductRepo(db)

	low, err := repo.FindLowStock(&c.ID)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Arroz", low[0].Name)
	assert.Equal(t, "Feijao", low[1].Name)
}

func TestProductRepo_LockAndUpdateStock(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.SeedCompany(t, db, "alpha", 5)
	p := testutil.SeedProduct(t, db, c, "Arroz", 10, 2)
	repo := repository.NewProductRepo(db)

	locked, err := repo.LockByID(db, p.ID)
	require.NoError(t, err)
	assert.True(t, locked.CurrentStock.Equal(decimal.NewFromInt(10)))

	require.NoError(t, repo.UpdateStock(db, p.ID, decimal.RequireFromString("7.5")))
	got, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentStock.Equal(decimal.RequireFromString("7.5")))
}

func TestMovementRepo_FilterAndDailyAggregation(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.SeedCompany(t, db, "alpha", 5)
	u := testutil.SeedUser(t, db, c, "a@alpha.com", model.RoleAdmin)
	arroz := testutil.SeedProduct(t, db, c, "Arroz", 10, 2)
	oleo := testutil.SeedProduct(t, db, c, "Oleo", 10, 2)
	repo := repository.NewMovementRepo(db)

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, m := range []model.StockMovement{
		{ProductID: arroz.ID, Type: model.MovementIn, Quantity: decimal.NewFromInt(5)},
		{ProductID: arroz.ID, Type: model.MovementOut, Quantity: decimal.NewFromInt(2)},
		{ProductID: oleo.ID, Type: model.MovementAdjust, Quantity: decimal.NewFromInt(8)},
	} {
		m := m
		m.CompanyID = c.ID
		m.UserID = u.ID
		m.CreatedAt = day
		require.NoError(t, repo.Create(nil, &m))
	}

	onlyArroz, err := repo.FindAll(&c.ID, repository.MovementFilter{ProductID: &arroz.ID})
	require.NoError(t, err)
	assert.Len(t, onlyArroz, 2)

	limited, err := repo.FindAll(&c.ID, repository.MovementFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	series, err := repo.GetStockMovement(&c.ID, day.Add(-time.Hour), day.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2026-03-10", series[0].Date)
	assert.True(t, series[0].Inbound.Equal(decimal.NewFromInt(5)))
	assert.True(t, series[0].Outbound.Equal(decimal.NewFromInt(2)))
}

func TestDashboardRepo_Stats(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.SeedCompany(t, db, "alpha", 5)
	other := testutil.SeedCompany(t, db, "beta", 5)
	cost := decimal.NewFromInt(3)
	p := testutil.SeedProduct(t, db, c, "Arroz", 10, 2)
	p.Cost = &cost
	require.NoError(t, db.Save(p).Error)
	testutil.SeedProduct(t, db, c, "Feijao", 1, 2)
	testutil.SeedProduct(t, db, other, "Oleo", 1, 2)

	stats, err := repository.NewDashboardRepo(db).GetDashboardStats(&c.ID, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.LowStockCount)
	assert.True(t, stats.TotalValuation.Equal(decimal.NewFromInt(30)), stats.TotalValuation.String())
	assert.Equal(t, int64(0), stats.MovementsToday)
	assert.Equal(t, int64(0), stats.OpenChecklistRuns)
}

func TestChecklistRepo_TemplateItemsOrdered(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.SeedCompany(t, db, "alpha", 5)
	repo := repository.NewChecklistRepo(db)

	tpl := &model.ChecklistTemplate{
		CompanyID: c.ID,
		Name:      "Abertura",
		Type:      model.ChecklistOpening,
		IsActive:  true,
		Items: []model.ChecklistItem{
			{CompanyID: c.ID, Title: "segundo", Position: 2},
			{CompanyID: c.ID, Title: "primeiro", Position: 1},
		},
	}
	require.NoError(t, repo.CreateTemplate(tpl))

	got, err := repo.FindTemplateByID(tpl.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "primeiro", got.Items[0].Title)
	assert.Equal(t, "segundo", got.Items[1].Title)
}

func TestChecklistRepo_UpsertExecutionItem(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.SeedCompany(t, db, "alpha", 5)
	u := testutil.SeedUser(t, db, c, "a@alpha.com", model.RoleOperator)
	repo := repository.NewChecklistRepo(db)

	tpl := &model.ChecklistTemplate{
		CompanyID: c.ID, Name: "Limpeza", Type: model.ChecklistCleaning, IsActive: true,
		Items: []model.ChecklistItem{{CompanyID: c.ID, Title: "chao", Position: 1, IsRequired: true}},
	}
	require.NoError(t, repo.CreateTemplate(tpl))
	exec := &model.ChecklistExecution{CompanyID: c.ID, TemplateID: tpl.ID, UserID: u.ID, StartedAt: time.Now()}
	require.NoError(t, repo.CreateExecution(exec))

	first := &model.ChecklistExecutionItem{CompanyID: c.ID, ExecutionID: exec.ID, ItemID: tpl.Items[0].ID}
	require.NoError(t, repo.UpsertExecutionItem(first))

	now := time.Now()
	second := &model.ChecklistExecutionItem{CompanyID: c.ID, ExecutionID: exec.ID, ItemID: tpl.Items[0].ID, IsCompleted: true, CompletedAt: &now, Notes: "ok"}
	require.NoError(t, repo.UpsertExecutionItem(second))
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.FindExecutionByID(exec.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].IsCompleted)
	assert.Equal(t, "ok", got.Items[0].Notes)

	open, err := repo.FindExecutions(&c.ID, true)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestReferenceRepo_Scoped(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedCompany(t, db, "alpha", 5)
	b := testutil.SeedCompany(t, db, "beta", 5)
	repo := repository.NewReferenceRepo(db)

	require.NoError(t, repo.CreateSupplier(&model.Supplier{CompanyID: a.ID, Name: "Atacadao"}))
	require.NoError(t, repo.CreateSupplier(&model.Supplier{CompanyID: b.ID, Name: "Assai"}))
	require.NoError(t, repo.CreateCategory(&model.Category{CompanyID: a.ID, Name: "Graos"}))

	suppliers, err := repo.FindSuppliers(&a.ID)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "Atacadao", suppliers[0].Name)

	categories, err := repo.FindCategories(&b.ID)
	require.NoError(t, err)
	assert.Empty(t, categories)
}
