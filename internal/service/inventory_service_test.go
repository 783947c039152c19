package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/internal/testutil"
	"go-inventory-checklist/pkg/realtime"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyMovement(t *testing.T) {
	tests := []struct {
		name    string
		current string
		kind    model.MovementType
		qty     string
		want    string
		err     error
	}{
		{"entrada adds", "10", model.MovementIn, "2.5", "12.5", nil},
		{"entrada rejects zero", "10", model.MovementIn, "0", "10", ErrInvalidQuantity},
		{"saida subtracts", "10", model.MovementOut, "4", "6", nil},
		{"saida to zero", "10", model.MovementOut, "10", "0", nil},
		{"saida beyond stock", "10", model.MovementOut, "10.001", "10", ErrInsufficientStock},
		{"saida rejects negative", "10", model.MovementOut, "-1", "10", ErrInvalidQuantity},
		{"ajuste sets absolute", "10", model.MovementAdjust, "3", "3", nil},
		{"ajuste to zero", "10", model.MovementAdjust, "0", "0", nil},
		{"ajuste rejects negative", "10", model.MovementAdjust, "-3", "10", ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyMovement(dec(tt.current), tt.kind, dec(tt.qty))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRecordMovement(t *testing.T) {
	f := newFixture(t)
	company := testutil.SeedCompany(t, f.db, "padaria", 5)
	op := testutil.SeedUser(t, f.db, company, "op@padaria.com", model.RoleOperator)
	flour := testutil.SeedProduct(t, f.db, company, "Farinha", 10, 5)

	price := dec("4.50")
	movement, err := f.inventory.RecordMovement(op, &model.InsertStockMovement{
		ProductID: flour.ID, Type: model.MovementOut, Quantity: dec("6"), UnitPrice: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, company.ID, movement.CompanyID)
	assert.Equal(t, op.ID, movement.UserID)
	assert.True(t, dec("10").Equal(movement.PreviousStock))
	assert.True(t, dec("4").Equal(movement.NewStock))
	require.NotNil(t, movement.TotalPrice)
	assert.True(t, dec("27").Equal(*movement.TotalPrice))
	assert.Equal(t, []string{realtime.TableStockMovements, realtime.TableProducts}, f.pub.tables())

	var stored model.Product
	require.NoError(t, f.db.First(&stored, "id = ?", flour.ID).Error)
	assert.True(t, dec("4").Equal(stored.CurrentStock))

	low, err := f.inventory.GetLowStock(op)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, flour.ID, low[0].ID)

	_, err = f.inventory.RecordMovement(op, &model.InsertStockMovement{
		ProductID: flour.ID, Type: model.MovementOut, Quantity: dec("5"),
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// the failed movement left neither a ledger row nor a stock change
	var count int64
	require.NoError(t, f.db.Model(&model.StockMovement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, f.db.First(&stored, "id = ?", flour.ID).Error)
	assert.True(t, dec("4").Equal(stored.CurrentStock))

	adjusted, err := f.inventory.RecordMovement(op, &model.InsertStockMovement{
		ProductID: flour.ID, Type: model.MovementAdjust, Quantity: dec("7.5"), Notes: "inventario",
	})
	require.NoError(t, err)
	assert.True(t, dec("7.5").Equal(adjusted.NewStock))

	history, err := f.inventory.GetMovements(op, repository.MovementFilter{ProductID: &flour.ID})
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRecordMovementTenantIsolation(t *testing.T) {
	f := newFixture(t)
	a := testutil.SeedCompany(t, f.db, "a", 5)
	b := testutil.SeedCompany(t, f.db, "b", 5)
	opA := testutil.SeedUser(t, f.db, a, "op@a.com", model.RoleOperator)
	productB := testutil.SeedProduct(t, f.db, b, "Acucar", 10, 1)

	_, err := f.inventory.RecordMovement(opA, &model.InsertStockMovement{
		ProductID: productB.ID, Type: model.MovementIn, Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.inventory.RecordMovement(opA, &model.InsertStockMovement{
		CompanyID: b.ID, ProductID: productB.ID, Type: model.MovementIn, Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	products, err := f.inventory.GetAllProducts(opA)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCreateAndUpdateProduct(t *testing.T) {
	f := newFixture(t)
	a := testutil.SeedCompany(t, f.db, "a", 5)
	b := testutil.SeedCompany(t, f.db, "b", 5)
	manager := testutil.SeedUser(t, f.db, a, "gerente@a.com", model.RoleManager)
	managerB := testutil.SeedUser(t, f.db, b, "gerente@b.com", model.RoleManager)

	supplierB, err := f.reference.CreateSupplier(managerB, &model.InsertSupplier{Name: "Moinho B"})
	require.NoError(t, err)
	category, err := f.reference.CreateCategory(manager, &model.InsertCategory{Name: "Secos"})
	require.NoError(t, err)

	_, err = f.inventory.CreateProduct(manager, &model.InsertProduct{
		Name: "Farinha", Unit: "kg", SupplierID: &supplierB.ID,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.inventory.CreateProduct(manager, &model.InsertProduct{
		Name: "Farinha", Unit: "kg", CurrentStock: dec("-1"),
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	product, err := f.inventory.CreateProduct(manager, &model.InsertProduct{
		Name: "Farinha", Unit: "kg", CurrentStock: dec("20"), MinStock: dec("5"), CategoryID: &category.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, product.CompanyID)

	newMin := dec("8")
	friday := model.Weekday("sexta")
	updated, err := f.inventory.UpdateProduct(manager, product.ID, &UpdateProductRequest{MinStock: &newMin, BestPurchaseDay: &friday})
	require.NoError(t, err)
	assert.True(t, newMin.Equal(updated.MinStock))
	assert.True(t, dec("20").Equal(updated.CurrentStock))

	_, err = f.inventory.UpdateProduct(managerB, product.ID, &UpdateProductRequest{MinStock: &newMin})
	assert.ErrorIs(t, err, ErrNotFound)

	suppliers, err := f.reference.GetSuppliers(manager)
	require.NoError(t, err)
	assert.Empty(t, suppliers)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	company := testutil.SeedCompany(t, f.db, "padaria", 5)
	op := testutil.SeedUser(t, f.db, company, "op@padaria.com", model.RoleOperator)
	testutil.SeedProduct(t, f.db, company, "Farinha", 2, 5)
	testutil.SeedProduct(t, f.db, company, "Acucar", 10, 1)
	other := testutil.SeedCompany(t, f.db, "outra", 5)
	testutil.SeedProduct(t, f.db, other, "Sal", 0, 1)

	stats, err := f.dashboard.GetDashboardStats(op)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.LowStockCount)

	master := testutil.SeedUser(t, f.db, nil, "root@platform.io", model.RoleMaster)
	stats, err = f.dashboard.GetDashboardStats(master)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalProducts)
	assert.Equal(t, int64(2), stats.LowStockCount)

	_, err = f.dashboard.GetStockMovement(op, 0)
	require.NoError(t, err)
}
