package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maixuanbach/dbcsv/catalog"
	"github.com/maixuanbach/dbcsv/celltype"
	"github.com/maixuanbach/dbcsv/dbcsverr"
	"github.com/maixuanbach/dbcsv/plan"
)

func testCatalog() *catalog.Catalog {
	return catalog.New(map[string]map[string]catalog.Schema{
		"shop": {
			"orders": catalog.Schema{
				{Name: "id", Type: celltype.FamilyInteger},
				{Name: "total", Type: celltype.FamilyFloat},
				{Name: "customer", Type: celltype.FamilyString},
				{Name: "active", Type: celltype.FamilyBoolean},
			},
		},
	})
}

func newValidator() *Validator {
	return New(testCatalog(), "shop")
}

func TestValidateSimpleSelectStar(t *testing.T) {
	v := newValidator()
	desc, err := v.Validate("SELECT * FROM orders")
	require.NoError(t, err)
	assert.Equal(t, "shop", desc.DB)
	assert.Equal(t, "orders", desc.Table)
	assert.Equal(t, []string{"*"}, desc.Projection)
	assert.Nil(t, desc.Predicate)
}

func TestValidateProjectsSpecificColumns(t *testing.T) {
	v := newValidator()
	desc, err := v.Validate("SELECT id, total FROM orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "total"}, desc.Projection)
}

func TestValidateRejectsNonSelect(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("DELETE FROM orders")
	require.Error(t, err)
	kind, ok := dbcsverr.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, dbcsverr.ValidationError, kind)
}

func TestValidateRejectsLimit(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT * FROM orders LIMIT 10")
	assert.Error(t, err)
}

func TestValidateRejectsUnknownTable(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT * FROM nope")
	assert.Error(t, err)
}

func TestValidateRejectsUnknownColumn(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT bogus FROM orders")
	assert.Error(t, err)
}

func TestValidateRejectsAlias(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT id AS order_id FROM orders")
	assert.Error(t, err)
}

func TestValidateRejectsTableAlias(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT * FROM orders o")
	assert.Error(t, err)
}

func TestValidateAcceptsDatabaseQualifiedTable(t *testing.T) {
	v := newValidator()
	desc, err := v.Validate("SELECT * FROM shop.orders")
	require.NoError(t, err)
	assert.Equal(t, "orders", desc.Table)
}

func TestValidateRejectsWrongDatabaseQualifier(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT * FROM other.orders")
	assert.Error(t, err)
}

func TestValidateAcceptsTableQualifiedStar(t *testing.T) {
	v := newValidator()
	desc, err := v.Validate("SELECT orders.* FROM orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, desc.Projection)
}

func TestValidateAcceptsDatabaseQualifiedStar(t *testing.T) {
	v := newValidator()
	desc, err := v.Validate("SELECT shop.orders.* FROM orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, desc.Projection)
}

func TestValidateRejectsWrongTableQualifiedStar(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT other.* FROM orders")
	assert.Error(t, err)
}

func TestValidateRejectsWrongDatabaseQualifiedStar(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT db2.orders.* FROM orders")
	assert.Error(t, err)
	kind, ok := dbcsverr.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, dbcsverr.ValidationError, kind)
}

func TestValidateCompilesNumericWhere(t *testing.T) {
	v := newValidator()
	desc, err := v.Validate("SELECT * FROM orders WHERE total > 10")
	require.NoError(t, err)
	require.NotNil(t, desc.Predicate)
	assert.Equal(t, plan.PredCmpColLit, desc.Predicate.Kind)
	assert.Equal(t, plan.OpGT, desc.Predicate.Op)
}

func TestValidateCompilesAndOr(t *testing.T) {
	v := newValidator()
	desc, err := v.Validate("SELECT * FROM orders WHERE total > 10 AND id < 5")
	require.NoError(t, err)
	require.NotNil(t, desc.Predicate)
	assert.Equal(t, plan.PredAnd, desc.Predicate.Kind)
}

func TestValidateFoldsConstantWhereToNilPredicate(t *testing.T) {
	v := newValidator()
	desc, err := v.Validate("SELECT * FROM orders WHERE 1 < 2")
	require.NoError(t, err)
	assert.Nil(t, desc.Predicate)
}

func TestValidateRejectsQuotedVsBoolean(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT * FROM orders WHERE customer = TRUE")
	assert.Error(t, err)
}

func TestValidateRejectsQuotedVsNumeric(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT * FROM orders WHERE customer > 5")
	assert.Error(t, err)
}

func TestValidateAcceptsBooleanVsNumeric(t *testing.T) {
	v := newValidator()
	desc, err := v.Validate("SELECT * FROM orders WHERE active = 1")
	require.NoError(t, err)
	require.NotNil(t, desc.Predicate)
	assert.Equal(t, celltype.ClassNumeric, desc.Predicate.Class)
}

func TestValidateRejectsQualifiedWhereColumn(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT * FROM orders WHERE orders.total > 10")
	assert.Error(t, err)
}

func TestValidateRejectsIsNull(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT * FROM orders WHERE total IS NULL")
	assert.Error(t, err)
}

func TestValidateRejectsGroupBy(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("SELECT * FROM orders GROUP BY customer")
	assert.Error(t, err)
}
