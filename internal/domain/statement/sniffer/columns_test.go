package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func column(t *testing.T, m ColumnRoleMap, role Role) string {
	t.Helper()
	label, ok := m.Column(role)
	require.Truef(t, ok, "role %s unresolved", role)
	return label
}

func TestMapColumns_Labels(t *testing.T) {
	m, err := MapColumns([]string{"Date", "Description", "Withdrawals", "Deposits", "Balance"})
	require.NoError(t, err)

	assert.Equal(t, MappingLabel, m.Kind())
	assert.Equal(t, "Date", column(t, m, RoleDate))
	assert.Equal(t, "Description", column(t, m, RoleDescription))
	assert.Equal(t, "Withdrawals", column(t, m, RoleWithdrawal))
	assert.Equal(t, "Deposits", column(t, m, RoleDeposit))
}

func TestMapColumns_FirstRuleWinsPerLabel(t *testing.T) {
	m, err := MapColumns([]string{"Transaction Date", "Transaction Details", "Debit", "Credit"})
	require.NoError(t, err)

	assert.Equal(t, MappingLabel, m.Kind())
	assert.Equal(t, "Transaction Date", column(t, m, RoleDate))
	assert.Equal(t, "Transaction Details", column(t, m, RoleDescription))
	assert.Equal(t, "Debit", column(t, m, RoleWithdrawal))
	assert.Equal(t, "Credit", column(t, m, RoleDeposit))
}

func TestMapColumns_LaterLabelReplacesEarlier(t *testing.T) {
	m, err := MapColumns([]string{"Posting Date", "Value Date", "Description"})
	require.NoError(t, err)
	assert.Equal(t, "Value Date", column(t, m, RoleDate))
}

func TestMapColumns_LabelsWithoutAmounts(t *testing.T) {
	m, err := MapColumns([]string{"Date", "Description", "Balance"})
	require.NoError(t, err)

	_, ok := m.Column(RoleWithdrawal)
	assert.False(t, ok)
	_, ok = m.Column(RoleDeposit)
	assert.False(t, ok)
}

func TestMapColumns_PositionalFallback(t *testing.T) {
	m, err := MapColumns([]string{"0", "1", "2", "3", "4"})
	require.NoError(t, err)

	assert.Equal(t, MappingPositional, m.Kind())
	assert.Equal(t, "0", column(t, m, RoleDescription))
	assert.Equal(t, "1", column(t, m, RoleWithdrawal))
	assert.Equal(t, "2", column(t, m, RoleDeposit))
	assert.Equal(t, "3", column(t, m, RoleDate))
}

func TestMapColumns_PositionalOverridesPartialLabels(t *testing.T) {
	m, err := MapColumns([]string{"Item", "Debit", "Credit", "Posted", "Balance"})
	require.NoError(t, err)

	assert.Equal(t, MappingPositional, m.Kind())
	assert.Equal(t, "Item", column(t, m, RoleDescription))
	assert.Equal(t, "Debit", column(t, m, RoleWithdrawal))
	assert.Equal(t, "Posted", column(t, m, RoleDate))
}

func TestMapColumns_NoFallbackWhenLabelsResolve(t *testing.T) {
	m, err := MapColumns([]string{"Balance", "Amount", "Description", "Date"})
	require.NoError(t, err)
	assert.Equal(t, MappingLabel, m.Kind())
	assert.Equal(t, "Date", column(t, m, RoleDate))
}

func TestMapColumns_Unmappable(t *testing.T) {
	tests := [][]string{
		{"0", "1", "2"},
		{"Description", "Amount", "Balance"},
		{},
		nil,
	}

	for _, labels := range tests {
		_, err := MapColumns(labels)
		assert.ErrorIsf(t, err, ErrUnmappableTable, "MapColumns(%v)", labels)
	}
}

func TestColumnRoleMap_InvalidRole(t *testing.T) {
	m, err := MapColumns([]string{"Date", "Description"})
	require.NoError(t, err)

	_, ok := m.Column(Role(-1))
	assert.False(t, ok)
	_, ok = m.Column(roleCount)
	assert.False(t, ok)
	assert.Equal(t, "unknown", roleCount.String())
}
