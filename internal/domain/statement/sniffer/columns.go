package sniffer

import (
	"errors"
	"strings"
)

// Role is the logical meaning of a table column.
type Role int

const (
	RoleDate Role = iota
	RoleDescription
	RoleWithdrawal
	RoleDeposit
	roleCount
)

func (r Role) String() string {
	switch r {
	case RoleDate:
		return "date"
	case RoleDescription:
		return "description"
	case RoleWithdrawal:
		return "withdrawal"
	case RoleDeposit:
		return "deposit"
	default:
		return "unknown"
	}
}

// MappingKind records which pass resolved a ColumnRoleMap.
type MappingKind string

const (
	MappingLabel      MappingKind = "label"
	MappingPositional MappingKind = "positional"
)

// ErrUnmappableTable means no date or description column could be found; every row of
// such a table is skipped.
var ErrUnmappableTable = errors.New("could not resolve date and description columns")

type labelRule struct {
	keywords []string
	role     Role
}

// labelRules are evaluated per label, first match wins. "Transaction Date" is therefore a
// date column, not a description.
var labelRules = []labelRule{
	{keywords: []string{"date"}, role: RoleDate},
	{keywords: []string{"description", "transaction"}, role: RoleDescription},
	{keywords: []string{"withdrawal", "debit"}, role: RoleWithdrawal},
	{keywords: []string{"deposit", "credit"}, role: RoleDeposit},
}

// positionalMinColumns is the narrowest unlabeled table the positional layout applies to.
const positionalMinColumns = 4

// positionalLayout is the unlabeled TD Canada Trust layout:
// Description | Withdrawals | Deposits | Date | Balance.
// It is a special case for that institution and is not meant as a general default.
var positionalLayout = [roleCount]int{
	RoleDate:        3,
	RoleDescription: 0,
	RoleWithdrawal:  1,
	RoleDeposit:     2,
}

// ColumnRoleMap resolves each role to a column label of one table. It is immutable.
type ColumnRoleMap struct {
	columns [roleCount]string
	set     [roleCount]bool
	kind    MappingKind
}

// Column returns the label assigned to role.
func (m ColumnRoleMap) Column(role Role) (string, bool) {
	if role < 0 || role >= roleCount {
		return "", false
	}
	return m.columns[role], m.set[role]
}

// Kind reports whether the labels or the positional layout produced the mapping.
func (m ColumnRoleMap) Kind() MappingKind {
	return m.kind
}

func (m *ColumnRoleMap) assign(role Role, label string) {
	m.columns[role] = label
	m.set[role] = true
}

func (m ColumnRoleMap) resolved() bool {
	return m.set[RoleDate] && m.set[RoleDescription]
}

// MapColumns infers the role of each column from its label, falling back to the fixed
// positional layout when the date or description column is still missing and the table is
// at least four columns wide. A later label matching the same role replaces an earlier one.
func MapColumns(labels []string) (ColumnRoleMap, error) {
	m := ColumnRoleMap{kind: MappingLabel}

	for _, label := range labels {
		l := strings.ToLower(strings.TrimSpace(label))
		if role, ok := matchLabel(l); ok {
			m.assign(role, label)
		}
	}

	if !m.resolved() && len(labels) >= positionalMinColumns {
		m = ColumnRoleMap{kind: MappingPositional}
		for role, idx := range positionalLayout {
			m.assign(Role(role), labels[idx])
		}
	}

	if !m.resolved() {
		return ColumnRoleMap{}, ErrUnmappableTable
	}
	return m, nil
}

func matchLabel(lower string) (Role, bool) {
	for _, rule := range labelRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.role, true
			}
		}
	}
	return 0, false
}
