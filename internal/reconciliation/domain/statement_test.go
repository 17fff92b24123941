package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		flags []bool
		want  StatementStatus
	}{
		{"no items", nil, StatusPending},
		{"none reconciled", []bool{false, false}, StatusPending},
		{"some reconciled", []bool{true, false, false}, StatusPartiallyReconciled},
		{"all reconciled", []bool{true, true, true}, StatusCompleted},
		{"single reconciled", []bool{true}, StatusCompleted},
		{"single unreconciled", []bool{false}, StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]StatementItem, len(tt.flags))
			for i, f := range tt.flags {
				items[i] = StatementItem{Reconciled: f}
			}
			assert.Equal(t, tt.want, DeriveStatus(items))
		})
	}
}

// The derived status must not depend on the order items were reconciled in.
func TestDeriveStatusOrderIndependent(t *testing.T) {
	a := []StatementItem{{Reconciled: true}, {Reconciled: false}, {Reconciled: true}}
	b := []StatementItem{{Reconciled: false}, {Reconciled: true}, {Reconciled: true}}
	assert.Equal(t, DeriveStatus(a), DeriveStatus(b))
}
