package order

import (
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddGet(t *testing.T) {
	s := newStore(t, New("1", d("10")), New("2", d("20")))

	o, err := s.Get("2")
	require.NoError(t, err)
	assert.True(t, d("20").Equal(o.TotalValue))
	assert.Equal(t, StatusPendingApproval, o.Status)
	assert.Equal(t, 2, s.Len())

	_, err = s.Get("3")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Duplicate(t *testing.T) {
	_, err := NewStore(New("1", d("10")), New("1", d("20")))
	require.ErrorIs(t, err, ErrDuplicateOrder)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := newStore(t, New("1", d("10")))

	o := mustGet(t, s, "1")
	o.Status = StatusApproved

	assert.Equal(t, StatusPendingApproval, mustGet(t, s, "1").Status)
}

func TestStore_AddKeepsOwnCopy(t *testing.T) {
	o := New("1", d("10"))
	s := newStore(t, o)

	o.Notes = "changed outside"
	assert.Empty(t, mustGet(t, s, "1").Notes)
}

func TestStore_Update(t *testing.T) {
	s := newStore(t, New("1", d("10")))

	err := s.Update("1", func(o *Order) error {
		o.Status = StatusApproved
		o.Notes = NoteApproved
		return nil
	})
	require.NoError(t, err)

	o := mustGet(t, s, "1")
	assert.Equal(t, StatusApproved, o.Status)
	assert.Equal(t, NoteApproved, o.Notes)
}

func TestStore_UpdateFailureLeavesOrderUnchanged(t *testing.T) {
	s := newStore(t, New("1", d("10")))
	boom := errors.New("boom")

	err := s.Update("1", func(o *Order) error {
		o.Status = StatusApproved
		o.ShippingCarrier = "half-written"
		return boom
	})
	require.ErrorIs(t, err, boom)

	o := mustGet(t, s, "1")
	assert.Equal(t, StatusPendingApproval, o.Status)
	assert.Empty(t, o.ShippingCarrier)
}

func TestStore_UpdateCannotChangeID(t *testing.T) {
	s := newStore(t, New("1", d("10")))

	require.NoError(t, s.Update("1", func(o *Order) error {
		o.ID = "other"
		return nil
	}))

	_, err := s.Get("1")
	require.NoError(t, err)
}

func TestStore_UpdateMissing(t *testing.T) {
	s := newStore(t)
	err := s.Update("x", func(*Order) error { return nil })
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PendingInInsertionOrder(t *testing.T) {
	done := New("b", d("1"))
	done.Status = StatusApproved
	s := newStore(t, New("c", d("1")), done, New("a", d("1")))

	assert.Equal(t, []string{"c", "a"}, s.Pending())

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, "a", all[2].ID)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := newStore(t, New("1", d("0")))

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update("1", func(o *Order) error {
				o.TotalValue = o.TotalValue.Add(d("1"))
				return nil
			})
		}()
	}
	wg.Wait()

	assert.True(t, d("100").Equal(mustGet(t, s, "1").TotalValue))
}

func TestLineItemIndex(t *testing.T) {
	idx := NewLineItemIndex([]LineItem{
		{OrderID: "1", Product: "A", Quantity: 1},
		{OrderID: "2", Product: "A", Quantity: 4},
		{OrderID: "1", Product: "B", Quantity: 2},
		{OrderID: "1", Product: "A", Quantity: 3},
	})

	// Repeated products add up; a later row does not replace an earlier one.
	assert.Equal(t, map[string]int{"A": 4, "B": 2}, idx.ItemsFor("1"))
	assert.Equal(t, map[string]int{"A": 4}, idx.ItemsFor("2"))
	assert.Empty(t, idx.ItemsFor("missing"))
	assert.Len(t, idx.Lines("1"), 3)
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusPendingApproval.Terminal())
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusWaitingForRestock.Terminal())
	assert.True(t, StatusNeedsManualReview.Terminal())

	assert.True(t, CanTransition(StatusPendingApproval, StatusApproved))
	assert.False(t, CanTransition(StatusApproved, StatusNeedsManualReview))
	assert.False(t, CanTransition(StatusPendingApproval, StatusPendingApproval))

	st, err := ParseStatus("needs_manual_review")
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsManualReview, st)

	_, err = ParseStatus("shipped")
	require.Error(t, err)
}
