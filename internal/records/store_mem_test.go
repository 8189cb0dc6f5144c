package records_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/records"
)

func TestMemStore_SelectPagesInCreationOrder(t *testing.T) {
	ctx := context.Background()
	m := records.NewMemStore(
		rec("B", 2, 0.5, true, 0, t0.Add(time.Second)),
		rec("A", 1, 0.5, true, 0, t0),
		rec("A", 3, 1.0, false, 0, t0.Add(2*time.Second)),
	)
	got, err := records.LoadAll(ctx, m, records.Filter{Teacher: "Russell"}, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].QuestionID, got[1].QuestionID, got[2].QuestionID})
	for _, r := range got {
		assert.NotEmpty(t, r.ID)
	}

	only, err := m.Select(ctx, records.Filter{StudentName: "A"}, records.Page{Offset: 1, Limit: 5})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, 3, only[0].QuestionID)

	none, err := m.Select(ctx, records.Filter{}, records.Page{Offset: 10, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemStore_DeleteMatchesSQLSemantics(t *testing.T) {
	ctx := context.Background()
	explicit := attempt.Key(t0.UnixMilli() + 123)
	m := records.NewMemStore(
		rec("X", 1, 0.5, true, 0, t0.Add(5*time.Second)),
		rec("X", 2, 0.5, true, 0, t0.Add(59*time.Second)),
		rec("X", 3, 0.5, true, 0, t0.Add(61*time.Second)),
		rec("X", 4, 0.5, true, explicit, t0.Add(10*time.Second)),
		rec("Y", 1, 0.5, true, 0, t0.Add(5*time.Second)),
	)

	n, err := m.Delete(ctx, records.DeleteFilter{Teacher: "Russell", StudentName: "X", AttemptKey: attempt.Key(t0.UnixMilli())})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = m.Delete(ctx, records.DeleteFilter{Teacher: "Russell", StudentName: "X", AttemptKey: explicit})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = m.Delete(ctx, records.DeleteFilter{Teacher: "Russell", StudentName: "X"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, m.Len())

	_, err = m.Delete(ctx, records.DeleteFilter{Teacher: "Russell"})
	assert.ErrorIs(t, err, records.ErrInvalidFilter)
}
