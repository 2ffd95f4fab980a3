package grading_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/grading"
	"github.com/trezcool/ecole/tests"
)

func setup(t *testing.T) (*grading.Store, *testutil.FailingKV, *testutil.Logger) {
	kv := testutil.NewKV()
	logger := new(testutil.Logger)
	store := grading.NewStore(kv, logger)
	require.NoError(t, store.Init(context.Background()))
	return store, kv, logger
}

func TestStore_Subjects(t *testing.T) {
	store, _, _ := setup(t)
	ctx := context.Background()

	_, err := store.AddSubject(ctx, "c1", "3", grading.NewSubject{Name: "Maths"})
	assert.True(t, errors.Is(err, grading.ErrInvalidSemester))
	_, err = store.AddSubject(ctx, "c1", grading.Semester1, grading.NewSubject{Name: " "})
	var verr *core.ValidationError
	assert.True(t, errors.As(err, &verr))
	_, err = store.AddSubject(ctx, "c1", grading.Semester1, grading.NewSubject{Name: "Maths", Coefficient: -2})
	assert.True(t, errors.As(err, &verr))

	maths, err := store.AddSubject(ctx, "c1", grading.Semester1, grading.NewSubject{Name: "Maths", Coefficient: 4})
	require.NoError(t, err)
	french, err := store.AddSubject(ctx, "c1", grading.Semester1, grading.NewSubject{Name: "Français"})
	require.NoError(t, err)
	assert.Equal(t, float64(1), french.Coefficient)
	_, err = store.AddSubject(ctx, "c1", grading.Semester2, grading.NewSubject{Name: "Maths", Coefficient: 4})
	require.NoError(t, err)

	assert.Equal(t, []grading.Subject{maths, french}, store.SubjectsByClassAndSemester("c1", grading.Semester1))
	assert.Len(t, store.SubjectsByClassAndSemester("c1", grading.Semester2), 1)
	assert.Empty(t, store.SubjectsByClassAndSemester("c2", grading.Semester1))
}

func TestStore_DeleteSubjectCascades(t *testing.T) {
	store, _, _ := setup(t)
	ctx := context.Background()
	maths, err := store.AddSubject(ctx, "c1", grading.Semester1, grading.NewSubject{Name: "Maths"})
	require.NoError(t, err)
	french, err := store.AddSubject(ctx, "c1", grading.Semester1, grading.NewSubject{Name: "Français"})
	require.NoError(t, err)

	_, err = store.UpsertGrade(ctx, "s1", maths.ID, grading.TypeDevoir, 12, 1)
	require.NoError(t, err)
	_, err = store.UpsertGrade(ctx, "s1", french.ID, grading.TypeComposition, 15, 0)
	require.NoError(t, err)

	require.NoError(t, store.DeleteSubject(ctx, maths.ID))
	assert.Empty(t, store.GradesBySubject(maths.ID))
	assert.Len(t, store.GradesByStudent("s1"), 1)
	_, err = store.Subject(maths.ID)
	assert.Equal(t, grading.ErrSubjectNotFound, err)
	assert.Equal(t, grading.ErrSubjectNotFound, store.DeleteSubject(ctx, maths.ID))
}

func TestStore_UpsertGrade(t *testing.T) {
	store, _, _ := setup(t)
	ctx := context.Background()

	g1, err := store.UpsertGrade(ctx, "s1", "sub1", grading.TypeDevoir, 10, 1)
	require.NoError(t, err)
	g2, err := store.UpsertGrade(ctx, "s1", "sub1", grading.TypeDevoir, 13.5, 1)
	require.NoError(t, err)
	assert.Equal(t, g1.ID, g2.ID)
	assert.Equal(t, g1.CreatedAt, g2.CreatedAt)

	// other devoir columns and the composition are distinct grades
	_, err = store.UpsertGrade(ctx, "s1", "sub1", grading.TypeDevoir, 8, 3)
	require.NoError(t, err)
	_, err = store.UpsertGrade(ctx, "s1", "sub1", grading.TypeComposition, 16, 0)
	require.NoError(t, err)
	assert.Len(t, store.GradesBySubject("sub1"), 3)

	v, ok := store.LookupGrade("s1", "sub1", grading.TypeDevoir, 1)
	assert.True(t, ok)
	assert.Equal(t, 13.5, v)
	_, ok = store.LookupGrade("s1", "sub1", grading.TypeDevoir, 2)
	assert.False(t, ok)
	v, ok = store.LookupGrade("s1", "sub1", grading.TypeComposition, 0)
	assert.True(t, ok)
	assert.Equal(t, float64(16), v)

	assert.Equal(t, []int{1, 3}, store.DevoirNumbers("sub1"))
	assert.Equal(t, []int{1}, store.DevoirNumbers("sub2"))
}

func TestStore_SubmitGrade(t *testing.T) {
	store, _, _ := setup(t)
	ctx := context.Background()
	maths, err := store.AddSubject(ctx, "c1", grading.Semester2, grading.NewSubject{Name: "Maths"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		grade   grading.NewGrade
		wantErr bool
	}{
		{"above 20", grading.NewGrade{StudentID: "s1", SubjectID: maths.ID, Type: grading.TypeDevoir, Number: 1, Value: 21}, true},
		{"negative", grading.NewGrade{StudentID: "s1", SubjectID: maths.ID, Type: grading.TypeDevoir, Number: 1, Value: -0.5}, true},
		{"unknown type", grading.NewGrade{StudentID: "s1", SubjectID: maths.ID, Type: "examen", Value: 10}, true},
		{"unknown subject", grading.NewGrade{StudentID: "s1", SubjectID: "nope", Type: grading.TypeComposition, Value: 10}, true},
		{"in range", grading.NewGrade{StudentID: "s1", SubjectID: maths.ID, Type: grading.TypeDevoir, Number: 1, Value: 14.5}, false},
		{"upper bound", grading.NewGrade{StudentID: "s2", SubjectID: maths.ID, Type: grading.TypeComposition, Value: 20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(store.GradesBySubject(maths.ID))
			_, err := store.SubmitGrade(ctx, tt.grade)
			if tt.wantErr {
				var verr *core.ValidationError
				assert.True(t, errors.As(err, &verr), "got %v", err)
				assert.Len(t, store.GradesBySubject(maths.ID), before)
				return
			}
			require.NoError(t, err)
			v, ok := store.LookupGrade(tt.grade.StudentID, maths.ID, tt.grade.Type, tt.grade.Number)
			assert.True(t, ok)
			assert.Equal(t, tt.grade.Value, v)
		})
	}
}

func TestStore_Persistence(t *testing.T) {
	store, kv, logger := setup(t)
	ctx := context.Background()
	maths, err := store.AddSubject(ctx, "c1", grading.Semester1, grading.NewSubject{Name: "Maths"})
	require.NoError(t, err)
	_, err = store.UpsertGrade(ctx, "s1", maths.ID, grading.TypeDevoir, 11, 2)
	require.NoError(t, err)

	kv.SetFailWrites(true)
	_, err = store.UpsertGrade(ctx, "s1", maths.ID, grading.TypeDevoir, 19, 2)
	assert.True(t, errors.Is(err, testutil.ErrWriteFailed))
	assert.True(t, errors.Is(store.DeleteSubject(ctx, maths.ID), testutil.ErrWriteFailed))
	kv.SetFailWrites(false)

	reloaded := grading.NewStore(kv, logger)
	require.NoError(t, reloaded.Init(ctx))
	assert.Equal(t, store.SubjectsByClassAndSemester("c1", grading.Semester1), reloaded.SubjectsByClassAndSemester("c1", grading.Semester1))
	v, ok := reloaded.LookupGrade("s1", maths.ID, grading.TypeDevoir, 2)
	assert.True(t, ok)
	assert.Equal(t, float64(11), v)

	testutil.PutRaw(t, kv, grading.GradesKey, `"nope"`)
	require.NoError(t, reloaded.Init(ctx))
	assert.Empty(t, reloaded.GradesByStudent("s1"))
	assert.Len(t, reloaded.SubjectsByClassAndSemester("c1", grading.Semester1), 1)
	assert.Equal(t, 1, logger.Count("error"))
}
