//go:build integration

package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"credentia/pkg/domain"
	"credentia/pkg/platform/sentinel"
	"credentia/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	store := NewPostgresStore(pg.DB)
	require.NoError(t, store.Migrate(ctx))

	student := domain.Address("addr-student")
	base := Credential{
		Student:                 student,
		CourseID:                7,
		SkillAchieved:           "go",
		CompetencyLevel:         85,
		IssueDate:               time.Now().UTC().Truncate(time.Microsecond),
		VerificationFingerprint: "fp-1",
		AssessmentScore:         92,
	}

	t.Run("create assigns dense token ids", func(t *testing.T) {
		first, err := store.Create(ctx, base)
		require.NoError(t, err)
		second, err := store.Create(ctx, base)
		require.NoError(t, err)
		require.Equal(t, first+1, second)
	})

	t.Run("find round-trips fields including zero expiry", func(t *testing.T) {
		id, err := store.Create(ctx, base)
		require.NoError(t, err)

		got, err := store.FindByTokenID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, student, got.Student)
		require.Equal(t, base.CourseID, got.CourseID)
		require.Equal(t, base.SkillAchieved, got.SkillAchieved)
		require.True(t, got.ExpiryDate.IsZero())
		require.False(t, got.IsRevoked)
	})

	t.Run("update flips revocation", func(t *testing.T) {
		id, err := store.Create(ctx, base)
		require.NoError(t, err)

		got, err := store.FindByTokenID(ctx, id)
		require.NoError(t, err)
		got.IsRevoked = true
		require.NoError(t, store.Update(ctx, got))

		got, err = store.FindByTokenID(ctx, id)
		require.NoError(t, err)
		require.True(t, got.IsRevoked)
	})

	t.Run("unknown token id yields not found", func(t *testing.T) {
		_, err := store.FindByTokenID(ctx, 999999)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		err = store.Update(ctx, Credential{TokenID: 999999})
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list by student in issuance order", func(t *testing.T) {
		other := base
		other.Student = domain.Address("addr-other")
		_, err := store.Create(ctx, other)
		require.NoError(t, err)

		list, err := store.ListByStudent(ctx, other.Student)
		require.NoError(t, err)
		require.Len(t, list, 1)

		all, err := store.ListByStudent(ctx, student)
		require.NoError(t, err)
		for i := 1; i < len(all); i++ {
			require.Greater(t, all[i].TokenID, all[i-1].TokenID)
		}
	})
}
