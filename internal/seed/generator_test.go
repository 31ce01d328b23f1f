package seed_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/seed"
	"github.com/meridian-crm/meridian/internal/service"
	"github.com/meridian-crm/meridian/internal/testutil"
)

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	generator := seed.NewGenerator(db.Storage, 42, io.Discard)
	created, err := generator.Generate(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, 40, created)

	users, err := db.Storage.ListUsers(ctx, service.UserFilter{Limit: 100})
	require.NoError(t, err)
	require.Len(t, users, 40)

	registered := 0
	for _, u := range users {
		assert.False(t, u.DownloadDate.IsZero())
		if u.RegistrationDate == nil {
			continue
		}
		registered++
		assert.False(t, u.RegistrationDate.Before(u.DownloadDate),
			"registration can never precede the download")

		history, err := db.Storage.GetLifecycleHistory(ctx, u.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, history, "registered users get an initial history row")
	}

	assert.Greater(t, registered, 0)
	assert.Less(t, registered, 40, "some downloads never convert")
}

func TestGenerate_ContextCancellation(t *testing.T) {
	db := testutil.SetupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	created, err := seed.NewGenerator(db.Storage, 1, io.Discard).Generate(ctx, 10)
	assert.Error(t, err)
	assert.Zero(t, created)
}
