package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-backend/apperror"
)

func TestUserCreateAndFind(t *testing.T) {
	ctx := context.Background()
	users, _ := newTestServices(t)

	created, err := users.Create(ctx, testUser("alice"))
	require.NoError(t, err)
	assert.Greater(t, created.ID, 0)
	assert.Equal(t, "alice", created.UserName)

	byID, err := users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.UserName)
	assert.Equal(t, "alice@example.com", byID.Email)

	byName, err := users.FindByUserName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, created.ID, byName.ID)

	missing, err := users.FindByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserCreateValidation(t *testing.T) {
	ctx := context.Background()
	users, _ := newTestServices(t)

	in := testUser("bob")
	in.Email = ""
	_, err := users.Create(ctx, in)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	users, _ := newTestServices(t)

	_, err := users.Create(ctx, testUser("alice"))
	require.NoError(t, err)

	_, err = users.Create(ctx, testUser("alice"))
	assert.Equal(t, apperror.DuplicateUsername, apperror.KindOf(err))
}

func TestValidatePassword(t *testing.T) {
	ctx := context.Background()
	users, _ := newTestServices(t)

	created, err := users.Create(ctx, testUser("alice"))
	require.NoError(t, err)

	loaded, err := users.FindByID(ctx, created.ID)
	require.NoError(t, err)

	assert.True(t, users.ValidatePassword(loaded, "correct horse"))
	assert.False(t, users.ValidatePassword(loaded, "wrong horse"))
	assert.False(t, users.ValidatePassword(nil, "correct horse"))

	noSalt := *loaded
	noSalt.PasswordSalt = ""
	assert.False(t, users.ValidatePassword(&noSalt, "correct horse"))
}

func TestUserUpdateProfile(t *testing.T) {
	ctx := context.Background()
	users, _ := newTestServices(t)

	created, err := users.Create(ctx, testUser("alice"))
	require.NoError(t, err)

	updated, err := users.Update(ctx, created.ID, UpdateUser{FirstName: "Alicia"})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "Last", updated.LastName)

	_, err = users.Update(ctx, created.ID, UpdateUser{})
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
}

func TestUserUpdatePassword(t *testing.T) {
	ctx := context.Background()
	users, _ := newTestServices(t)

	created, err := users.Create(ctx, testUser("alice"))
	require.NoError(t, err)

	require.NoError(t, users.UpdatePassword(ctx, created.ID, "new password"))

	loaded, err := users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, users.ValidatePassword(loaded, "new password"))
	assert.False(t, users.ValidatePassword(loaded, "correct horse"))

	err = users.UpdatePassword(ctx, 9999, "whatever")
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestUserDeleteCascadesMemberships(t *testing.T) {
	ctx := context.Background()
	users, convos := newTestServices(t)

	alice, err := users.Create(ctx, testUser("alice"))
	require.NoError(t, err)

	convo, err := convos.Create(ctx, "general", alice.ID)
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, alice.ID))

	gone, err := users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, gone, "deleted user reads as not found")

	member, err := convos.HasUser(ctx, convo.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, member, "memberships are removed with the user")

	err = users.Delete(ctx, alice.ID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}
