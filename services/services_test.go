package services

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"messenger-backend/repository"
	"messenger-backend/utils"
)

const testMaxMessageLen = 2000

var cipherOnce = sync.OnceValues(func() (*utils.Cipher, error) {
	return utils.NewCipher("test-secret", "0123456789ab")
})

// newTestServices builds the full service stack on a throwaway database.
func newTestServices(t *testing.T) (*UserService, *ConversationService) {
	t.Helper()

	db, err := repository.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cipher, err := cipherOnce()
	require.NoError(t, err)

	userRepo := repository.NewSQLUserRepo(db)
	convoRepo := repository.NewSQLConversationRepo(db)
	membershipRepo := repository.NewSQLMembershipRepo(db)
	messageRepo := repository.NewSQLMessageRepo(db)

	users := NewUserService(userRepo, membershipRepo, cipher)
	convos := NewConversationService(convoRepo, membershipRepo, messageRepo, userRepo, cipher, testMaxMessageLen)
	return users, convos
}

func testUser(name string) NewUser {
	return NewUser{
		UserName:  name,
		FirstName: "First",
		LastName:  "Last",
		Email:     name + "@example.com",
		Password:  "correct horse",
	}
}
