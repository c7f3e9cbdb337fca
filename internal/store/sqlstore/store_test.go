package sqlstore

import (
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rgoyal/huddle/internal/models"
)

var testStore *SQLStore

func SetupTestDB(t *testing.T) {
	var err error
	testStore, err = New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
}

func TeardownTestDB() {
	testStore.db.Close()
}

// mustUser creates a user and returns its id.
func mustUser(t *testing.T, username string) int {
	t.Helper()
	user := &models.User{Username: username, Password: "pass"}
	if err := testStore.CreateUser(user); err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user.ID
}
