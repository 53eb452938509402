package mongo

import (
	"context"
	"testing"

	apperrors "maitred/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestExecuteTransaction_StoreUnavailable(t *testing.T) {
	// A client that never connected has no session pool, so starting a
	// session fails the same way it does when the store is down.
	client, err := mongo.NewClient(options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		t.Fatalf("unexpected client error: %v", err)
	}

	tm := NewTransactionManager(client)
	err = tm.ExecuteTransaction(context.Background(), func(sessCtx mongo.SessionContext) error {
		t.Fatal("transaction body must not run without a session")
		return nil
	})
	if err == nil {
		t.Fatal("expected unavailable error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeUnavailable {
		t.Errorf("expected code %s, got %s", apperrors.CodeUnavailable, appErr.Code)
	}
}
