package cache

import (
	"context"
	"os"
	"testing"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("CTABRIDGE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CTABRIDGE_TEST_MONGO_URI not set")
	}
	testStore(t, func(t *testing.T) Store {
		s, err := OpenMongo(context.Background(), uri, "ctabridge_test")
		if err != nil {
			t.Fatalf("OpenMongo() error = %v", err)
		}
		if _, err := s.Clear(context.Background()); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		return s
	})
}
