package ch

import (
	"context"
	"testing"
)

func TestOpen_Lazy(t *testing.T) {
	t.Parallel()

	cl, err := Open(context.Background(), Config{URL: "clickhouse://127.0.0.1:9000/default", Role: "api", Tag: "test"})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if cl == nil {
		t.Fatalf("Open returned nil client")
	}
	if err := cl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpen_EmptyURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestInsert_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	var cl *CH
	if err := cl.Insert(context.Background(), "tier2_outcomes", nil); err != nil {
		t.Fatalf("empty insert should be a no op, got %v", err)
	}
}

func TestNilClient_Errors(t *testing.T) {
	t.Parallel()

	cl := &CH{}
	ctx := context.Background()
	if err := cl.Insert(ctx, "t", [][]any{{1}}); err == nil {
		t.Fatalf("Insert on nil conn should fail")
	}
	if err := cl.Exec(ctx, "SELECT 1"); err == nil {
		t.Fatalf("Exec on nil conn should fail")
	}
	if err := cl.Ping(ctx); err == nil {
		t.Fatalf("Ping on nil conn should fail")
	}
	if err := cl.Close(); err != nil {
		t.Fatalf("Close on nil conn: %v", err)
	}
}

func TestClientInfo(t *testing.T) {
	t.Parallel()

	info := clientInfo("tier2", " v1 ")
	if len(info.Products) == 0 {
		t.Fatalf("no products")
	}
	if info.Products[0].Name != "worlddex" || info.Products[0].Version != "v1" {
		t.Fatalf("first product = %+v", info.Products[0])
	}
	if info.Products[1].Name != "role" || info.Products[1].Version != "tier2" {
		t.Fatalf("role product = %+v", info.Products[1])
	}
}
