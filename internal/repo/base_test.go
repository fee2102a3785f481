package repo

import (
	"context"
	"testing"

	"github.com/angelmondragon/stockroom-backend/internal/testutil"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/google/uuid"
)

func TestBaseDB_BindsContext(t *testing.T) {
	db := testutil.NewDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)

	if withCtx.Statement == nil || withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through")
	}

	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
	if base.Bind(nil).db != db {
		t.Fatalf("expected Bind(nil) to keep the connection")
	}
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	if got := ContainsPattern(" 50%_Off "); got != `%50\%\_off%` {
		t.Fatalf("unexpected pattern %q", got)
	}
}

func TestMatchAny(t *testing.T) {
	db := testutil.NewDB(t)
	rows := []models.Warehouse{
		{Name: "North Hub", Code: "NH-1"},
		{Name: "South", Code: "S_1"},
		{Name: "East", Code: "E1"},
	}
	for i := range rows {
		rows[i].ID = uuid.New()
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	var found []models.Warehouse
	if err := MatchAny(db.Model(&models.Warehouse{}), "hub", "name", "code").Find(&found).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(found) != 1 || found[0].Code != "NH-1" {
		t.Fatalf("expected North Hub only, got %+v", found)
	}

	found = nil
	if err := MatchAny(db.Model(&models.Warehouse{}), "s_", "name", "code").Find(&found).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(found) != 1 || found[0].Code != "S_1" {
		t.Fatalf("underscore should match literally, got %+v", found)
	}

	found = nil
	if err := MatchAny(db.Model(&models.Warehouse{}), "  ", "name").Find(&found).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("blank term should not filter, got %d", len(found))
	}
}
