package store

import (
	"testing"

	"github.com/kondate-app/kondate/internal/database"
	"github.com/kondate-app/kondate/internal/model"
)

func setupMemberTestDB(t *testing.T) *FamilyMemberStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewFamilyMemberStore(db)
}

func TestMemberCRUD(t *testing.T) {
	ms := setupMemberTestDB(t)

	m, err := ms.Create("Alice", model.RoleAdmin, "#FF0000", "👩")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Name != "Alice" || m.Role != model.RoleAdmin {
		t.Errorf("member = %+v", m)
	}
	if m.HasPIN {
		t.Error("new member should have no PIN")
	}

	updated, err := ms.Update(m.ID, "Alice", model.RoleMember, "#00FF00", "🧑")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != model.RoleMember || updated.Color != "#00FF00" {
		t.Errorf("updated = %+v", updated)
	}

	if err := ms.Delete(m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("member survived delete: %+v", got)
	}
}

func TestMemberListRosterOrder(t *testing.T) {
	ms := setupMemberTestDB(t)

	a, _ := ms.Create("A", model.RoleAdmin, "#111111", "😀")
	b, _ := ms.Create("B", model.RoleMember, "#222222", "😀")
	c, _ := ms.Create("C", model.RoleMember, "#333333", "😀")

	// Reorder: C first.
	if err := ms.UpdateSortOrder([]int64{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("update sort order: %v", err)
	}

	members, err := ms.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("len = %d", len(members))
	}
	if members[0].Name != "C" || members[1].Name != "A" || members[2].Name != "B" {
		t.Errorf("order = %s,%s,%s", members[0].Name, members[1].Name, members[2].Name)
	}
}

func TestMemberPIN(t *testing.T) {
	ms := setupMemberTestDB(t)

	m, _ := ms.Create("Kid", model.RoleMember, "#111111", "🧒")

	if err := ms.SetPIN(m.ID, "hashed"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	hash, err := ms.GetPINHash(m.ID)
	if err != nil {
		t.Fatalf("get pin: %v", err)
	}
	if hash != "hashed" {
		t.Errorf("hash = %q", hash)
	}

	got, _ := ms.GetByID(m.ID)
	if !got.HasPIN {
		t.Error("HasPIN should be true after SetPIN")
	}

	if err := ms.ClearPIN(m.ID); err != nil {
		t.Fatalf("clear pin: %v", err)
	}
	hash, _ = ms.GetPINHash(m.ID)
	if hash != "" {
		t.Errorf("hash after clear = %q", hash)
	}
}

func TestMemberNameExists(t *testing.T) {
	ms := setupMemberTestDB(t)

	m, _ := ms.Create("Alice", model.RoleAdmin, "#111111", "😀")

	exists, err := ms.NameExists("Alice", 0)
	if err != nil {
		t.Fatalf("name exists: %v", err)
	}
	if !exists {
		t.Error("Alice should exist")
	}
	exists, _ = ms.NameExists("Alice", m.ID)
	if exists {
		t.Error("excluding Alice's own id should report not exists")
	}
}
