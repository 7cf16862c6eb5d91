package postgres

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/taskory/admin-access/internal/core/domain"
)

func TestGrantRepository_ListByRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewGrantRepository(mock)

	rows := pgxmock.NewRows([]string{"permission_key", "mode", "allow"}).
		AddRow("tasks.approve", domain.ModeAll, true).
		AddRow("tasks.view", domain.ModeTaskGiver, false)

	mock.ExpectQuery(`SELECT permission_key, mode, allow FROM rbac\.role_permissions`).
		WithArgs("moderator").
		WillReturnRows(rows)

	grants, err := repo.ListByRole(context.Background(), domain.RoleModerator)
	if err != nil {
		t.Fatalf("ListByRole returned error: %v", err)
	}

	if len(grants) != 2 {
		t.Fatalf("expected 2 grants, got %d", len(grants))
	}
	if grants[0].Permission != "tasks.approve" || grants[0].Mode != domain.ModeAll || !grants[0].Allow {
		t.Fatalf("unexpected first grant: %+v", grants[0])
	}
	if grants[1].Role != domain.RoleModerator {
		t.Fatalf("expected role to be carried onto grants, got %q", grants[1].Role)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGrantRepository_ReplaceForRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewGrantRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM rbac\.role_permissions`).
		WithArgs("admin").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`INSERT INTO rbac\.role_permissions`).
		WithArgs("admin", "users.ban", "all", true, "admin", "tasks.approve", "task_giver", true).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	grants := []domain.Grant{
		{Role: domain.RoleAdmin, Permission: "users.ban", Mode: domain.ModeAll, Allow: true},
		{Role: domain.RoleAdmin, Permission: "tasks.approve", Mode: domain.ModeTaskGiver, Allow: true},
	}

	if err := repo.ReplaceForRole(context.Background(), domain.RoleAdmin, grants); err != nil {
		t.Fatalf("ReplaceForRole returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGrantRepository_ReplaceForRoleEmptySet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewGrantRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM rbac\.role_permissions`).
		WithArgs("task_doer").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	if err := repo.ReplaceForRole(context.Background(), domain.RoleTaskDoer, nil); err != nil {
		t.Fatalf("ReplaceForRole returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
