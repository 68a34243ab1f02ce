package tests

import (
	"errors"
	"testing"
	"thesis_repo/repository/schema"
)

func TestSignupAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()
	login, err := c.signup("alice@mail.com", "alice_password", schema.RoleStudent)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.login(login); err != nil {
		t.Fatal(err)
	}

	info, err := c.userInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Email != "alice@mail.com" || info.Role != schema.RoleStudent {
		t.Fatalf("unexpected user info %+v", info)
	}
}

func TestLoginWithBadCredentials(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()
	login, err := c.signup("bob@mail.com", "bob_password", schema.RoleLecturer)
	if err != nil {
		t.Fatal(err)
	}

	err = c.login(loginInfo{Email: login.Email, Password: "wrong_password"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}

	err = c.login(loginInfo{Email: "unknown@mail.com", Password: "whatever"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()
	if _, err := c.signup("carol@mail.com", "carol_password", schema.RoleStudent); err != nil {
		t.Fatal(err)
	}

	_, err := c.signup("carol@mail.com", "other_password", schema.RoleLecturer)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict error for duplicate email, got %v", err)
	}
}

func TestDirectAdminSignupRejected(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()
	_, err := c.signup("eve@mail.com", "eve_password", schema.RoleAdmin)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input error for direct admin signup, got %v", err)
	}

	_, err = c.signup("eve@mail.com", "eve_password", "LIBRARIAN")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input error for unknown role, got %v", err)
	}
}

func TestAdminUserManagement(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.createUser("reviewer@mail.com", "reviewer_password", schema.RoleAdmin); err != nil {
		t.Fatal(err)
	}

	reviewer := env.newClient()
	if err := reviewer.login(loginInfo{Email: "reviewer@mail.com", Password: "reviewer_password"}); err != nil {
		t.Fatal(err)
	}

	info, err := reviewer.userInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Role != schema.RoleAdmin {
		t.Fatalf("expected admin role, got %v", info.Role)
	}

	users, err := admin.listUsers(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %+v", users)
	}
}

func TestUserListFiltering(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.newStudent("alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.newLecturer("prof"); err != nil {
		t.Fatal(err)
	}

	students, err := admin.listUsers(map[string]string{"role": schema.RoleStudent})
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 1 || students[0].Email != "alice@mail.com" {
		t.Fatalf("unexpected role filtered listing %+v", students)
	}

	byEmail, err := admin.listUsers(map[string]string{"email": "prof@mail.com"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byEmail) != 1 || byEmail[0].Role != schema.RoleLecturer {
		t.Fatalf("unexpected email filtered listing %+v", byEmail)
	}

	_, err = admin.listUsers(map[string]string{"role": "LIBRARIAN"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input error for unknown role filter, got %v", err)
	}
}

func TestUserAdminEndpointsAreGated(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("frank")
	if err != nil {
		t.Fatal(err)
	}

	_, err = student.listUsers(nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}

	err = student.createUser("x@mail.com", "x_password", schema.RoleAdmin)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestUnauthenticatedAccessRejected(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()

	_, err := c.myTheses()
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}

	_, err = c.userInfo()
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}
