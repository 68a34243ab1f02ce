package tests

import (
	"errors"
	"testing"
)

func TestAddSupervisorIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.newLecturer("prof"); err != nil {
		t.Fatal(err)
	}

	if err := student.addSupervisor("prof@mail.com"); err != nil {
		t.Fatal(err)
	}
	if err := student.addSupervisor("prof@mail.com"); err != nil {
		t.Fatalf("second add of same supervisor should be a no-op success, got %v", err)
	}

	supervisors, err := student.mySupervisors()
	if err != nil {
		t.Fatal(err)
	}
	if len(supervisors) != 1 {
		t.Fatalf("expected exactly one assignment, got %+v", supervisors)
	}
	if !supervisors[0].Main {
		t.Fatal("first supervisor should be the main supervisor")
	}
}

func TestAddSupervisorUnknownEmail(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("bob")
	if err != nil {
		t.Fatal(err)
	}

	err = student.addSupervisor("nobody@mail.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestAddSupervisorRequiresLecturerRole(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("carol")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.newStudent("dave"); err != nil {
		t.Fatal(err)
	}

	err = student.addSupervisor("dave@mail.com")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input error adding non-lecturer, got %v", err)
	}

	supervisors, err := student.mySupervisors()
	if err != nil {
		t.Fatal(err)
	}
	if len(supervisors) != 0 {
		t.Fatalf("assignment created for non-lecturer: %+v", supervisors)
	}
}

func TestCoSupervisorsAreNotMain(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("erin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.newLecturer("first"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.newLecturer("second"); err != nil {
		t.Fatal(err)
	}

	if err := student.addSupervisor("first@mail.com"); err != nil {
		t.Fatal(err)
	}
	if err := student.addSupervisor("second@mail.com"); err != nil {
		t.Fatal(err)
	}

	supervisors, err := student.mySupervisors()
	if err != nil {
		t.Fatal(err)
	}
	if len(supervisors) != 2 {
		t.Fatalf("expected 2 assignments, got %+v", supervisors)
	}
	for _, sup := range supervisors {
		if sup.Email == "first@mail.com" && !sup.Main {
			t.Fatal("first supervisor lost main flag")
		}
		if sup.Email == "second@mail.com" && sup.Main {
			t.Fatal("co-supervisor should not be main")
		}
	}
}

func TestLecturerSuperviseeViews(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("frank")
	if err != nil {
		t.Fatal(err)
	}
	lecturer, err := env.newLecturer("prof")
	if err != nil {
		t.Fatal(err)
	}
	other, err := env.newLecturer("outsider")
	if err != nil {
		t.Fatal(err)
	}

	if err := student.addSupervisor("prof@mail.com"); err != nil {
		t.Fatal(err)
	}

	thesisId := submitTestThesis(t, student, "supervised work")

	supervisees, err := lecturer.mySupervisees()
	if err != nil {
		t.Fatal(err)
	}
	if len(supervisees) != 1 {
		t.Fatalf("expected one supervisee, got %+v", supervisees)
	}
	if supervisees[0].Email != "frank@mail.com" || supervisees[0].ThesisCount != 1 {
		t.Fatalf("unexpected supervisee entry %+v", supervisees[0])
	}

	theses, err := lecturer.superviseeTheses(supervisees[0].StudentId.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(theses) != 1 || theses[0].Title != "supervised work" {
		t.Fatalf("unexpected supervisee theses %+v", theses)
	}

	feedback, err := lecturer.superviseeFeedback(thesisId)
	if err != nil {
		t.Fatal(err)
	}
	if feedback.Thesis.Id.String() != thesisId {
		t.Fatalf("unexpected feedback thesis %+v", feedback.Thesis)
	}

	_, err = other.superviseeFeedback(thesisId)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error for non-supervising lecturer, got %v", err)
	}

	_, err = other.superviseeTheses(supervisees[0].StudentId.String())
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error for non-supervising lecturer, got %v", err)
	}
}

func TestLecturerDirectory(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("grace")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.newLecturer("prof"); err != nil {
		t.Fatal(err)
	}

	lecturers, err := student.listLecturers()
	if err != nil {
		t.Fatal(err)
	}
	if len(lecturers) != 1 || lecturers[0].Email != "prof@mail.com" {
		t.Fatalf("unexpected lecturer directory %+v", lecturers)
	}
}

func TestSupervisorEndpointsAreRoleGated(t *testing.T) {
	env := setupTestEnv(t)

	lecturer, err := env.newLecturer("prof")
	if err != nil {
		t.Fatal(err)
	}
	student, err := env.newStudent("henry")
	if err != nil {
		t.Fatal(err)
	}

	err = lecturer.addSupervisor("prof@mail.com")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error for lecturer on student endpoint, got %v", err)
	}

	_, err = student.mySupervisees()
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error for student on lecturer endpoint, got %v", err)
	}
}
