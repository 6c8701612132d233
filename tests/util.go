// Package testutil creates fixtures straight through the repositories.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/escola/core/calendar"
	"github.com/trezcool/escola/core/classroom"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/subject"
	"github.com/trezcool/escola/core/teacher"
)

func IntPtr(i int) *int { return &i }

func StrPtr(s string) *string { return &s }

func timestamp(createdAt []time.Time) time.Time {
	if len(createdAt) > 0 {
		return createdAt[0].UTC()
	}
	return time.Now().UTC()
}

func CreateSubject(t *testing.T, repo subject.Repository, name, code string, weeklyMinutes *int, createdAt ...time.Time) subject.Subject {
	tstamp := timestamp(createdAt)
	sub, err := repo.CreateSubject(context.Background(), subject.Subject{
		Name:          name,
		Code:          code,
		WeeklyMinutes: weeklyMinutes,
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateClass(t *testing.T, repo classroom.Repository, name string, year int, maxCapacity *int, createdAt ...time.Time) classroom.Class {
	tstamp := timestamp(createdAt)
	cls, err := repo.CreateClass(context.Background(), classroom.Class{
		Name:        name,
		Year:        year,
		Shift:       classroom.ShiftMorning,
		MaxCapacity: maxCapacity,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	name, registration string,
	classID *string,
	status string,
	createdAt ...time.Time,
) student.Student {
	tstamp := timestamp(createdAt)
	if status == "" {
		status = student.StatusActive
	}
	std, err := repo.CreateStudent(context.Background(), student.Student{
		FullName:           name,
		RegistrationNumber: registration,
		ClassID:            classID,
		Status:             status,
		CreatedAt:          tstamp,
		UpdatedAt:          tstamp,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateTeacher(t *testing.T, repo teacher.Repository, name, email string, subjectIDs ...string) teacher.Teacher {
	tstamp := time.Now().UTC()
	if subjectIDs == nil {
		subjectIDs = []string{}
	}
	tch, err := repo.CreateTeacher(context.Background(), teacher.Teacher{
		FullName:   name,
		Email:      email,
		Status:     teacher.StatusActive,
		SubjectIDs: subjectIDs,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tch
}

// Assign makes the teacher responsible for the subject in the class.
func Assign(t *testing.T, repo teacher.Repository, teacherID, subjectID, classID string, createdAt ...time.Time) teacher.Assignment {
	asg, err := repo.CreateAssignment(context.Background(), teacher.Assignment{
		TeacherID: teacherID,
		SubjectID: subjectID,
		ClassID:   &classID,
		CreatedAt: timestamp(createdAt),
	})
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	return asg
}

func CreateEvent(t *testing.T, repo calendar.Repository, title, eventType, startDate string) calendar.Event {
	tstamp := time.Now().UTC()
	evt, err := repo.CreateEvent(context.Background(), calendar.Event{
		Title:     title,
		EventType: eventType,
		StartDate: startDate,
		AllDay:    true,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}
	return evt
}

// UnknownID is a well-formed ID that matches no row.
const UnknownID = "00000000-0000-4000-8000-000000000000"
