package models

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func createShiftFixtures(t *testing.T, db *gorm.DB) (UserGroup, Volunteer) {
	group := UserGroup{Name: "North Line", IncomingNumber: "+442071838750"}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("Failed to create group: %v", err)
	}
	volunteer := Volunteer{
		Name:        "Alice",
		Number:      "+447700900123",
		Email:       "alice@example.com",
		SendEmails:  true,
		UserGroupID: group.ID,
	}
	if err := db.Create(&volunteer).Error; err != nil {
		t.Fatalf("Failed to create volunteer: %v", err)
	}
	return group, volunteer
}

func TestShiftCreate(t *testing.T) {
	db := setupTestDB(t)
	AutoMigrate(db)
	group, volunteer := createShiftFixtures(t, db)

	shift := Shift{
		VolunteerID: volunteer.ID,
		Day:         Monday,
		StartTime:   8,
		EndTime:     11,
		UserGroupID: group.ID,
	}
	if err := db.Create(&shift).Error; err != nil {
		t.Fatalf("Failed to create shift: %v", err)
	}
	if shift.ID == 0 {
		t.Error("Expected shift ID to be set after create")
	}
}

func TestShiftGroupMustMatchVolunteerGroup(t *testing.T) {
	db := setupTestDB(t)
	AutoMigrate(db)
	_, volunteer := createShiftFixtures(t, db)

	other := UserGroup{Name: "South Line", IncomingNumber: "+442071838751"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("Failed to create second group: %v", err)
	}

	shift := Shift{
		VolunteerID: volunteer.ID,
		Day:         Monday,
		StartTime:   8,
		EndTime:     11,
		UserGroupID: other.ID,
	}
	err := db.Create(&shift).Error
	if !errors.Is(err, ErrShiftGroupMismatch) {
		t.Errorf("Expected ErrShiftGroupMismatch, got %v", err)
	}
}

func TestShiftHourValidation(t *testing.T) {
	db := setupTestDB(t)
	AutoMigrate(db)
	group, volunteer := createShiftFixtures(t, db)

	tests := []struct {
		name    string
		start   int
		end     int
		day     string
		wantErr error
	}{
		{"start below range", 5, 11, Monday, ErrShiftHourRange},
		{"end above range", 8, 24, Monday, ErrShiftHourRange},
		{"start after end", 11, 8, Monday, ErrShiftHourOrder},
		{"zero length", 8, 8, Monday, ErrShiftHourOrder},
		{"bad day", 8, 11, "Funday", ErrShiftDay},
	}
	for _, tt := range tests {
		shift := Shift{
			VolunteerID: volunteer.ID,
			Day:         tt.day,
			StartTime:   tt.start,
			EndTime:     tt.end,
			UserGroupID: group.ID,
		}
		err := db.Create(&shift).Error
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}
}
