package schedule

import (
	"testing"
	"time"

	"github.com/villageline/villageline/pkg/villageline/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func createTestGroup(t *testing.T, db *gorm.DB, name, number string) models.UserGroup {
	group := models.UserGroup{Name: name, IncomingNumber: number}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("Failed to create test group: %v", err)
	}
	return group
}

func createTestVolunteer(t *testing.T, db *gorm.DB, name string, groupID uint) models.Volunteer {
	volunteer := models.Volunteer{
		Name:        name,
		Number:      "+447700900123",
		Email:       name + "@example.com",
		SendEmails:  true,
		UserGroupID: groupID,
	}
	if err := db.Create(&volunteer).Error; err != nil {
		t.Fatalf("Failed to create test volunteer: %v", err)
	}
	return volunteer
}

func createTestShift(t *testing.T, db *gorm.DB, volunteer models.Volunteer, day string, start, end int) models.Shift {
	shift := models.Shift{
		VolunteerID: volunteer.ID,
		Day:         day,
		StartTime:   start,
		EndTime:     end,
		UserGroupID: volunteer.UserGroupID,
	}
	if err := db.Create(&shift).Error; err != nil {
		t.Fatalf("Failed to create test shift: %v", err)
	}
	return shift
}

func TestShiftsAtEmpty(t *testing.T) {
	db := setupTestDB(t)
	group := createTestGroup(t, db, "North Line", "+442071838750")

	for _, day := range []string{models.Monday, models.Friday, models.Sunday} {
		for _, hour := range []int{6, 12, 23} {
			shifts, err := ShiftsAt(db, group.ID, day, hour)
			if err != nil {
				t.Fatalf("ShiftsAt failed: %v", err)
			}
			if len(shifts) != 0 {
				t.Errorf("Expected no shifts for %s %d, got %d", day, hour, len(shifts))
			}
		}
	}
}

func TestShiftWindowIsHalfOpen(t *testing.T) {
	db := setupTestDB(t)
	group := createTestGroup(t, db, "North Line", "+442071838750")
	volunteer := createTestVolunteer(t, db, "alice", group.ID)
	createTestShift(t, db, volunteer, models.Monday, 8, 11)

	for _, hour := range []int{8, 9, 10} {
		shifts, err := ShiftsAt(db, group.ID, models.Monday, hour)
		if err != nil {
			t.Fatalf("ShiftsAt failed: %v", err)
		}
		if len(shifts) != 1 || shifts[0].Volunteer.ID != volunteer.ID {
			t.Errorf("Expected volunteer on shift Monday at %d", hour)
		}
	}

	// End hour and everything else is off shift
	offSlots := []struct {
		day  string
		hour int
	}{
		{models.Monday, 7},
		{models.Monday, 11},
		{models.Tuesday, 9},
		{models.Sunday, 9},
	}
	for _, slot := range offSlots {
		shifts, err := ShiftsAt(db, group.ID, slot.day, slot.hour)
		if err != nil {
			t.Fatalf("ShiftsAt failed: %v", err)
		}
		if len(shifts) != 0 {
			t.Errorf("Expected no shifts for %s %d", slot.day, slot.hour)
		}
	}
}

func TestShiftsAtScopedToGroup(t *testing.T) {
	db := setupTestDB(t)
	group := createTestGroup(t, db, "North Line", "+442071838750")
	other := createTestGroup(t, db, "South Line", "+442071838751")
	volunteer := createTestVolunteer(t, db, "alice", group.ID)
	createTestShift(t, db, volunteer, models.Monday, 8, 11)

	shifts, err := ShiftsAt(db, other.ID, models.Monday, 9)
	if err != nil {
		t.Fatalf("ShiftsAt failed: %v", err)
	}
	if len(shifts) != 0 {
		t.Errorf("Expected no shifts for the other group, got %d", len(shifts))
	}
}

func TestVolunteerAtOverlapTieBreak(t *testing.T) {
	db := setupTestDB(t)
	group := createTestGroup(t, db, "North Line", "+442071838750")
	first := createTestVolunteer(t, db, "alice", group.ID)
	second := createTestVolunteer(t, db, "bob", group.ID)
	// Overlapping shifts: the lowest shift id wins.
	createTestShift(t, db, first, models.Monday, 8, 12)
	createTestShift(t, db, second, models.Monday, 9, 11)

	at := time.Date(2026, 8, 31, 10, 0, 0, 0, models.London) // a Monday
	volunteer, err := VolunteerAt(db, group.ID, at)
	if err != nil {
		t.Fatalf("VolunteerAt failed: %v", err)
	}
	if volunteer == nil || volunteer.ID != first.ID {
		t.Errorf("Expected first-created shift's volunteer to win the overlap")
	}
}

func TestVolunteerAtNobodyOnShift(t *testing.T) {
	db := setupTestDB(t)
	group := createTestGroup(t, db, "North Line", "+442071838750")
	volunteer := createTestVolunteer(t, db, "alice", group.ID)
	createTestShift(t, db, volunteer, models.Monday, 8, 11)

	at := time.Date(2026, 9, 1, 10, 0, 0, 0, models.London) // a Tuesday
	got, err := VolunteerAt(db, group.ID, at)
	if err != nil {
		t.Fatalf("VolunteerAt failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected no volunteer on Tuesday, got %s", got.Name)
	}
}
