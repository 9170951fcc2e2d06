package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// StudentStatusActive marks a currently enrolled student.
	StudentStatusActive = "active"
	// StudentStatusInactive marks a student temporarily not attending.
	StudentStatusInactive = "inactive"
	// StudentStatusTransferred marks a student moved to another institution.
	StudentStatusTransferred = "transferred"
	// StudentStatusGraduated marks a student who completed the cycle.
	StudentStatusGraduated = "graduated"
)

const (
	GenderMale   = "masculino"
	GenderFemale = "femenino"
	GenderOther  = "otro"
)

// DocumentTypeDefault is the identity document assumed for minors.
const DocumentTypeDefault = "TI"

// Student is a persisted student row. Optional text columns are nullable and
// grades is stored as a JSON document keyed by period.
type Student struct {
	ID                           string         `gorm:"primaryKey;size:36" json:"id"`
	FirstName                    string         `gorm:"size:120;not null" json:"first_name"`
	LastName                     string         `gorm:"size:120;not null;index" json:"last_name"`
	Gender                       string         `gorm:"size:16;not null" json:"gender"`
	BirthDate                    time.Time      `gorm:"type:date" json:"birth_date"`
	DocumentType                 string         `gorm:"size:8;not null;default:TI" json:"document_type"`
	DocumentNumber               *string        `gorm:"size:32" json:"document_number"`
	CourseID                     *string        `gorm:"size:36;index" json:"course_id"`
	EnrollmentDate               time.Time      `gorm:"type:date" json:"enrollment_date"`
	Status                       string         `gorm:"size:16;not null;default:active;index" json:"status"`
	BloodType                    *string        `gorm:"size:8" json:"blood_type"`
	HealthInsurance              *string        `gorm:"size:120" json:"health_insurance"`
	Disabilities                 *string        `gorm:"type:text" json:"disabilities"`
	SpecialNeeds                 *string        `gorm:"type:text" json:"special_needs"`
	Allergies                    *string        `gorm:"type:text" json:"allergies"`
	Email                        *string        `gorm:"size:255" json:"email"`
	Phone                        *string        `gorm:"size:32" json:"phone"`
	Address                      *string        `gorm:"size:255" json:"address"`
	Neighborhood                 *string        `gorm:"size:120" json:"neighborhood"`
	City                         *string        `gorm:"size:120" json:"city"`
	GuardianName                 *string        `gorm:"size:255" json:"guardian_name"`
	GuardianRelationship         *string        `gorm:"size:64" json:"guardian_relationship"`
	GuardianPhone                *string        `gorm:"size:32" json:"guardian_phone"`
	GuardianEmail                *string        `gorm:"size:255" json:"guardian_email"`
	GuardianOccupation           *string        `gorm:"size:120" json:"guardian_occupation"`
	GuardianAddress              *string        `gorm:"size:255" json:"guardian_address"`
	EmergencyContactName         *string        `gorm:"size:255" json:"emergency_contact_name"`
	EmergencyContactPhone        *string        `gorm:"size:32" json:"emergency_contact_phone"`
	EmergencyContactRelationship *string        `gorm:"size:64" json:"emergency_contact_relationship"`
	PhotoURL                     *string        `gorm:"size:512" json:"photo_url"`
	Notes                        *string        `gorm:"type:text" json:"notes"`
	Grades                       datatypes.JSON `json:"grades"`
	CreatedAt                    time.Time      `json:"created_at"`
	UpdatedAt                    time.Time      `json:"updated_at"`
	Course                       *Course        `gorm:"foreignKey:CourseID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"course,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(s.ID) == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// HasCourse reports whether the student is assigned to a course.
func (s Student) HasCourse() bool {
	return s.CourseID != nil && *s.CourseID != ""
}
