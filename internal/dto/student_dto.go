package dto

import (
	"errors"
	"time"

	"github.com/noah-isme/aula-go-api/internal/grading"
	"github.com/noah-isme/aula-go-api/internal/models"
)

// AllCourses is the course filter sentinel that keeps every student.
const AllCourses = "all"

// StudentRecord is the display-ready form of a student row. Text fields are
// never null and grades always carries the four periods.
type StudentRecord struct {
	ID                           string               `json:"id"`
	FirstName                    string               `json:"firstName"`
	LastName                     string               `json:"lastName"`
	FullName                     string               `json:"fullName"`
	Gender                       string               `json:"gender"`
	BirthDate                    string               `json:"birthDate"`
	Age                          int                  `json:"age"`
	DocumentType                 string               `json:"documentType"`
	DocumentNumber               string               `json:"documentNumber"`
	CourseID                     *string              `json:"courseId"`
	CourseName                   *string              `json:"courseName,omitempty"`
	EnrollmentDate               string               `json:"enrollmentDate"`
	Status                       string               `json:"status"`
	BloodType                    string               `json:"bloodType"`
	HealthInsurance              string               `json:"healthInsurance"`
	Disabilities                 string               `json:"disabilities"`
	SpecialNeeds                 string               `json:"specialNeeds"`
	Allergies                    string               `json:"allergies"`
	Email                        string               `json:"email"`
	Phone                        string               `json:"phone"`
	Address                      string               `json:"address"`
	Neighborhood                 string               `json:"neighborhood"`
	City                         string               `json:"city"`
	GuardianName                 string               `json:"guardianName"`
	GuardianRelationship         string               `json:"guardianRelationship"`
	GuardianPhone                string               `json:"guardianPhone"`
	GuardianEmail                string               `json:"guardianEmail"`
	GuardianOccupation           string               `json:"guardianOccupation"`
	GuardianAddress              string               `json:"guardianAddress"`
	EmergencyContactName         string               `json:"emergencyContactName"`
	EmergencyContactPhone        string               `json:"emergencyContactPhone"`
	EmergencyContactRelationship string               `json:"emergencyContactRelationship"`
	PhotoURL                     string               `json:"photoUrl"`
	Notes                        string               `json:"notes"`
	Grades                       grading.PeriodGrades `json:"grades"`
	GradesRecovered              bool                 `json:"gradesRecovered,omitempty"`
}

// RecordMapper converts persisted rows into StudentRecords.
type RecordMapper struct {
	// DefaultCity fills an empty city column.
	DefaultCity string
	Now         func() time.Time
}

// Map converts row using the mapper's clock and default city.
func (m RecordMapper) Map(row models.Student, courseLabel *string) StudentRecord {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}

	record := NewStudentRecord(row, courseLabel, now())
	if record.City == "" {
		record.City = m.DefaultCity
	}
	return record
}

// MapAll maps rows in order, resolving each course label from the preloaded relation.
func (m RecordMapper) MapAll(rows []models.Student) []StudentRecord {
	records := make([]StudentRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, m.Map(row, CourseLabel(row)))
	}
	return records
}

// NewStudentRecord maps a persisted row into its display record. Age is
// evaluated against now. A nil courseLabel leaves CourseName absent.
func NewStudentRecord(row models.Student, courseLabel *string, now time.Time) StudentRecord {
	grades, err := grading.DecodeGrades(row.Grades)

	record := StudentRecord{
		ID:                           row.ID,
		FirstName:                    row.FirstName,
		LastName:                     row.LastName,
		FullName:                     row.FirstName + " " + row.LastName,
		Gender:                       row.Gender,
		BirthDate:                    formatDate(row.BirthDate),
		Age:                          grading.AgeAt(row.BirthDate, now),
		DocumentType:                 row.DocumentType,
		DocumentNumber:               deref(row.DocumentNumber),
		CourseID:                     row.CourseID,
		EnrollmentDate:               formatDate(row.EnrollmentDate),
		Status:                       row.Status,
		BloodType:                    deref(row.BloodType),
		HealthInsurance:              deref(row.HealthInsurance),
		Disabilities:                 deref(row.Disabilities),
		SpecialNeeds:                 deref(row.SpecialNeeds),
		Allergies:                    deref(row.Allergies),
		Email:                        deref(row.Email),
		Phone:                        deref(row.Phone),
		Address:                      deref(row.Address),
		Neighborhood:                 deref(row.Neighborhood),
		City:                         deref(row.City),
		GuardianName:                 deref(row.GuardianName),
		GuardianRelationship:         deref(row.GuardianRelationship),
		GuardianPhone:                deref(row.GuardianPhone),
		GuardianEmail:                deref(row.GuardianEmail),
		GuardianOccupation:           deref(row.GuardianOccupation),
		GuardianAddress:              deref(row.GuardianAddress),
		EmergencyContactName:         deref(row.EmergencyContactName),
		EmergencyContactPhone:        deref(row.EmergencyContactPhone),
		EmergencyContactRelationship: deref(row.EmergencyContactRelationship),
		PhotoURL:                     deref(row.PhotoURL),
		Notes:                        deref(row.Notes),
		Grades:                       grades,
		GradesRecovered:              errors.Is(err, grading.ErrMalformedGrades),
	}

	if courseLabel != nil {
		label := *courseLabel
		record.CourseName = &label
	}

	return record
}

// CourseLabel formats the preloaded course of row, or returns nil when the
// relation did not resolve.
func CourseLabel(row models.Student) *string {
	if row.Course == nil || !row.HasCourse() {
		return nil
	}
	label := row.Course.Name()
	return &label
}

// FilterByCourse keeps the students enrolled in courseID, preserving order.
// AllCourses returns the input unchanged. The input slice is never modified.
func FilterByCourse(students []StudentRecord, courseID string) []StudentRecord {
	if courseID == AllCourses {
		return students
	}

	filtered := make([]StudentRecord, 0, len(students))
	for _, student := range students {
		if student.CourseID != nil && *student.CourseID == courseID {
			filtered = append(filtered, student)
		}
	}
	return filtered
}

// StudentCreateRequest is the payload of the student form on create.
type StudentCreateRequest struct {
	FirstName            string                `json:"firstName" validate:"required,max=120"`
	LastName             string                `json:"lastName" validate:"required,max=120"`
	Gender               string                `json:"gender" validate:"required,oneof=masculino femenino otro"`
	BirthDate            string                `json:"birthDate" validate:"required,datetime=2006-01-02"`
	DocumentType         string                `json:"documentType" validate:"omitempty,oneof=TI CC RC CE PEP"`
	DocumentNumber       string                `json:"documentNumber" validate:"required,max=32"`
	CourseID             string                `json:"courseId" validate:"omitempty,max=36"`
	EnrollmentDate       string                `json:"enrollmentDate" validate:"omitempty,datetime=2006-01-02"`
	Status               string                `json:"status" validate:"omitempty,oneof=active inactive transferred graduated"`
	Email                string                `json:"email" validate:"omitempty,email"`
	Phone                string                `json:"phone" validate:"omitempty,max=32"`
	Address              string                `json:"address" validate:"omitempty,max=255"`
	City                 string                `json:"city" validate:"omitempty,max=120"`
	GuardianName         string                `json:"guardianName" validate:"omitempty,max=255"`
	GuardianRelationship string                `json:"guardianRelationship" validate:"omitempty,max=64"`
	GuardianPhone        string                `json:"guardianPhone" validate:"omitempty,max=32"`
	GuardianEmail        string                `json:"guardianEmail" validate:"omitempty,email"`
	Notes                string                `json:"notes" validate:"omitempty,max=4000"`
	Grades               *grading.PeriodGrades `json:"grades"`
}

// StudentUpdateRequest carries a partial update. A non-nil empty CourseID
// unassigns the student.
type StudentUpdateRequest struct {
	FirstName            *string               `json:"firstName" validate:"omitempty,min=1,max=120"`
	LastName             *string               `json:"lastName" validate:"omitempty,min=1,max=120"`
	Gender               *string               `json:"gender" validate:"omitempty,oneof=masculino femenino otro"`
	BirthDate            *string               `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	DocumentType         *string               `json:"documentType" validate:"omitempty,oneof=TI CC RC CE PEP"`
	DocumentNumber       *string               `json:"documentNumber" validate:"omitempty,max=32"`
	CourseID             *string               `json:"courseId" validate:"omitempty,max=36"`
	Status               *string               `json:"status" validate:"omitempty,oneof=active inactive transferred graduated"`
	Email                *string               `json:"email" validate:"omitempty,email"`
	Phone                *string               `json:"phone" validate:"omitempty,max=32"`
	Address              *string               `json:"address" validate:"omitempty,max=255"`
	City                 *string               `json:"city" validate:"omitempty,max=120"`
	GuardianName         *string               `json:"guardianName" validate:"omitempty,max=255"`
	GuardianRelationship *string               `json:"guardianRelationship" validate:"omitempty,max=64"`
	GuardianPhone        *string               `json:"guardianPhone" validate:"omitempty,max=32"`
	GuardianEmail        *string               `json:"guardianEmail" validate:"omitempty,email"`
	Notes                *string               `json:"notes" validate:"omitempty,max=4000"`
	Grades               *grading.PeriodGrades `json:"grades"`
}

// StudentListRequest scopes the roster query.
type StudentListRequest struct {
	CourseID string
	Search   string
}

// PhotoUploadResponse describes a stored student photo.
type PhotoUploadResponse struct {
	StudentID string `json:"studentId"`
	URL       string `json:"url"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
