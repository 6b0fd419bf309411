package institute

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/iypan/shiksha/core"
)

type Center struct {
	CenterID   int         `db:"center_id" json:"center_id"`
	CenterName string      `db:"center_name" json:"center_name"`
	StateID    int         `db:"state_id" json:"state_id"`
	StateName  null.String `db:"state_name" json:"state_name,omitempty"`
	AdminID    null.Int    `db:"admin_id" json:"admin_id,omitempty"`
	AdminName  null.String `db:"admin_name" json:"admin_name,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

type State struct {
	StateID   int       `db:"state_id" json:"state_id"`
	StateName string    `db:"state_name" json:"state_name"`
	AdminID   null.Int  `db:"admin_id" json:"admin_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Batch struct {
	BatchID    int         `db:"batch_id" json:"batch_id"`
	BatchName  string      `db:"batch_name" json:"batch_name"`
	Language   string      `db:"language" json:"language"`
	Type       string      `db:"type" json:"type"`
	Duration   null.String `db:"duration" json:"duration,omitempty"`
	CenterID   int         `db:"center_id" json:"center_id"`
	CenterName null.String `db:"center_name" json:"center_name,omitempty"`
	TeacherID  null.Int    `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

type Course struct {
	CourseID   int         `db:"course_id" json:"course_id"`
	CourseName string      `db:"course_name" json:"course_name"`
	Language   string      `db:"language" json:"language"`
	Duration   null.String `db:"duration" json:"duration,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

type Teacher struct {
	TeacherID  int         `db:"teacher_id" json:"teacher_id"`
	Name       string      `db:"name" json:"name"`
	Email      null.String `db:"email" json:"email,omitempty"`
	Phone      null.String `db:"phone" json:"phone,omitempty"`
	CenterID   int         `db:"center_id" json:"center_id"`
	CenterName null.String `db:"center_name" json:"center_name,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

type Student struct {
	StudentID          int         `db:"student_id" json:"student_id"`
	RegistrationNumber string      `db:"registration_number" json:"registration_number"`
	Name               string      `db:"name" json:"name"`
	Email              null.String `db:"email" json:"email,omitempty"`
	Phone              null.String `db:"phone" json:"phone,omitempty"`
	Status             bool        `db:"status" json:"status"`
	StateID            int         `db:"state_id" json:"state_id"`
	StateName          null.String `db:"state_name" json:"state_name,omitempty"`
	CenterID           int         `db:"center_id" json:"center_id"`
	CenterName         null.String `db:"center_name" json:"center_name,omitempty"`
	BatchName          null.String `db:"batch_name" json:"batch_name,omitempty"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
}

type Enrollment struct {
	EnrollmentID int       `db:"enrollment_id" json:"enrollment_id"`
	StudentID    int       `db:"student_id" json:"student_id"`
	BatchID      int       `db:"batch_id" json:"batch_id"`
	Status       bool      `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Manager struct {
	ManagerID int         `db:"manager_id" json:"manager_id"`
	Name      string      `db:"name" json:"name"`
	Email     null.String `db:"email" json:"email,omitempty"`
	Phone     null.String `db:"phone" json:"phone,omitempty"`
	CenterID  null.Int    `db:"center_id" json:"center_id,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

type Transaction struct {
	TransactionID int       `db:"transaction_id" json:"transaction_id"`
	StudentID     int       `db:"student_id" json:"student_id"`
	Amount        int       `db:"amount" json:"amount"` // rupees
	Mode          string    `db:"mode" json:"mode"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type Coordinator struct {
	CoordinatorID int         `db:"coordinator_id" json:"coordinator_id"`
	Name          string      `db:"name" json:"name"`
	Email         null.String `db:"email" json:"email,omitempty"`
	Phone         null.String `db:"phone" json:"phone,omitempty"`
	StateID       int         `db:"state_id" json:"state_id"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

type FinancialPartner struct {
	PartnerID int         `db:"partner_id" json:"partner_id"`
	Name      string      `db:"name" json:"name"`
	Email     null.String `db:"email" json:"email,omitempty"`
	Phone     null.String `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

type Note struct {
	NoteID    int       `db:"note_id" json:"note_id"`
	Title     string    `db:"title" json:"title"`
	FileURL   string    `db:"file_url" json:"file_url"`
	BatchID   int       `db:"batch_id" json:"batch_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ScheduleSlot struct {
	ScheduleID int       `db:"schedule_id" json:"schedule_id"`
	Day        string    `db:"day" json:"day"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	BatchID    int       `db:"batch_id" json:"batch_id"`
	BatchName  string    `db:"batch_name" json:"batch_name"`
	ClassType  string    `db:"class_type" json:"class_type"`
}

// Leads

// Lead statuses follow the sales funnel the tele-callers work with.
const (
	LeadStatusDataEntry = "data_entry"
	LeadStatusEnrolled  = "enrolled"
)

var (
	LeadCourses = []string{"French", "German", "Japanese"}
	LeadSources = []string{
		"Facebook",
		"Website",
		"Google",
		"Justdial",
		"Associate Reference",
		"Student Reference",
		"Walk-in",
		"ISML Leads",
	}
	LeadStatuses = []string{
		LeadStatusDataEntry,
		"not_connected_1",
		"not_connected_2",
		"not_connected_3",
		"interested",
		"need_follow",
		"junk_lead",
		"demo_schedule",
		"lost_lead",
		LeadStatusEnrolled,
		"closed_lead",
	}
)

type Lead struct {
	LeadID    int         `db:"lead_id" json:"lead_id"`
	UserID    int         `db:"user_id" json:"user_id"`
	Name      string      `db:"name" json:"name"`
	Phone     string      `db:"phone" json:"phone"`
	Email     null.String `db:"email" json:"email,omitempty"`
	Course    string      `db:"course" json:"course"`
	Remark    null.String `db:"remark" json:"remark,omitempty"`
	Source    string      `db:"source" json:"source"`
	Status    string      `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// NewLead contains information needed to record a new Lead.
type NewLead struct {
	Name   string `json:"name" validate:"required"`
	Phone  string `json:"phone" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
	Course string `json:"course" validate:"required"`
	Remark string `json:"remark"`
	Source string `json:"source" validate:"required"`
}

func (nl *NewLead) Validate() error {
	nl.Name = core.CleanString(nl.Name)
	nl.Phone = core.CleanString(nl.Phone)
	nl.Email = core.CleanString(nl.Email, true /* lower */)
	nl.Course = core.CleanString(nl.Course)
	nl.Remark = core.CleanString(nl.Remark)
	nl.Source = core.CleanString(nl.Source)

	if err := core.Validate.Struct(nl); err != nil {
		return err
	}
	if !contains(LeadCourses, nl.Course) {
		return core.NewValidationError(nil, core.FieldError{Field: "course", Error: "invalid course value"})
	}
	if !contains(LeadSources, nl.Source) {
		return core.NewValidationError(nil, core.FieldError{Field: "source", Error: "invalid source value"})
	}
	return nil
}

// Influencers

type Influencer struct {
	ID           int       `db:"id" json:"id"`
	InfluencerID string    `db:"influencer_id" json:"influencer_id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type NewInfluencer struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

func (ni *NewInfluencer) Validate() error {
	ni.Name = core.CleanString(ni.Name)
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	ni.Phone = core.CleanString(ni.Phone)
	return core.Validate.Struct(ni)
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
