package institute

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/iypan/shiksha/core"
	"github.com/iypan/shiksha/core/refcode"
)

// Influencer IDs are allocated the same way as giveaway reference codes,
// with their own prefix and numbering floor.
const (
	influencerRefPrefix = "ismlinflu"
	influencerRefFloor  = 100
)

var (
	// errors
	ErrNotFound         = errors.New("record not found")
	ErrInfluencerExists = errors.New("an influencer with this email already exists")
	ErrLeadNotFound     = errors.New("lead not found")
)

type (
	Repository interface {
		QueryAllCenters(ctx context.Context) ([]Center, error)
		GetCenterByID(ctx context.Context, id int) (Center, error)
		QueryCentersByState(ctx context.Context, stateID int) ([]Center, error)

		QueryAllStates(ctx context.Context) ([]State, error)
		GetStateByID(ctx context.Context, id int) (State, error)

		QueryAllBatches(ctx context.Context) ([]Batch, error)
		GetBatchByID(ctx context.Context, id int) (Batch, error)
		QueryBatchesByCenter(ctx context.Context, centerID int) ([]Batch, error)
		QueryBatchesByTeacher(ctx context.Context, teacherID int) ([]Batch, error)

		QueryAllCourses(ctx context.Context) ([]Course, error)
		GetCourseByID(ctx context.Context, id int) (Course, error)

		QueryAllTeachers(ctx context.Context) ([]Teacher, error)
		GetTeacherByID(ctx context.Context, id int) (Teacher, error)
		QueryTeachersByCenter(ctx context.Context, centerID int) ([]Teacher, error)

		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudentByID(ctx context.Context, id int) (Student, error)
		GetStudentNameByRegistration(ctx context.Context, regNum string) (string, error)
		QueryStudentsByCenter(ctx context.Context, centerID int) ([]Student, error)
		QueryStudentsByBatch(ctx context.Context, batchID int) ([]Student, error)
		QueryStudentsByTeacher(ctx context.Context, teacherID int) ([]Student, error)

		QueryAllEnrollments(ctx context.Context) ([]Enrollment, error)
		QueryEnrollmentsByStudent(ctx context.Context, studentID int) ([]Enrollment, error)

		QueryAllManagers(ctx context.Context) ([]Manager, error)
		GetManagerByID(ctx context.Context, id int) (Manager, error)

		QueryAllTransactions(ctx context.Context) ([]Transaction, error)
		QueryTransactionsByStudent(ctx context.Context, studentID int) ([]Transaction, error)

		QueryAllCoordinators(ctx context.Context) ([]Coordinator, error)
		QueryAllFinancialPartners(ctx context.Context) ([]FinancialPartner, error)

		QueryNotesByBatch(ctx context.Context, batchID int) ([]Note, error)
		QueryScheduleByBatch(ctx context.Context, batchID int) ([]ScheduleSlot, error)

		CreateLead(ctx context.Context, lead Lead) (Lead, error)
		QueryLeadsByUser(ctx context.Context, userID int) ([]Lead, error)
		UpdateLeadStatus(ctx context.Context, leadID int, status, remark string) (Lead, error)

		CreateInfluencer(ctx context.Context, inf Influencer) (Influencer, error)
		GetInfluencerByEmail(ctx context.Context, email string) (Influencer, error)
		ListInfluencerIDs(ctx context.Context) ([]string, error)
		QueryAllInfluencers(ctx context.Context) ([]Influencer, error)
		CountInfluencers(ctx context.Context) (int, error)
	}

	Service struct {
		conf    *core.Config
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{conf: conf, repo: repo, mailSvc: mailSvc, logger: logger}
}

func (svc *Service) Centers(ctx context.Context) ([]Center, error) {
	return svc.repo.QueryAllCenters(ctx)
}

func (svc *Service) CenterByID(ctx context.Context, id int) (Center, error) {
	return svc.repo.GetCenterByID(ctx, id)
}

func (svc *Service) CentersByState(ctx context.Context, stateID int) ([]Center, error) {
	return svc.repo.QueryCentersByState(ctx, stateID)
}

func (svc *Service) States(ctx context.Context) ([]State, error) {
	return svc.repo.QueryAllStates(ctx)
}

func (svc *Service) StateByID(ctx context.Context, id int) (State, error) {
	return svc.repo.GetStateByID(ctx, id)
}

func (svc *Service) Batches(ctx context.Context) ([]Batch, error) {
	return svc.repo.QueryAllBatches(ctx)
}

func (svc *Service) BatchByID(ctx context.Context, id int) (Batch, error) {
	return svc.repo.GetBatchByID(ctx, id)
}

func (svc *Service) BatchesByCenter(ctx context.Context, centerID int) ([]Batch, error) {
	return svc.repo.QueryBatchesByCenter(ctx, centerID)
}

func (svc *Service) BatchesByTeacher(ctx context.Context, teacherID int) ([]Batch, error) {
	return svc.repo.QueryBatchesByTeacher(ctx, teacherID)
}

func (svc *Service) Courses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) CourseByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) Teachers(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryAllTeachers(ctx)
}

func (svc *Service) TeacherByID(ctx context.Context, id int) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *Service) TeachersByCenter(ctx context.Context, centerID int) ([]Teacher, error) {
	return svc.repo.QueryTeachersByCenter(ctx, centerID)
}

func (svc *Service) Students(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) StudentByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) StudentNameByRegistration(ctx context.Context, regNum string) (string, error) {
	return svc.repo.GetStudentNameByRegistration(ctx, core.CleanString(regNum))
}

func (svc *Service) StudentsByCenter(ctx context.Context, centerID int) ([]Student, error) {
	return svc.repo.QueryStudentsByCenter(ctx, centerID)
}

func (svc *Service) StudentsByTeacher(ctx context.Context, teacherID int) ([]Student, error) {
	return svc.repo.QueryStudentsByTeacher(ctx, teacherID)
}

func (svc *Service) StudentsByBatch(ctx context.Context, batchID int) ([]Student, error) {
	return svc.repo.QueryStudentsByBatch(ctx, batchID)
}

func (svc *Service) Enrollments(ctx context.Context) ([]Enrollment, error) {
	return svc.repo.QueryAllEnrollments(ctx)
}

func (svc *Service) EnrollmentsByStudent(ctx context.Context, studentID int) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByStudent(ctx, studentID)
}

func (svc *Service) Managers(ctx context.Context) ([]Manager, error) {
	return svc.repo.QueryAllManagers(ctx)
}

func (svc *Service) ManagerByID(ctx context.Context, id int) (Manager, error) {
	return svc.repo.GetManagerByID(ctx, id)
}

func (svc *Service) Transactions(ctx context.Context) ([]Transaction, error) {
	return svc.repo.QueryAllTransactions(ctx)
}

func (svc *Service) TransactionsByStudent(ctx context.Context, studentID int) ([]Transaction, error) {
	return svc.repo.QueryTransactionsByStudent(ctx, studentID)
}

func (svc *Service) Coordinators(ctx context.Context) ([]Coordinator, error) {
	return svc.repo.QueryAllCoordinators(ctx)
}

func (svc *Service) FinancialPartners(ctx context.Context) ([]FinancialPartner, error) {
	return svc.repo.QueryAllFinancialPartners(ctx)
}

func (svc *Service) NotesByBatch(ctx context.Context, batchID int) ([]Note, error) {
	return svc.repo.QueryNotesByBatch(ctx, batchID)
}

func (svc *Service) ScheduleByBatch(ctx context.Context, batchID int) ([]ScheduleSlot, error) {
	return svc.repo.QueryScheduleByBatch(ctx, batchID)
}

// CreateLead records a lead for the given tele-caller. New leads always
// start at the data entry stage.
func (svc *Service) CreateLead(ctx context.Context, userID int, nl NewLead) (Lead, error) {
	lead := Lead{
		UserID:    userID,
		Name:      nl.Name,
		Phone:     nl.Phone,
		Course:    nl.Course,
		Source:    nl.Source,
		Status:    LeadStatusDataEntry,
		CreatedAt: time.Now().UTC(),
	}
	if nl.Email != "" {
		lead.Email.SetValid(nl.Email)
	}
	if nl.Remark != "" {
		lead.Remark.SetValid(nl.Remark)
	}
	return svc.repo.CreateLead(ctx, lead)
}

func (svc *Service) LeadsByUser(ctx context.Context, userID int) ([]Lead, error) {
	return svc.repo.QueryLeadsByUser(ctx, userID)
}

// UpdateLeadStatus moves a lead along the funnel, optionally replacing the remark.
func (svc *Service) UpdateLeadStatus(ctx context.Context, leadID int, status, remark string) (Lead, error) {
	status = core.CleanString(status, true /* lower */)
	if !contains(LeadStatuses, status) {
		return Lead{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "invalid status value"})
	}
	return svc.repo.UpdateLeadStatus(ctx, leadID, status, core.CleanString(remark))
}

// RegisterInfluencer allocates the next influencer ID, stores the
// influencer and emails them their welcome kit. Emails are unique.
func (svc *Service) RegisterInfluencer(ctx context.Context, ni NewInfluencer) (Influencer, error) {
	if _, err := svc.repo.GetInfluencerByEmail(ctx, ni.Email); err == nil {
		return Influencer{}, core.NewValidationError(ErrInfluencerExists, core.FieldError{Field: "email", Error: ErrInfluencerExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return Influencer{}, err
	}

	ids, err := svc.repo.ListInfluencerIDs(ctx)
	if err != nil {
		return Influencer{}, errors.Wrap(err, "listing influencer ids")
	}
	alloc := refcode.NewAllocator(influencerRefPrefix, influencerRefFloor, ids)
	_, code := alloc.Next()

	inf := Influencer{
		InfluencerID: code,
		Name:         ni.Name,
		Email:        ni.Email,
		Phone:        ni.Phone,
		CreatedAt:    time.Now().UTC(),
	}
	inf, err = svc.repo.CreateInfluencer(ctx, inf)
	if err != nil {
		return Influencer{}, err
	}

	svc.sendInfluencerWelcomeMail(inf)
	return inf, nil
}

func (svc *Service) InfluencerByEmail(ctx context.Context, email string) (Influencer, error) {
	return svc.repo.GetInfluencerByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Influencers(ctx context.Context) ([]Influencer, error) {
	return svc.repo.QueryAllInfluencers(ctx)
}

func (svc *Service) InfluencerCount(ctx context.Context) (int, error) {
	return svc.repo.CountInfluencers(ctx)
}

func (svc *Service) sendInfluencerWelcomeMail(inf Influencer) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: inf.Name, Address: inf.Email}},
		Subject:      "Welcome to the Influencer Program",
		TemplateName: "influencer-welcome",
		TemplateData: struct {
			Name         string
			InfluencerID string
			SupportEmail string
			SupportPhone string
		}{inf.Name, inf.InfluencerID, svc.conf.EliteCard.SupportEmail, svc.conf.EliteCard.SupportPhone},
	}
	svc.mailSvc.SendMessages(msg)
}
