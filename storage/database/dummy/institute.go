package dummydb

import (
	"context"

	"github.com/iypan/shiksha/core/institute"
)

type instituteRepository struct {
	db *instituteTable
}

var _ institute.Repository = (*instituteRepository)(nil) // interface compliance check

func NewInstituteRepository(db *DB) institute.Repository {
	return &instituteRepository{db: db.institute}
}

func (repo *instituteRepository) QueryAllCenters(ctx context.Context) ([]institute.Center, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	centers := make([]institute.Center, 0, len(repo.db.centers))
	for _, c := range repo.db.centers {
		centers = append(centers, *c)
	}
	return centers, nil
}

func (repo *instituteRepository) GetCenterByID(ctx context.Context, id int) (institute.Center, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.centers[id]; ok {
		return *c, nil
	}
	return institute.Center{}, institute.ErrNotFound
}

func (repo *instituteRepository) QueryCentersByState(ctx context.Context, stateID int) ([]institute.Center, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var centers []institute.Center
	for _, c := range repo.db.centers {
		if c.StateID == stateID {
			centers = append(centers, *c)
		}
	}
	return centers, nil
}

func (repo *instituteRepository) QueryAllStates(ctx context.Context) ([]institute.State, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	states := make([]institute.State, 0, len(repo.db.states))
	for _, s := range repo.db.states {
		states = append(states, *s)
	}
	return states, nil
}

func (repo *instituteRepository) GetStateByID(ctx context.Context, id int) (institute.State, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.states[id]; ok {
		return *s, nil
	}
	return institute.State{}, institute.ErrNotFound
}

func (repo *instituteRepository) QueryAllBatches(ctx context.Context) ([]institute.Batch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	batches := make([]institute.Batch, 0, len(repo.db.batches))
	for _, b := range repo.db.batches {
		batches = append(batches, *b)
	}
	return batches, nil
}

func (repo *instituteRepository) GetBatchByID(ctx context.Context, id int) (institute.Batch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b, ok := repo.db.batches[id]; ok {
		return *b, nil
	}
	return institute.Batch{}, institute.ErrNotFound
}

func (repo *instituteRepository) QueryBatchesByCenter(ctx context.Context, centerID int) ([]institute.Batch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var batches []institute.Batch
	for _, b := range repo.db.batches {
		if b.CenterID == centerID {
			batches = append(batches, *b)
		}
	}
	return batches, nil
}

func (repo *instituteRepository) QueryBatchesByTeacher(ctx context.Context, teacherID int) ([]institute.Batch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var batches []institute.Batch
	for _, b := range repo.db.batches {
		if b.TeacherID.Valid && b.TeacherID.Int == teacherID {
			batches = append(batches, *b)
		}
	}
	return batches, nil
}

func (repo *instituteRepository) QueryAllCourses(ctx context.Context) ([]institute.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]institute.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		courses = append(courses, *c)
	}
	return courses, nil
}

func (repo *instituteRepository) GetCourseByID(ctx context.Context, id int) (institute.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return institute.Course{}, institute.ErrNotFound
}

func (repo *instituteRepository) QueryAllTeachers(ctx context.Context) ([]institute.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	teachers := make([]institute.Teacher, 0, len(repo.db.teachers))
	for _, t := range repo.db.teachers {
		teachers = append(teachers, *t)
	}
	return teachers, nil
}

func (repo *instituteRepository) GetTeacherByID(ctx context.Context, id int) (institute.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.teachers[id]; ok {
		return *t, nil
	}
	return institute.Teacher{}, institute.ErrNotFound
}

func (repo *instituteRepository) QueryTeachersByCenter(ctx context.Context, centerID int) ([]institute.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var teachers []institute.Teacher
	for _, t := range repo.db.teachers {
		if t.CenterID == centerID {
			teachers = append(teachers, *t)
		}
	}
	return teachers, nil
}

func (repo *instituteRepository) QueryAllStudents(ctx context.Context) ([]institute.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]institute.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		students = append(students, *s)
	}
	return students, nil
}

func (repo *instituteRepository) GetStudentByID(ctx context.Context, id int) (institute.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return institute.Student{}, institute.ErrNotFound
}

func (repo *instituteRepository) GetStudentNameByRegistration(ctx context.Context, regNum string) (string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.students {
		if s.RegistrationNumber == regNum {
			return s.Name, nil
		}
	}
	return "", institute.ErrNotFound
}

func (repo *instituteRepository) QueryStudentsByCenter(ctx context.Context, centerID int) ([]institute.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var students []institute.Student
	for _, s := range repo.db.students {
		if s.CenterID == centerID {
			students = append(students, *s)
		}
	}
	return students, nil
}

func (repo *instituteRepository) QueryStudentsByBatch(ctx context.Context, batchID int) ([]institute.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var students []institute.Student
	for _, e := range repo.db.enrollments {
		if e.BatchID == batchID && e.Status {
			if s, ok := repo.db.students[e.StudentID]; ok {
				students = append(students, *s)
			}
		}
	}
	return students, nil
}

func (repo *instituteRepository) QueryStudentsByTeacher(ctx context.Context, teacherID int) ([]institute.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	batchIDs := make(map[int]struct{})
	for _, b := range repo.db.batches {
		if b.TeacherID.Valid && b.TeacherID.Int == teacherID {
			batchIDs[b.BatchID] = struct{}{}
		}
	}

	var students []institute.Student
	for _, e := range repo.db.enrollments {
		if _, ok := batchIDs[e.BatchID]; ok && e.Status {
			if s, ok := repo.db.students[e.StudentID]; ok {
				students = append(students, *s)
			}
		}
	}
	return students, nil
}

func (repo *instituteRepository) QueryAllEnrollments(ctx context.Context) ([]institute.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]institute.Enrollment, len(repo.db.enrollments))
	copy(enrollments, repo.db.enrollments)
	return enrollments, nil
}

func (repo *instituteRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID int) ([]institute.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrollments []institute.Enrollment
	for _, e := range repo.db.enrollments {
		if e.StudentID == studentID {
			enrollments = append(enrollments, e)
		}
	}
	return enrollments, nil
}

func (repo *instituteRepository) QueryAllManagers(ctx context.Context) ([]institute.Manager, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	managers := make([]institute.Manager, 0, len(repo.db.managers))
	for _, m := range repo.db.managers {
		managers = append(managers, *m)
	}
	return managers, nil
}

func (repo *instituteRepository) GetManagerByID(ctx context.Context, id int) (institute.Manager, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.managers[id]; ok {
		return *m, nil
	}
	return institute.Manager{}, institute.ErrNotFound
}

func (repo *instituteRepository) QueryAllTransactions(ctx context.Context) ([]institute.Transaction, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	txns := make([]institute.Transaction, len(repo.db.txns))
	copy(txns, repo.db.txns)
	return txns, nil
}

func (repo *instituteRepository) QueryTransactionsByStudent(ctx context.Context, studentID int) ([]institute.Transaction, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var txns []institute.Transaction
	for _, t := range repo.db.txns {
		if t.StudentID == studentID {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

func (repo *instituteRepository) QueryAllCoordinators(ctx context.Context) ([]institute.Coordinator, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	coords := make([]institute.Coordinator, len(repo.db.coords))
	copy(coords, repo.db.coords)
	return coords, nil
}

func (repo *instituteRepository) QueryAllFinancialPartners(ctx context.Context) ([]institute.FinancialPartner, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	partners := make([]institute.FinancialPartner, len(repo.db.partners))
	copy(partners, repo.db.partners)
	return partners, nil
}

func (repo *instituteRepository) QueryNotesByBatch(ctx context.Context, batchID int) ([]institute.Note, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var notes []institute.Note
	for _, n := range repo.db.notes {
		if n.BatchID == batchID {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

func (repo *instituteRepository) QueryScheduleByBatch(ctx context.Context, batchID int) ([]institute.ScheduleSlot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var slots []institute.ScheduleSlot
	for _, s := range repo.db.schedule {
		if s.BatchID == batchID {
			slots = append(slots, s)
		}
	}
	return slots, nil
}

func (repo *instituteRepository) CreateLead(ctx context.Context, lead institute.Lead) (institute.Lead, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lead.LeadID = len(repo.db.leads) + 1
	repo.db.leads[lead.LeadID] = &lead
	return lead, nil
}

func (repo *instituteRepository) QueryLeadsByUser(ctx context.Context, userID int) ([]institute.Lead, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var leads []institute.Lead
	for _, l := range repo.db.leads {
		if l.UserID == userID {
			leads = append(leads, *l)
		}
	}
	return leads, nil
}

func (repo *instituteRepository) UpdateLeadStatus(ctx context.Context, leadID int, status, remark string) (institute.Lead, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lead, ok := repo.db.leads[leadID]
	if !ok {
		return institute.Lead{}, institute.ErrLeadNotFound
	}
	lead.Status = status
	if remark != "" {
		lead.Remark.SetValid(remark)
	}
	return *lead, nil
}

func (repo *instituteRepository) CreateInfluencer(ctx context.Context, inf institute.Influencer) (institute.Influencer, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	inf.ID = len(repo.db.influencers) + 1
	repo.db.influencers[inf.Email] = &inf
	return inf, nil
}

func (repo *instituteRepository) GetInfluencerByEmail(ctx context.Context, email string) (institute.Influencer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inf, ok := repo.db.influencers[email]; ok {
		return *inf, nil
	}
	return institute.Influencer{}, institute.ErrNotFound
}

func (repo *instituteRepository) ListInfluencerIDs(ctx context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]string, 0, len(repo.db.influencers))
	for _, inf := range repo.db.influencers {
		ids = append(ids, inf.InfluencerID)
	}
	return ids, nil
}

func (repo *instituteRepository) QueryAllInfluencers(ctx context.Context) ([]institute.Influencer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	influencers := make([]institute.Influencer, 0, len(repo.db.influencers))
	for _, inf := range repo.db.influencers {
		influencers = append(influencers, *inf)
	}
	return influencers, nil
}

func (repo *instituteRepository) CountInfluencers(ctx context.Context) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.influencers), nil
}
