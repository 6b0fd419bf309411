package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iypan/shiksha/core/institute"
)

type instituteRepository struct {
	db *sqlx.DB
}

var _ institute.Repository = (*instituteRepository)(nil) // interface compliance check

func NewInstituteRepository(db *sqlx.DB) *instituteRepository {
	return &instituteRepository{db: db}
}

const centerQuery = `
	SELECT c.center_id, c.center_name, c.state_id, c.admin_id, c.created_at,
		   s.state_name AS state_name, u.name AS admin_name
	FROM center c
		JOIN state s ON s.state_id = c.state_id
		LEFT JOIN "user" u ON u.id = c.admin_id`

func (repo instituteRepository) QueryAllCenters(ctx context.Context) ([]institute.Center, error) {
	var centers []institute.Center
	err := repo.db.SelectContext(ctx, &centers, centerQuery+` ORDER BY c.center_name`)
	return centers, errors.Wrap(err, "querying centers")
}

func (repo instituteRepository) GetCenterByID(ctx context.Context, id int) (institute.Center, error) {
	var center institute.Center
	err := repo.db.GetContext(ctx, &center, centerQuery+` WHERE c.center_id = $1`, id)
	return center, repo.getErr(err, "getting center")
}

func (repo instituteRepository) QueryCentersByState(ctx context.Context, stateID int) ([]institute.Center, error) {
	var centers []institute.Center
	err := repo.db.SelectContext(ctx, &centers, centerQuery+` WHERE c.state_id = $1 ORDER BY c.center_name`, stateID)
	return centers, errors.Wrap(err, "querying centers by state")
}

func (repo instituteRepository) QueryAllStates(ctx context.Context) ([]institute.State, error) {
	var states []institute.State
	err := repo.db.SelectContext(ctx, &states, `SELECT * FROM state ORDER BY state_name`)
	return states, errors.Wrap(err, "querying states")
}

func (repo instituteRepository) GetStateByID(ctx context.Context, id int) (institute.State, error) {
	var state institute.State
	err := repo.db.GetContext(ctx, &state, `SELECT * FROM state WHERE state_id = $1`, id)
	return state, repo.getErr(err, "getting state")
}

const batchQuery = `
	SELECT b.batch_id, b.batch_name, b.language, b.type, b.duration, b.center_id, b.teacher_id, b.created_at,
		   c.center_name AS center_name
	FROM batch b
		JOIN center c ON c.center_id = b.center_id`

func (repo instituteRepository) QueryAllBatches(ctx context.Context) ([]institute.Batch, error) {
	var batches []institute.Batch
	err := repo.db.SelectContext(ctx, &batches, batchQuery+` ORDER BY b.created_at DESC`)
	return batches, errors.Wrap(err, "querying batches")
}

func (repo instituteRepository) GetBatchByID(ctx context.Context, id int) (institute.Batch, error) {
	var batch institute.Batch
	err := repo.db.GetContext(ctx, &batch, batchQuery+` WHERE b.batch_id = $1`, id)
	return batch, repo.getErr(err, "getting batch")
}

func (repo instituteRepository) QueryBatchesByCenter(ctx context.Context, centerID int) ([]institute.Batch, error) {
	var batches []institute.Batch
	err := repo.db.SelectContext(ctx, &batches, batchQuery+` WHERE b.center_id = $1 ORDER BY b.created_at DESC`, centerID)
	return batches, errors.Wrap(err, "querying batches by center")
}

func (repo instituteRepository) QueryBatchesByTeacher(ctx context.Context, teacherID int) ([]institute.Batch, error) {
	var batches []institute.Batch
	err := repo.db.SelectContext(ctx, &batches, batchQuery+` WHERE b.teacher_id = $1 ORDER BY b.created_at DESC`, teacherID)
	return batches, errors.Wrap(err, "querying batches by teacher")
}

func (repo instituteRepository) QueryAllCourses(ctx context.Context) ([]institute.Course, error) {
	var courses []institute.Course
	err := repo.db.SelectContext(ctx, &courses, `SELECT * FROM course ORDER BY course_name`)
	return courses, errors.Wrap(err, "querying courses")
}

func (repo instituteRepository) GetCourseByID(ctx context.Context, id int) (institute.Course, error) {
	var course institute.Course
	err := repo.db.GetContext(ctx, &course, `SELECT * FROM course WHERE course_id = $1`, id)
	return course, repo.getErr(err, "getting course")
}

const teacherQuery = `
	SELECT t.teacher_id, t.name, t.email, t.phone, t.center_id, t.created_at,
		   c.center_name AS center_name
	FROM teacher t
		JOIN center c ON c.center_id = t.center_id`

func (repo instituteRepository) QueryAllTeachers(ctx context.Context) ([]institute.Teacher, error) {
	var teachers []institute.Teacher
	err := repo.db.SelectContext(ctx, &teachers, teacherQuery+` ORDER BY t.name`)
	return teachers, errors.Wrap(err, "querying teachers")
}

func (repo instituteRepository) GetTeacherByID(ctx context.Context, id int) (institute.Teacher, error) {
	var teacher institute.Teacher
	err := repo.db.GetContext(ctx, &teacher, teacherQuery+` WHERE t.teacher_id = $1`, id)
	return teacher, repo.getErr(err, "getting teacher")
}

func (repo instituteRepository) QueryTeachersByCenter(ctx context.Context, centerID int) ([]institute.Teacher, error) {
	var teachers []institute.Teacher
	err := repo.db.SelectContext(ctx, &teachers, teacherQuery+` WHERE t.center_id = $1 ORDER BY t.name`, centerID)
	return teachers, errors.Wrap(err, "querying teachers by center")
}

const studentQuery = `
	SELECT st.student_id, st.registration_number, st.name, st.email, st.phone, st.status,
		   st.state_id, st.center_id, st.created_at,
		   s.state_name AS state_name, c.center_name AS center_name,
		   (SELECT b.batch_name
			FROM enrollment e JOIN batch b ON b.batch_id = e.batch_id
			WHERE e.student_id = st.student_id AND e.status
			ORDER BY e.created_at DESC LIMIT 1) AS batch_name
	FROM student st
		JOIN state s ON s.state_id = st.state_id
		JOIN center c ON c.center_id = st.center_id`

func (repo instituteRepository) QueryAllStudents(ctx context.Context) ([]institute.Student, error) {
	var students []institute.Student
	err := repo.db.SelectContext(ctx, &students, studentQuery+` ORDER BY st.created_at DESC`)
	return students, errors.Wrap(err, "querying students")
}

func (repo instituteRepository) GetStudentByID(ctx context.Context, id int) (institute.Student, error) {
	var student institute.Student
	err := repo.db.GetContext(ctx, &student, studentQuery+` WHERE st.student_id = $1`, id)
	return student, repo.getErr(err, "getting student")
}

func (repo instituteRepository) GetStudentNameByRegistration(ctx context.Context, regNum string) (string, error) {
	var name string
	err := repo.db.GetContext(ctx, &name, `SELECT name FROM student WHERE registration_number = $1`, regNum)
	if err == sql.ErrNoRows {
		return "", institute.ErrNotFound
	}
	return name, errors.Wrap(err, "getting student name")
}

func (repo instituteRepository) QueryStudentsByCenter(ctx context.Context, centerID int) ([]institute.Student, error) {
	var students []institute.Student
	err := repo.db.SelectContext(ctx, &students, studentQuery+` WHERE st.center_id = $1 ORDER BY st.created_at DESC`, centerID)
	return students, errors.Wrap(err, "querying students by center")
}

func (repo instituteRepository) QueryStudentsByBatch(ctx context.Context, batchID int) ([]institute.Student, error) {
	q := studentQuery + `
		WHERE st.student_id IN (SELECT e.student_id FROM enrollment e WHERE e.batch_id = $1 AND e.status)
		ORDER BY st.name`
	var students []institute.Student
	err := repo.db.SelectContext(ctx, &students, q, batchID)
	return students, errors.Wrap(err, "querying students by batch")
}

func (repo instituteRepository) QueryStudentsByTeacher(ctx context.Context, teacherID int) ([]institute.Student, error) {
	q := studentQuery + `
		WHERE st.student_id IN (
			SELECT e.student_id
			FROM enrollment e JOIN batch b ON b.batch_id = e.batch_id
			WHERE b.teacher_id = $1 AND e.status)
		ORDER BY st.name`
	var students []institute.Student
	err := repo.db.SelectContext(ctx, &students, q, teacherID)
	return students, errors.Wrap(err, "querying students by teacher")
}

func (repo instituteRepository) QueryAllEnrollments(ctx context.Context) ([]institute.Enrollment, error) {
	var enrollments []institute.Enrollment
	err := repo.db.SelectContext(ctx, &enrollments, `SELECT * FROM enrollment ORDER BY created_at DESC`)
	return enrollments, errors.Wrap(err, "querying enrollments")
}

func (repo instituteRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID int) ([]institute.Enrollment, error) {
	var enrollments []institute.Enrollment
	err := repo.db.SelectContext(ctx, &enrollments, `SELECT * FROM enrollment WHERE student_id = $1 ORDER BY created_at DESC`, studentID)
	return enrollments, errors.Wrap(err, "querying enrollments by student")
}

func (repo instituteRepository) QueryAllManagers(ctx context.Context) ([]institute.Manager, error) {
	var managers []institute.Manager
	err := repo.db.SelectContext(ctx, &managers, `SELECT * FROM manager ORDER BY name`)
	return managers, errors.Wrap(err, "querying managers")
}

func (repo instituteRepository) GetManagerByID(ctx context.Context, id int) (institute.Manager, error) {
	var manager institute.Manager
	err := repo.db.GetContext(ctx, &manager, `SELECT * FROM manager WHERE manager_id = $1`, id)
	return manager, repo.getErr(err, "getting manager")
}

func (repo instituteRepository) QueryAllTransactions(ctx context.Context) ([]institute.Transaction, error) {
	var transactions []institute.Transaction
	err := repo.db.SelectContext(ctx, &transactions, `SELECT * FROM transaction ORDER BY created_at DESC`)
	return transactions, errors.Wrap(err, "querying transactions")
}

func (repo instituteRepository) QueryTransactionsByStudent(ctx context.Context, studentID int) ([]institute.Transaction, error) {
	var transactions []institute.Transaction
	err := repo.db.SelectContext(ctx, &transactions, `SELECT * FROM transaction WHERE student_id = $1 ORDER BY created_at DESC`, studentID)
	return transactions, errors.Wrap(err, "querying transactions by student")
}

func (repo instituteRepository) QueryAllCoordinators(ctx context.Context) ([]institute.Coordinator, error) {
	var coordinators []institute.Coordinator
	err := repo.db.SelectContext(ctx, &coordinators, `SELECT * FROM coordinator ORDER BY name`)
	return coordinators, errors.Wrap(err, "querying coordinators")
}

func (repo instituteRepository) QueryAllFinancialPartners(ctx context.Context) ([]institute.FinancialPartner, error) {
	var partners []institute.FinancialPartner
	err := repo.db.SelectContext(ctx, &partners, `SELECT * FROM financial_partner ORDER BY name`)
	return partners, errors.Wrap(err, "querying financial partners")
}

func (repo instituteRepository) QueryNotesByBatch(ctx context.Context, batchID int) ([]institute.Note, error) {
	var notes []institute.Note
	err := repo.db.SelectContext(ctx, &notes, `SELECT * FROM note WHERE batch_id = $1 ORDER BY created_at DESC`, batchID)
	return notes, errors.Wrap(err, "querying notes by batch")
}

func (repo instituteRepository) QueryScheduleByBatch(ctx context.Context, batchID int) ([]institute.ScheduleSlot, error) {
	const q = `
		SELECT sc.schedule_id, sc.day, sc.start_time, sc.end_time, sc.batch_id, sc.class_type,
			   b.batch_name AS batch_name
		FROM schedule sc
			JOIN batch b ON b.batch_id = sc.batch_id
		WHERE sc.batch_id = $1`

	var slots []institute.ScheduleSlot
	err := repo.db.SelectContext(ctx, &slots, q, batchID)
	return slots, errors.Wrap(err, "querying schedule by batch")
}

func (repo instituteRepository) CreateLead(ctx context.Context, lead institute.Lead) (institute.Lead, error) {
	const q = `
		INSERT INTO lead (user_id, name, phone, email, course, remark, source, status, created_at)
		VALUES (:user_id, :name, :phone, :email, :course, :remark, :source, :status, :created_at)
		RETURNING lead_id`

	stmt, err := repo.db.PrepareNamedContext(ctx, q)
	if err != nil {
		return institute.Lead{}, errors.Wrap(err, "preparing lead insert")
	}
	defer stmt.Close()

	if err := stmt.GetContext(ctx, &lead.LeadID, lead); err != nil {
		return institute.Lead{}, errors.Wrap(err, "inserting lead")
	}
	return lead, nil
}

func (repo instituteRepository) QueryLeadsByUser(ctx context.Context, userID int) ([]institute.Lead, error) {
	var leads []institute.Lead
	err := repo.db.SelectContext(ctx, &leads, `SELECT * FROM lead WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	return leads, errors.Wrap(err, "querying leads by user")
}

func (repo instituteRepository) UpdateLeadStatus(ctx context.Context, leadID int, status, remark string) (institute.Lead, error) {
	const q = `
		UPDATE lead
		SET status = $2, remark = COALESCE(NULLIF($3, ''), remark)
		WHERE lead_id = $1
		RETURNING *`

	var lead institute.Lead
	err := repo.db.GetContext(ctx, &lead, q, leadID, status, remark)
	if err == sql.ErrNoRows {
		return institute.Lead{}, institute.ErrLeadNotFound
	}
	return lead, errors.Wrap(err, "updating lead status")
}

func (repo instituteRepository) CreateInfluencer(ctx context.Context, inf institute.Influencer) (institute.Influencer, error) {
	const q = `
		INSERT INTO influencer (influencer_id, name, email, phone, created_at)
		VALUES (:influencer_id, :name, :email, :phone, :created_at)
		RETURNING id`

	stmt, err := repo.db.PrepareNamedContext(ctx, q)
	if err != nil {
		return institute.Influencer{}, errors.Wrap(err, "preparing influencer insert")
	}
	defer stmt.Close()

	if err := stmt.GetContext(ctx, &inf.ID, inf); err != nil {
		return institute.Influencer{}, errors.Wrap(err, "inserting influencer")
	}
	return inf, nil
}

func (repo instituteRepository) GetInfluencerByEmail(ctx context.Context, email string) (institute.Influencer, error) {
	var inf institute.Influencer
	err := repo.db.GetContext(ctx, &inf, `SELECT * FROM influencer WHERE email = $1`, email)
	return inf, repo.getErr(err, "getting influencer")
}

func (repo instituteRepository) ListInfluencerIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids, `SELECT influencer_id FROM influencer`)
	return ids, errors.Wrap(err, "listing influencer ids")
}

func (repo instituteRepository) QueryAllInfluencers(ctx context.Context) ([]institute.Influencer, error) {
	var influencers []institute.Influencer
	err := repo.db.SelectContext(ctx, &influencers, `SELECT * FROM influencer ORDER BY created_at DESC`)
	return influencers, errors.Wrap(err, "querying influencers")
}

func (repo instituteRepository) CountInfluencers(ctx context.Context) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM influencer`)
	return count, errors.Wrap(err, "counting influencers")
}

func (repo instituteRepository) getErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return institute.ErrNotFound
	}
	return errors.Wrap(err, msg)
}
