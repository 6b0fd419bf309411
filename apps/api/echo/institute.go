package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iypan/shiksha/core/institute"
)

type instituteApi struct {
	svc *institute.Service
}

func registerInstituteAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *institute.Service) {
	api := instituteApi{svc: svc}

	sg := g.Group("/states", jwt)
	sg.GET("", api.queryStates)
	sg.GET("/:id", api.retrieveState)
	sg.GET("/:id/centers", api.queryCentersByState)

	cg := g.Group("/centers", jwt)
	cg.GET("", api.queryCenters)
	cg.GET("/:id", api.retrieveCenter)
	cg.GET("/:id/batches", api.queryBatchesByCenter)
	cg.GET("/:id/teachers", api.queryTeachersByCenter)
	cg.GET("/:id/students", api.queryStudentsByCenter)

	bg := g.Group("/batches", jwt)
	bg.GET("", api.queryBatches)
	bg.GET("/:id", api.retrieveBatch)
	bg.GET("/:id/students", api.queryStudentsByBatch)
	bg.GET("/:id/notes", api.queryNotesByBatch)
	bg.GET("/:id/schedule", api.queryScheduleByBatch)

	crg := g.Group("/courses", jwt)
	crg.GET("", api.queryCourses)
	crg.GET("/:id", api.retrieveCourse)

	tg := g.Group("/teachers", jwt)
	tg.GET("", api.queryTeachers)
	tg.GET("/:id", api.retrieveTeacher)
	tg.GET("/:id/batches", api.queryBatchesByTeacher)
	tg.GET("/:id/students", api.queryStudentsByTeacher)

	stg := g.Group("/students", jwt)
	stg.GET("", api.queryStudents)
	stg.GET("/name", api.studentNameByRegistration)
	stg.GET("/:id", api.retrieveStudent)
	stg.GET("/:id/enrollments", api.queryEnrollmentsByStudent)
	stg.GET("/:id/transactions", api.queryTransactionsByStudent)

	eg := g.Group("/enrollments", jwt)
	eg.GET("", api.queryEnrollments)

	mg := g.Group("/managers", jwt, adminMiddleware())
	mg.GET("", api.queryManagers)
	mg.GET("/:id", api.retrieveManager)

	txg := g.Group("/transactions", jwt, adminMiddleware())
	txg.GET("", api.queryTransactions)

	g.GET("/coordinators", api.queryCoordinators, jwt)
	g.GET("/financial-partners", api.queryFinancialPartners, jwt, adminMiddleware())

	lg := g.Group("/leads", jwt)
	lg.POST("", api.createLead)
	lg.GET("", api.queryLeads)
	lg.PATCH("/:id/status", api.updateLeadStatus)

	// influencers sign themselves up; the listing is back office only
	g.POST("/influencers/register", api.registerInfluencer)
	ig := g.Group("/influencers", jwt, adminMiddleware())
	ig.GET("", api.queryInfluencers)
	ig.GET("/count", api.countInfluencers)
}

func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

// Handlers

func (api *instituteApi) queryStates(ctx echo.Context) error {
	states, err := api.svc.States(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying states")
	}
	if states == nil {
		states = []institute.State{}
	}
	return ctx.JSON(http.StatusOK, states)
}

func (api *instituteApi) retrieveState(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	state, err := api.svc.StateByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding state by ID")
	}
	return ctx.JSON(http.StatusOK, state)
}

func (api *instituteApi) queryCentersByState(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	centers, err := api.svc.CentersByState(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying centers by state")
	}
	if centers == nil {
		centers = []institute.Center{}
	}
	return ctx.JSON(http.StatusOK, centers)
}

func (api *instituteApi) queryCenters(ctx echo.Context) error {
	centers, err := api.svc.Centers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying centers")
	}
	if centers == nil {
		centers = []institute.Center{}
	}
	return ctx.JSON(http.StatusOK, centers)
}

func (api *instituteApi) retrieveCenter(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	center, err := api.svc.CenterByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding center by ID")
	}
	return ctx.JSON(http.StatusOK, center)
}

func (api *instituteApi) queryBatchesByCenter(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	batches, err := api.svc.BatchesByCenter(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying batches by center")
	}
	if batches == nil {
		batches = []institute.Batch{}
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *instituteApi) queryTeachersByCenter(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	teachers, err := api.svc.TeachersByCenter(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying teachers by center")
	}
	if teachers == nil {
		teachers = []institute.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *instituteApi) queryStudentsByCenter(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.StudentsByCenter(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying students by center")
	}
	if students == nil {
		students = []institute.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *instituteApi) queryBatches(ctx echo.Context) error {
	batches, err := api.svc.Batches(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying batches")
	}
	if batches == nil {
		batches = []institute.Batch{}
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *instituteApi) retrieveBatch(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	batch, err := api.svc.BatchByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding batch by ID")
	}
	return ctx.JSON(http.StatusOK, batch)
}

func (api *instituteApi) queryStudentsByBatch(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.StudentsByBatch(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying students by batch")
	}
	if students == nil {
		students = []institute.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *instituteApi) queryNotesByBatch(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	notes, err := api.svc.NotesByBatch(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying notes by batch")
	}
	if notes == nil {
		notes = []institute.Note{}
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *instituteApi) queryScheduleByBatch(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	slots, err := api.svc.ScheduleByBatch(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying schedule by batch")
	}
	if slots == nil {
		slots = []institute.ScheduleSlot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *instituteApi) queryCourses(ctx echo.Context) error {
	courses, err := api.svc.Courses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []institute.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *instituteApi) retrieveCourse(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	course, err := api.svc.CourseByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *instituteApi) queryTeachers(ctx echo.Context) error {
	teachers, err := api.svc.Teachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []institute.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *instituteApi) retrieveTeacher(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	teacher, err := api.svc.TeacherByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding teacher by ID")
	}
	return ctx.JSON(http.StatusOK, teacher)
}

func (api *instituteApi) queryBatchesByTeacher(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	batches, err := api.svc.BatchesByTeacher(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying batches by teacher")
	}
	if batches == nil {
		batches = []institute.Batch{}
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *instituteApi) queryStudentsByTeacher(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.StudentsByTeacher(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying students by teacher")
	}
	if students == nil {
		students = []institute.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *instituteApi) queryStudents(ctx echo.Context) error {
	students, err := api.svc.Students(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []institute.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *instituteApi) studentNameByRegistration(ctx echo.Context) error {
	regNum := ctx.QueryParam("registration")
	if regNum == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing registration query param")
	}
	name, err := api.svc.StudentNameByRegistration(ctx.Request().Context(), regNum)
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by registration number")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"name": name})
}

func (api *instituteApi) retrieveStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	student, err := api.svc.StudentByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *instituteApi) queryEnrollmentsByStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.EnrollmentsByStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying enrollments by student")
	}
	if enrollments == nil {
		enrollments = []institute.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *instituteApi) queryTransactionsByStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	transactions, err := api.svc.TransactionsByStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying transactions by student")
	}
	if transactions == nil {
		transactions = []institute.Transaction{}
	}
	return ctx.JSON(http.StatusOK, transactions)
}

func (api *instituteApi) queryEnrollments(ctx echo.Context) error {
	enrollments, err := api.svc.Enrollments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []institute.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *instituteApi) queryManagers(ctx echo.Context) error {
	managers, err := api.svc.Managers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying managers")
	}
	if managers == nil {
		managers = []institute.Manager{}
	}
	return ctx.JSON(http.StatusOK, managers)
}

func (api *instituteApi) retrieveManager(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	manager, err := api.svc.ManagerByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding manager by ID")
	}
	return ctx.JSON(http.StatusOK, manager)
}

func (api *instituteApi) queryTransactions(ctx echo.Context) error {
	transactions, err := api.svc.Transactions(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}
	if transactions == nil {
		transactions = []institute.Transaction{}
	}
	return ctx.JSON(http.StatusOK, transactions)
}

func (api *instituteApi) queryCoordinators(ctx echo.Context) error {
	coordinators, err := api.svc.Coordinators(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying coordinators")
	}
	if coordinators == nil {
		coordinators = []institute.Coordinator{}
	}
	return ctx.JSON(http.StatusOK, coordinators)
}

func (api *instituteApi) queryFinancialPartners(ctx echo.Context) error {
	partners, err := api.svc.FinancialPartners(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying financial partners")
	}
	if partners == nil {
		partners = []institute.FinancialPartner{}
	}
	return ctx.JSON(http.StatusOK, partners)
}

func (api *instituteApi) createLead(ctx echo.Context) error {
	var data institute.NewLead
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLead")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	lead, err := api.svc.CreateLead(ctx.Request().Context(), claims.UserID(), data)
	if err != nil {
		return errors.Wrap(err, "creating lead")
	}
	return ctx.JSON(http.StatusCreated, lead)
}

func (api *instituteApi) queryLeads(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	leads, err := api.svc.LeadsByUser(ctx.Request().Context(), claims.UserID())
	if err != nil {
		return errors.Wrap(err, "querying leads")
	}
	if leads == nil {
		leads = []institute.Lead{}
	}
	return ctx.JSON(http.StatusOK, leads)
}

func (api *instituteApi) updateLeadStatus(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var data UpdateLeadStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLeadStatusRequest")
	}

	lead, err := api.svc.UpdateLeadStatus(ctx.Request().Context(), id, data.Status, data.Remark)
	if err != nil {
		if errors.Cause(err) == institute.ErrLeadNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating lead status")
	}
	return ctx.JSON(http.StatusOK, lead)
}

func (api *instituteApi) registerInfluencer(ctx echo.Context) error {
	var data institute.NewInfluencer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInfluencer")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	inf, err := api.svc.RegisterInfluencer(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering influencer")
	}
	return ctx.JSON(http.StatusCreated, inf)
}

func (api *instituteApi) queryInfluencers(ctx echo.Context) error {
	influencers, err := api.svc.Influencers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying influencers")
	}
	if influencers == nil {
		influencers = []institute.Influencer{}
	}
	return ctx.JSON(http.StatusOK, influencers)
}

func (api *instituteApi) countInfluencers(ctx echo.Context) error {
	count, err := api.svc.InfluencerCount(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting influencers")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": count})
}

type UpdateLeadStatusRequest struct {
	Status string `json:"status"`
	Remark string `json:"remark"`
}
