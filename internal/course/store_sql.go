package course

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// SQLStore implements Store over the schema in internal/db. Timestamps are
// unix milliseconds.
type SQLStore struct {
	db *sqlx.DB
	q  sqlx.ExtContext // db, or the transaction inside InTx
}

func NewSQLStore(x *sqlx.DB) *SQLStore {
	return &SQLStore{db: x, q: x}
}

type courseRow struct {
	ID           string `db:"id"`
	InstructorID string `db:"instructor_id"`
	Title        string `db:"title"`
	Description  string `db:"description"`
	Published    bool   `db:"is_published"`
	Status       string `db:"status"`
	CreatedAt    int64  `db:"created_at"`
}

type lessonRow struct {
	ID       string `db:"id"`
	CourseID string `db:"course_id"`
	Title    string `db:"title"`
	Content  string `db:"content"`
	Order    int    `db:"lesson_order"`
	Status   string `db:"status"`
}

type enrollmentRow struct {
	ID         string `db:"id"`
	StudentID  string `db:"student_id"`
	CourseID   string `db:"course_id"`
	Status     string `db:"status"`
	EnrolledAt int64  `db:"enrolled_at"`
}

type quizRow struct {
	ID         string        `db:"id"`
	CourseID   string        `db:"course_id"`
	TotalMarks int           `db:"total_marks"`
	PassMarks  sql.NullInt64 `db:"pass_marks"`
	Status     string        `db:"status"`
}

type questionRow struct {
	ID            string `db:"id"`
	QuizID        string `db:"quiz_id"`
	Text          string `db:"question_text"`
	OptionA       string `db:"option_a"`
	OptionB       string `db:"option_b"`
	OptionC       string `db:"option_c"`
	OptionD       string `db:"option_d"`
	CorrectOption string `db:"correct_option"`
	Status        string `db:"status"`
}

type attemptRow struct {
	ID          string  `db:"id"`
	StudentID   string  `db:"student_id"`
	QuizID      string  `db:"quiz_id"`
	Score       float64 `db:"score"`
	Passed      bool    `db:"is_passed"`
	AttemptedAt int64   `db:"attempted_at"`
}

type ratingRow struct {
	ID        string `db:"id"`
	StudentID string `db:"student_id"`
	CourseID  string `db:"course_id"`
	Rating    int    `db:"rating"`
	Feedback  string `db:"feedback"`
	CreatedAt int64  `db:"created_at"`
}

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	Role         string `db:"role"`
	PasswordHash string `db:"password_hash"`
	Status       string `db:"status"`
}

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func (r courseRow) toCourse() Course {
	return Course{ID: r.ID, InstructorID: r.InstructorID, Title: r.Title, Description: r.Description,
		Published: r.Published, Status: Status(r.Status), CreatedAt: fromMillis(r.CreatedAt)}
}

func (r lessonRow) toLesson() Lesson {
	return Lesson{ID: r.ID, CourseID: r.CourseID, Title: r.Title, Content: r.Content, Order: r.Order, Status: Status(r.Status)}
}

func (r enrollmentRow) toEnrollment() Enrollment {
	return Enrollment{ID: r.ID, StudentID: r.StudentID, CourseID: r.CourseID, Status: Status(r.Status), EnrolledAt: fromMillis(r.EnrolledAt)}
}

func (r quizRow) toQuiz() Quiz {
	q := Quiz{ID: r.ID, CourseID: r.CourseID, TotalMarks: r.TotalMarks, Status: Status(r.Status)}
	if r.PassMarks.Valid {
		pm := int(r.PassMarks.Int64)
		q.PassMarks = &pm
	}
	return q
}

func (r questionRow) toQuestion() Question {
	return Question{ID: r.ID, QuizID: r.QuizID, Text: r.Text, OptionA: r.OptionA, OptionB: r.OptionB,
		OptionC: r.OptionC, OptionD: r.OptionD, CorrectOption: r.CorrectOption, Status: Status(r.Status)}
}

func (r attemptRow) toAttempt() QuizAttempt {
	return QuizAttempt{ID: r.ID, StudentID: r.StudentID, QuizID: r.QuizID, Score: r.Score, Passed: r.Passed, AttemptedAt: fromMillis(r.AttemptedAt)}
}

func (r ratingRow) toRating() Rating {
	return Rating{ID: r.ID, StudentID: r.StudentID, CourseID: r.CourseID, Rating: r.Rating, Feedback: r.Feedback, CreatedAt: fromMillis(r.CreatedAt)}
}

func (r userRow) toUser() User {
	return User{ID: r.ID, Username: r.Username, Email: r.Email, Role: rbac.Role(r.Role), PasswordHash: r.PasswordHash, Status: Status(r.Status)}
}

// get maps sql.ErrNoRows to ErrNoRecord.
func (s *SQLStore) get(ctx context.Context, dest interface{}, op, query string, args ...interface{}) error {
	err := sqlx.GetContext(ctx, s.q, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRecord
	}
	return errors.Wrap(err, op)
}

// exec maps unique violations to ErrDuplicate.
func (s *SQLStore) exec(ctx context.Context, op, query string, args ...interface{}) (sql.Result, error) {
	res, err := s.q.ExecContext(ctx, query, args...)
	if db.IsUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	return res, errors.Wrap(err, op)
}

// execOwned runs a guarded upsert; no affected row means the id belongs to
// another parent and is reported as ErrDuplicate.
func (s *SQLStore) execOwned(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := s.exec(ctx, op, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicate
	}
	return nil
}

const active = "active"

func (s *SQLStore) FindCourse(ctx context.Context, id string) (Course, error) {
	var r courseRow
	if err := s.get(ctx, &r, "course: find course",
		`SELECT id,instructor_id,title,description,is_published,status,created_at
		   FROM courses WHERE id=$1 AND status=$2`, id, active); err != nil {
		return Course{}, err
	}
	return r.toCourse(), nil
}

func (s *SQLStore) FindCourseAnyStatus(ctx context.Context, id string) (Course, error) {
	var r courseRow
	if err := s.get(ctx, &r, "course: find course",
		`SELECT id,instructor_id,title,description,is_published,status,created_at
		   FROM courses WHERE id=$1`, id); err != nil {
		return Course{}, err
	}
	return r.toCourse(), nil
}

func (s *SQLStore) SetCourseStatus(ctx context.Context, id string, st Status) error {
	res, err := s.exec(ctx, "course: set course status",
		`UPDATE courses SET status=$1 WHERE id=$2`, string(st), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRecord
	}
	return nil
}

func (s *SQLStore) SetCoursePublished(ctx context.Context, id string, published bool) error {
	res, err := s.exec(ctx, "course: set published",
		`UPDATE courses SET is_published=$1 WHERE id=$2 AND status=$3`, published, id, active)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRecord
	}
	return nil
}

func (s *SQLStore) ListLessons(ctx context.Context, courseID string) ([]Lesson, error) {
	var rows []lessonRow
	if err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT id,course_id,title,content,lesson_order,status
		   FROM lessons WHERE course_id=$1 AND status=$2 ORDER BY lesson_order ASC`, courseID, active); err != nil {
		return nil, errors.Wrap(err, "course: list lessons")
	}
	out := make([]Lesson, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toLesson())
	}
	return out, nil
}

func (s *SQLStore) FindLesson(ctx context.Context, id string) (Lesson, error) {
	var r lessonRow
	if err := s.get(ctx, &r, "course: find lesson",
		`SELECT id,course_id,title,content,lesson_order,status
		   FROM lessons WHERE id=$1 AND status=$2`, id, active); err != nil {
		return Lesson{}, err
	}
	return r.toLesson(), nil
}

func (s *SQLStore) FindLessonByOrder(ctx context.Context, courseID string, order int) (Lesson, error) {
	var r lessonRow
	if err := s.get(ctx, &r, "course: find lesson by order",
		`SELECT id,course_id,title,content,lesson_order,status
		   FROM lessons WHERE course_id=$1 AND lesson_order=$2 AND status=$3`, courseID, order, active); err != nil {
		return Lesson{}, err
	}
	return r.toLesson(), nil
}

func (s *SQLStore) FindEnrollment(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	var r enrollmentRow
	if err := s.get(ctx, &r, "course: find enrollment",
		`SELECT id,student_id,course_id,status,enrolled_at
		   FROM enrollments WHERE student_id=$1 AND course_id=$2 AND status=$3`, studentID, courseID, active); err != nil {
		return Enrollment{}, err
	}
	return r.toEnrollment(), nil
}

func (s *SQLStore) CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = StatusActive
	}
	if _, err := s.exec(ctx, "course: create enrollment",
		`INSERT INTO enrollments (id,student_id,course_id,status,enrolled_at) VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.StudentID, e.CourseID, string(e.Status), e.EnrolledAt.UnixMilli()); err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

func (s *SQLStore) ListEnrollments(ctx context.Context, studentID string) ([]Enrollment, error) {
	var rows []enrollmentRow
	if err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT id,student_id,course_id,status,enrolled_at
		   FROM enrollments WHERE student_id=$1 AND status=$2 ORDER BY enrolled_at DESC`, studentID, active); err != nil {
		return nil, errors.Wrap(err, "course: list enrollments")
	}
	out := make([]Enrollment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEnrollment())
	}
	return out, nil
}

func (s *SQLStore) CompletedLessonIDs(ctx context.Context, enrollmentID string) (map[string]bool, error) {
	var ids []string
	if err := sqlx.SelectContext(ctx, s.q, &ids,
		`SELECT lesson_id FROM lesson_progress WHERE enrollment_id=$1 AND completed_at IS NOT NULL`, enrollmentID); err != nil {
		return nil, errors.Wrap(err, "course: completed lessons")
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *SQLStore) UpsertLessonProgress(ctx context.Context, enrollmentID, lessonID string, completedAt time.Time) (LessonProgress, error) {
	if _, err := s.exec(ctx, "course: upsert progress",
		`INSERT INTO lesson_progress (id,enrollment_id,lesson_id,completed_at) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (enrollment_id, lesson_id) DO UPDATE SET completed_at=EXCLUDED.completed_at`,
		uuid.NewString(), enrollmentID, lessonID, completedAt.UnixMilli()); err != nil {
		return LessonProgress{}, err
	}
	var r struct {
		ID          string        `db:"id"`
		CompletedAt sql.NullInt64 `db:"completed_at"`
	}
	if err := s.get(ctx, &r, "course: read progress",
		`SELECT id,completed_at FROM lesson_progress WHERE enrollment_id=$1 AND lesson_id=$2`, enrollmentID, lessonID); err != nil {
		return LessonProgress{}, err
	}
	p := LessonProgress{ID: r.ID, EnrollmentID: enrollmentID, LessonID: lessonID}
	if r.CompletedAt.Valid {
		at := fromMillis(r.CompletedAt.Int64)
		p.CompletedAt = &at
	}
	return p, nil
}

func (s *SQLStore) FindQuiz(ctx context.Context, id string) (Quiz, error) {
	var r quizRow
	if err := s.get(ctx, &r, "course: find quiz",
		`SELECT id,course_id,total_marks,pass_marks,status FROM quizzes WHERE id=$1 AND status=$2`, id, active); err != nil {
		return Quiz{}, err
	}
	return r.toQuiz(), nil
}

func (s *SQLStore) FindQuizByCourse(ctx context.Context, courseID string) (Quiz, error) {
	var r quizRow
	if err := s.get(ctx, &r, "course: find quiz by course",
		`SELECT id,course_id,total_marks,pass_marks,status FROM quizzes
		  WHERE course_id=$1 AND status=$2 ORDER BY id LIMIT 1`, courseID, active); err != nil {
		return Quiz{}, err
	}
	return r.toQuiz(), nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, quizID string) ([]Question, error) {
	var rows []questionRow
	if err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT id,quiz_id,question_text,option_a,option_b,option_c,option_d,correct_option,status
		   FROM questions WHERE quiz_id=$1 AND status=$2 ORDER BY position, id`, quizID, active); err != nil {
		return nil, errors.Wrap(err, "course: list questions")
	}
	out := make([]Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toQuestion())
	}
	return out, nil
}

func (s *SQLStore) HasPassedAttempt(ctx context.Context, studentID, quizID string) (bool, error) {
	var n int
	if err := s.get(ctx, &n, "course: passed attempt",
		`SELECT COUNT(*) FROM quiz_attempts WHERE student_id=$1 AND quiz_id=$2 AND is_passed=$3`,
		studentID, quizID, true); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) CreateQuizAttempt(ctx context.Context, a QuizAttempt) (QuizAttempt, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, err := s.exec(ctx, "course: create attempt",
		`INSERT INTO quiz_attempts (id,student_id,quiz_id,score,is_passed,attempted_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.StudentID, a.QuizID, a.Score, a.Passed, a.AttemptedAt.UnixMilli()); err != nil {
		return QuizAttempt{}, err
	}
	return a, nil
}

func (s *SQLStore) ListQuizAttempts(ctx context.Context, studentID, quizID string) ([]QuizAttempt, error) {
	var rows []attemptRow
	if err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT id,student_id,quiz_id,score,is_passed,attempted_at
		   FROM quiz_attempts WHERE student_id=$1 AND quiz_id=$2 ORDER BY attempted_at DESC`, studentID, quizID); err != nil {
		return nil, errors.Wrap(err, "course: list attempts")
	}
	out := make([]QuizAttempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toAttempt())
	}
	return out, nil
}

func (s *SQLStore) FindLatestPassedAttempt(ctx context.Context, studentID, courseID string) (QuizAttempt, error) {
	var r attemptRow
	if err := s.get(ctx, &r, "course: latest passed attempt",
		`SELECT a.id,a.student_id,a.quiz_id,a.score,a.is_passed,a.attempted_at
		   FROM quiz_attempts a JOIN quizzes q ON q.id = a.quiz_id
		  WHERE a.student_id=$1 AND q.course_id=$2 AND a.is_passed=$3
		  ORDER BY a.attempted_at DESC LIMIT 1`, studentID, courseID, true); err != nil {
		return QuizAttempt{}, err
	}
	return r.toAttempt(), nil
}

func (s *SQLStore) CreateRating(ctx context.Context, r Rating) (Rating, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if _, err := s.exec(ctx, "course: create rating",
		`INSERT INTO course_ratings (id,student_id,course_id,rating,feedback,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.StudentID, r.CourseID, r.Rating, r.Feedback, r.CreatedAt.UnixMilli()); err != nil {
		return Rating{}, err
	}
	return r, nil
}

func (s *SQLStore) ListRatings(ctx context.Context, courseID string) ([]Rating, error) {
	var rows []ratingRow
	if err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT id,student_id,course_id,rating,feedback,created_at
		   FROM course_ratings WHERE course_id=$1 ORDER BY created_at DESC`, courseID); err != nil {
		return nil, errors.Wrap(err, "course: list ratings")
	}
	out := make([]Rating, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toRating())
	}
	return out, nil
}

func (s *SQLStore) FindUser(ctx context.Context, id string) (User, error) {
	var r userRow
	if err := s.get(ctx, &r, "course: find user",
		`SELECT id,username,email,role,password_hash,status FROM users WHERE id=$1 AND status=$2`, id, active); err != nil {
		return User{}, err
	}
	return r.toUser(), nil
}

func (s *SQLStore) FindUserByUsername(ctx context.Context, username string) (User, error) {
	var r userRow
	if err := s.get(ctx, &r, "course: find user by username",
		`SELECT id,username,email,role,password_hash,status FROM users WHERE username=$1 AND status=$2`, username, active); err != nil {
		return User{}, err
	}
	return r.toUser(), nil
}

func (s *SQLStore) FindUserAnyStatus(ctx context.Context, id string) (User, error) {
	var r userRow
	if err := s.get(ctx, &r, "course: find user",
		`SELECT id,username,email,role,password_hash,status FROM users WHERE id=$1`, id); err != nil {
		return User{}, err
	}
	return r.toUser(), nil
}

func (s *SQLStore) SetUserStatus(ctx context.Context, id string, st Status) error {
	res, err := s.exec(ctx, "course: set user status",
		`UPDATE users SET status=$1 WHERE id=$2`, string(st), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRecord
	}
	return nil
}

func (s *SQLStore) UpsertUser(ctx context.Context, u User) (bool, error) {
	var existing string
	err := s.get(ctx, &existing, "course: find user for upsert",
		`SELECT id FROM users WHERE id=$1 OR username=$2 LIMIT 1`, u.ID, u.Username)
	switch {
	case err == nil:
		_, err = s.exec(ctx, "course: update user",
			`UPDATE users SET username=$1, role=$2,
			        email=CASE WHEN $3 = '' THEN email ELSE $3 END,
			        password_hash=CASE WHEN $4 = '' THEN password_hash ELSE $4 END
			  WHERE id=$5`,
			u.Username, string(u.Role), u.Email, u.PasswordHash, existing)
		return false, err
	case !errors.Is(err, ErrNoRecord):
		return false, err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	_, err = s.exec(ctx, "course: insert user",
		`INSERT INTO users (id,username,email,role,password_hash,status,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.Username, u.Email, string(u.Role), u.PasswordHash, string(u.Status), time.Now().UnixMilli())
	return err == nil, err
}

func (s *SQLStore) ListUsers(ctx context.Context, role rbac.Role) ([]User, error) {
	var rows []userRow
	var err error
	if role == "" {
		err = sqlx.SelectContext(ctx, s.q, &rows,
			`SELECT id,username,email,role,password_hash,status FROM users WHERE status=$1 ORDER BY username`, active)
	} else {
		err = sqlx.SelectContext(ctx, s.q, &rows,
			`SELECT id,username,email,role,password_hash,status FROM users WHERE status=$1 AND role=$2 ORDER BY username`, active, string(role))
	}
	if err != nil {
		return nil, errors.Wrap(err, "course: list users")
	}
	out := make([]User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toUser())
	}
	return out, nil
}

func (s *SQLStore) SetPasswordHash(ctx context.Context, userID, hash string) error {
	res, err := s.exec(ctx, "course: set password",
		`UPDATE users SET password_hash=$1 WHERE id=$2 AND status=$3`, hash, userID, active)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRecord
	}
	return nil
}

func (s *SQLStore) PutBundle(ctx context.Context, b Bundle) error {
	return s.InTx(ctx, func(st Store) error {
		tx := st.(*SQLStore)
		c := b.Course
		if _, err := tx.exec(ctx, "course: put course",
			`INSERT INTO courses (id,instructor_id,title,description,is_published,status,created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)
			 ON CONFLICT (id) DO UPDATE SET instructor_id=EXCLUDED.instructor_id, title=EXCLUDED.title,
			   description=EXCLUDED.description, is_published=EXCLUDED.is_published, status=EXCLUDED.status`,
			c.ID, c.InstructorID, c.Title, c.Description, c.Published, string(c.Status), c.CreatedAt.UnixMilli()); err != nil {
			return err
		}
		// lessons of a re-imported course are replaced wholesale; old rows are
		// retired since progress rows may point at them
		if _, err := tx.exec(ctx, "course: retire lessons",
			`UPDATE lessons SET status=$1 WHERE course_id=$2 AND status=$3`,
			string(StatusInactive), c.ID, active); err != nil {
			return err
		}
		for _, l := range b.Lessons {
			if err := tx.execOwned(ctx, "course: put lesson",
				`INSERT INTO lessons (id,course_id,title,content,lesson_order,status) VALUES ($1,$2,$3,$4,$5,$6)
				 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, content=EXCLUDED.content,
				   lesson_order=EXCLUDED.lesson_order, status=EXCLUDED.status
				 WHERE lessons.course_id = EXCLUDED.course_id`,
				l.ID, c.ID, l.Title, l.Content, l.Order, string(StatusActive)); err != nil {
				return err
			}
		}

		// a course has at most one active quiz
		quizID := ""
		if b.Quiz != nil {
			quizID = b.Quiz.ID
		}
		if _, err := tx.exec(ctx, "course: retire old questions",
			`UPDATE questions SET status=$1
			  WHERE quiz_id IN (SELECT id FROM quizzes WHERE course_id=$2 AND id<>$3)`,
			string(StatusInactive), c.ID, quizID); err != nil {
			return err
		}
		if _, err := tx.exec(ctx, "course: retire old quizzes",
			`UPDATE quizzes SET status=$1 WHERE course_id=$2 AND id<>$3`,
			string(StatusInactive), c.ID, quizID); err != nil {
			return err
		}
		if b.Quiz == nil {
			return nil
		}
		q := b.Quiz
		var pass interface{}
		if q.PassMarks != nil {
			pass = *q.PassMarks
		}
		if err := tx.execOwned(ctx, "course: put quiz",
			`INSERT INTO quizzes (id,course_id,total_marks,pass_marks,status) VALUES ($1,$2,$3,$4,$5)
			 ON CONFLICT (id) DO UPDATE SET total_marks=EXCLUDED.total_marks, pass_marks=EXCLUDED.pass_marks, status=EXCLUDED.status
			 WHERE quizzes.course_id = EXCLUDED.course_id`,
			q.ID, c.ID, q.TotalMarks, pass, string(StatusActive)); err != nil {
			return err
		}
		if _, err := tx.exec(ctx, "course: retire questions",
			`UPDATE questions SET status=$1 WHERE quiz_id=$2`, string(StatusInactive), q.ID); err != nil {
			return err
		}
		for i, qu := range b.Questions {
			if err := tx.execOwned(ctx, "course: put question",
				`INSERT INTO questions (id,quiz_id,position,question_text,option_a,option_b,option_c,option_d,correct_option,status)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
				 ON CONFLICT (id) DO UPDATE SET position=EXCLUDED.position, question_text=EXCLUDED.question_text,
				   option_a=EXCLUDED.option_a, option_b=EXCLUDED.option_b, option_c=EXCLUDED.option_c,
				   option_d=EXCLUDED.option_d, correct_option=EXCLUDED.correct_option, status=EXCLUDED.status
				 WHERE questions.quiz_id = EXCLUDED.quiz_id`,
				qu.ID, q.ID, i, qu.Text, qu.OptionA, qu.OptionB, qu.OptionC, qu.OptionD, qu.CorrectOption, string(StatusActive)); err != nil {
				return err
			}
		}
		return nil
	})
}

// InTx binds fn to one transaction. Nested calls reuse the outer one.
func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.q.(*sqlx.Tx); ok {
		return fn(s)
	}
	return db.WithTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		return fn(&SQLStore{db: s.db, q: tx})
	})
}
