package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

type GradeService struct {
	backend *Backend
}

func NewGradeService(backend *Backend) *GradeService {
	return &GradeService{backend: backend}
}

// ForStudent lists a student's grades. A non-positive id yields an empty
// list without a request.
func (s *GradeService) ForStudent(ctx context.Context, studentID int, filter domain.GradeFilter) ([]domain.Grade, error) {
	if studentID <= 0 {
		s.backend.logger.Warn("grades requested for invalid student id")
		return []domain.Grade{}, nil
	}

	filter.StudentID = 0
	key := fmt.Sprintf("grades_student_%d_%s", studentID, filterKey(filter))
	filter.StudentID = studentID

	return cachedFetch(ctx, s.backend, key, func(ctx context.Context) ([]domain.Grade, error) {
		return fetchList[domain.Grade](ctx, s.backend, withQuery(gradesPath, filter.Query()))
	})
}

// All lists grades across every student.
func (s *GradeService) All(ctx context.Context, filter domain.GradeFilter) ([]domain.Grade, error) {
	key := "grades_all_" + filterKey(filter)

	return cachedFetch(ctx, s.backend, key, func(ctx context.Context) ([]domain.Grade, error) {
		return fetchList[domain.Grade](ctx, s.backend, withQuery(allGradesPath, filter.Query()))
	})
}

// Current lists the grades of the running semester and school year.
func (s *GradeService) Current(ctx context.Context, studentID int) ([]domain.Grade, error) {
	now := s.backend.clock.Now()
	return s.ForStudent(ctx, studentID, domain.GradeFilter{
		Semester:   domain.Semester(now),
		SchoolYear: domain.SchoolYear(now),
	})
}

// Statistics returns per-subject averages as computed by the server. Only
// semester and school year of filter apply.
func (s *GradeService) Statistics(ctx context.Context, studentID int, filter domain.GradeFilter) (domain.GradeStatistics, error) {
	if err := requireSavedID("student_id", studentID); err != nil {
		return domain.GradeStatistics{}, err
	}

	scoped := domain.GradeFilter{Semester: filter.Semester, SchoolYear: filter.SchoolYear}
	key := fmt.Sprintf("grade_stats_%d_%s", studentID, filterKey(scoped))

	return cachedFetch(ctx, s.backend, key, func(ctx context.Context) (domain.GradeStatistics, error) {
		envelope, err := s.backend.get(ctx, withQuery(gradeStatsPath(studentID), scoped.Query()))
		if err != nil {
			return domain.GradeStatistics{}, err
		}

		stats := domain.EmptyGradeStatistics()
		if err := decodeData(envelope, &stats); err != nil {
			return domain.GradeStatistics{}, fmt.Errorf("decode grade statistics: %w", err)
		}
		if stats.SubjectAverages == nil {
			stats.SubjectAverages = []domain.SubjectAverage{}
		}

		return stats, nil
	})
}

func (s *GradeService) Create(ctx context.Context, addedBy int, req domain.CreateGradeRequest) (domain.Grade, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.Grade{}, err
	}
	addedBy = s.backend.actor(ctx, addedBy)
	req.AddedBy = addedBy

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionCreate,
		method:   http.MethodPost,
		endpoint: gradesPath,
		body:     req,
		actorID:  addedBy,
	})
	if err != nil {
		return domain.Grade{}, fmt.Errorf("create grade: %w", err)
	}
	if result.queued != nil {
		now := s.backend.now()
		return domain.Grade{
			ID:           s.backend.placeholderID(),
			StudentID:    req.StudentID,
			Subject:      req.Subject,
			Grade:        req.Grade,
			Description:  req.Description,
			DateReceived: req.DateReceived,
			Weight:       req.Weight,
			Teacher:      req.Teacher,
			GradeType:    req.GradeType,
			Semester:     req.Semester,
			SchoolYear:   req.SchoolYear,
			AddedBy:      addedBy,
			CreatedAt:    now,
			UpdatedAt:    now,
		}, nil
	}

	return decodeRequired[domain.Grade](result, "create grade")
}

func (s *GradeService) Update(ctx context.Context, id int, req domain.UpdateGradeRequest) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionUpdate,
		method:   http.MethodPut,
		endpoint: gradePath(id),
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("update grade %d: %w", id, err)
	}

	return result.queued, nil
}

func (s *GradeService) Delete(ctx context.Context, id int) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionDelete,
		method:   http.MethodDelete,
		endpoint: gradePath(id),
	})
	if err != nil {
		return nil, fmt.Errorf("delete grade %d: %w", id, err)
	}

	return result.queued, nil
}

// filterKey is the JSON form of filter used inside cache keys.
func filterKey(filter domain.GradeFilter) string {
	raw, err := json.Marshal(filter)
	if err != nil {
		return "{}"
	}

	return string(raw)
}
