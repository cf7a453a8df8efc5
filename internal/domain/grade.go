package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type GradeType string

const (
	GradeTypeTest     GradeType = "test"
	GradeTypeHomework GradeType = "homework"
	GradeTypeOral     GradeType = "oral"
	GradeTypeProject  GradeType = "project"
	GradeTypeOther    GradeType = "other"
)

const (
	MinGrade  = 1
	MaxGrade  = 5
	MinWeight = 1
	MaxWeight = 5
)

type Grade struct {
	ID           int       `json:"id"`
	StudentID    int       `json:"student_id"`
	Subject      string    `json:"subject"`
	Grade        float64   `json:"grade"`
	Description  string    `json:"description,omitempty"`
	DateReceived string    `json:"date_received"`
	Weight       float64   `json:"weight"`
	Teacher      string    `json:"teacher,omitempty"`
	GradeType    GradeType `json:"grade_type"`
	Semester     string    `json:"semester"`
	SchoolYear   string    `json:"school_year"`
	AddedBy      int       `json:"added_by"`
	CreatedAt    string    `json:"created_at,omitempty"`
	UpdatedAt    string    `json:"updated_at,omitempty"`
	StudentName  string    `json:"student_name,omitempty"`
	AddedByName  string    `json:"added_by_name,omitempty"`
}

// GradeFilter narrows grade listings. Its JSON form is part of the cache key.
type GradeFilter struct {
	StudentID  int    `json:"student_id,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Semester   string `json:"semester,omitempty"`
	SchoolYear string `json:"school_year,omitempty"`
}

func (f GradeFilter) Query() map[string]any {
	return map[string]any{
		"student_id":  optionalInt(f.StudentID),
		"subject":     f.Subject,
		"semester":    f.Semester,
		"school_year": f.SchoolYear,
	}
}

type SubjectAverage struct {
	Subject     string  `json:"subject"`
	Average     float64 `json:"average"`
	GradeCount  int     `json:"grade_count"`
	TotalWeight float64 `json:"total_weight"`
}

type GradeStatistics struct {
	SubjectAverages []SubjectAverage `json:"subject_averages"`
	OverallAverage  float64          `json:"overall_average"`
	TotalSubjects   int              `json:"total_subjects"`
}

func EmptyGradeStatistics() GradeStatistics {
	return GradeStatistics{SubjectAverages: []SubjectAverage{}}
}

type CreateGradeRequest struct {
	StudentID    int       `json:"student_id"`
	Subject      string    `json:"subject"`
	Grade        float64   `json:"grade"`
	Description  string    `json:"description,omitempty"`
	DateReceived string    `json:"date_received"`
	Weight       float64   `json:"weight,omitempty"`
	Teacher      string    `json:"teacher,omitempty"`
	GradeType    GradeType `json:"grade_type,omitempty"`
	Semester     string    `json:"semester"`
	SchoolYear   string    `json:"school_year"`
	AddedBy      int       `json:"added_by,omitempty"`
}

func (r *CreateGradeRequest) Normalize() {
	r.Subject = strings.TrimSpace(r.Subject)
	if r.Weight == 0 {
		r.Weight = MinWeight
	}
	if r.GradeType == "" {
		r.GradeType = GradeTypeOther
	}
}

func (r CreateGradeRequest) Validate() error {
	if r.StudentID <= 0 {
		return invalid("student_id", "must reference a student")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return invalid("subject", "is required")
	}
	if err := validateGradeValue(r.Grade); err != nil {
		return err
	}
	if r.Weight != 0 {
		if err := validateWeight(r.Weight); err != nil {
			return err
		}
	}
	if r.GradeType != "" {
		if err := validateGradeType(r.GradeType); err != nil {
			return err
		}
	}
	if err := validateSemester(r.Semester); err != nil {
		return err
	}

	return validateSchoolYear(r.SchoolYear)
}

type UpdateGradeRequest struct {
	Subject      *string    `json:"subject,omitempty"`
	Grade        *float64   `json:"grade,omitempty"`
	Description  *string    `json:"description,omitempty"`
	DateReceived *string    `json:"date_received,omitempty"`
	Weight       *float64   `json:"weight,omitempty"`
	Teacher      *string    `json:"teacher,omitempty"`
	GradeType    *GradeType `json:"grade_type,omitempty"`
	Semester     *string    `json:"semester,omitempty"`
	SchoolYear   *string    `json:"school_year,omitempty"`
}

func (r UpdateGradeRequest) Validate() error {
	if r.Subject != nil && strings.TrimSpace(*r.Subject) == "" {
		return invalid("subject", "must not be blank")
	}
	if r.Grade != nil {
		if err := validateGradeValue(*r.Grade); err != nil {
			return err
		}
	}
	if r.Weight != nil {
		if err := validateWeight(*r.Weight); err != nil {
			return err
		}
	}
	if r.GradeType != nil {
		if err := validateGradeType(*r.GradeType); err != nil {
			return err
		}
	}
	if r.Semester != nil {
		if err := validateSemester(*r.Semester); err != nil {
			return err
		}
	}
	if r.SchoolYear != nil {
		return validateSchoolYear(*r.SchoolYear)
	}

	return nil
}

func validateGradeValue(grade float64) error {
	if grade < MinGrade || grade > MaxGrade {
		return invalid("grade", fmt.Sprintf("must be between %d and %d", MinGrade, MaxGrade))
	}

	return nil
}

func validateWeight(weight float64) error {
	if weight != float64(int(weight)) || weight < MinWeight || weight > MaxWeight {
		return invalid("weight", fmt.Sprintf("must be a whole number between %d and %d", MinWeight, MaxWeight))
	}

	return nil
}

func validateGradeType(gradeType GradeType) error {
	switch gradeType {
	case GradeTypeTest, GradeTypeHomework, GradeTypeOral, GradeTypeProject, GradeTypeOther:
		return nil
	default:
		return invalid("grade_type", "must be test, homework, oral, project or other")
	}
}

func validateSemester(semester string) error {
	if semester != "1" && semester != "2" {
		return invalid("semester", "must be 1 or 2")
	}

	return nil
}

var schoolYearPattern = regexp.MustCompile(`^(\d{4})/(\d{4})$`)

func validateSchoolYear(schoolYear string) error {
	match := schoolYearPattern.FindStringSubmatch(schoolYear)
	if match == nil {
		return invalid("school_year", "must look like 2024/2025")
	}

	start, _ := strconv.Atoi(match[1])
	end, _ := strconv.Atoi(match[2])
	if end != start+1 {
		return invalid("school_year", "must span two consecutive years")
	}

	return nil
}

// SubjectAverageOf is the weight-adjusted mean of one subject's grades, 0 when none exist.
func SubjectAverageOf(grades []Grade, subject string) float64 {
	var weightedSum, totalWeight float64
	for _, grade := range grades {
		if grade.Subject != subject {
			continue
		}
		weightedSum += grade.Grade * grade.Weight
		totalWeight += grade.Weight
	}

	if totalWeight <= 0 {
		return 0
	}

	return weightedSum / totalWeight
}

// SubjectAverages groups grades by subject, ordered by subject name.
func SubjectAverages(grades []Grade) []SubjectAverage {
	index := map[string]int{}
	averages := make([]SubjectAverage, 0)
	sums := make([]float64, 0)

	for _, grade := range grades {
		i, ok := index[grade.Subject]
		if !ok {
			i = len(averages)
			index[grade.Subject] = i
			averages = append(averages, SubjectAverage{Subject: grade.Subject})
			sums = append(sums, 0)
		}
		averages[i].GradeCount++
		averages[i].TotalWeight += grade.Weight
		sums[i] += grade.Grade * grade.Weight
	}

	for i := range averages {
		if averages[i].TotalWeight > 0 {
			averages[i].Average = sums[i] / averages[i].TotalWeight
		}
	}

	sort.Slice(averages, func(a, b int) bool {
		return averages[a].Subject < averages[b].Subject
	})

	return averages
}

// OverallAverage is the unweighted mean of the per-subject weighted averages.
func OverallAverage(grades []Grade) float64 {
	averages := SubjectAverages(grades)
	if len(averages) == 0 {
		return 0
	}

	var sum float64
	for _, average := range averages {
		sum += average.Average
	}

	return sum / float64(len(averages))
}

// Statistics computes locally what the stats endpoint would return.
func Statistics(grades []Grade) GradeStatistics {
	averages := SubjectAverages(grades)
	return GradeStatistics{
		SubjectAverages: averages,
		OverallAverage:  OverallAverage(grades),
		TotalSubjects:   len(averages),
	}
}

func optionalInt(v int) any {
	if v <= 0 {
		return nil
	}

	return v
}
