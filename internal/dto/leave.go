package dto

// CreateLeaveRequest records a teacher's leave on a date. Without Periods the leave
// covers every period the teacher teaches on that weekday.
type CreateLeaveRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	TeacherID string `json:"teacher_id" validate:"required"`
	Periods   []int  `json:"periods" validate:"omitempty,dive,min=1"`
	Reason    string `json:"reason" validate:"max=255"`
}
