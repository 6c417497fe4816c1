package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-backend/internal/middleware"
	"github.com/studyhall/studyhall-backend/internal/model"
	"github.com/studyhall/studyhall-backend/internal/response"
	"github.com/studyhall/studyhall-backend/internal/service"
	"github.com/studyhall/studyhall-backend/internal/validator"
)

// ExamHandler handles the test-taking endpoints.
type ExamHandler struct {
	examService *service.ExamSessionService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamSessionService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// Start godoc
// POST /api/v1/courses/start
// Starts a fresh test for a course or resumes the caller's running one.
// The response never contains answer keys.
func (h *ExamHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.examService.Start(c.Request.Context(), claims.Examinee(), req.CourseID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrAlreadyTaken):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyTaken)
		case errors.Is(err, service.ErrNotReleased):
			response.Fail(c, http.StatusForbidden, response.ErrCourseNotReleased)
		case errors.Is(err, service.ErrCourseAuthFailed):
			response.Fail(c, http.StatusUnauthorized, response.ErrCourseAuthFailed)
		case errors.Is(err, service.ErrTestTimedOut):
			response.Fail(c, http.StatusConflict, response.ErrTestTimedOut)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// Submit godoc
// POST /api/v1/courses/submit
// Records answer updates for the caller's running test. With finished
// set, the test is graded and the result returned instead.
func (h *ExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, result, err := h.examService.Submit(c.Request.Context(), claims.Examinee(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveTest):
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveTest)
		case errors.Is(err, service.ErrTestTimedOut):
			response.Fail(c, http.StatusConflict, response.ErrTestTimedOut)
		case errors.Is(err, service.ErrInvalidQuestionID):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuestionID)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if result != nil {
		response.Success(c, http.StatusOK, gin.H{"result": result.Summarize()})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}
