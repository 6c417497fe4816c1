package handler

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/studyhall/studyhall-backend/internal/middleware"
	"github.com/studyhall/studyhall-backend/internal/model"
	"github.com/studyhall/studyhall-backend/internal/response"
	"github.com/studyhall/studyhall-backend/internal/service"
	"github.com/studyhall/studyhall-backend/internal/validator"
)

// CourseHandler handles course catalog and export endpoints.
type CourseHandler struct {
	courseService *service.CourseService
	exportService *service.ExportService
	mediaService  *service.MediaService
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(
	courseService *service.CourseService,
	exportService *service.ExportService,
	mediaService *service.MediaService,
) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		exportService: exportService,
		mediaService:  mediaService,
	}
}

// List godoc
// GET /api/v1/courses
// Lists all courses as summaries. Courses the caller is currently
// taking are flagged active.
func (h *CourseHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courses, err := h.courseService.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// Get godoc
// GET /api/v1/courses/:id
// Returns a single course summary. Answers are never included.
func (h *CourseHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	summary, err := h.courseService.Summary(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": summary})
}

// Create godoc
// POST /api/v1/admin/courses
// Creates a new course from a multipart form. The avatar image is
// optional; questions arrive as a JSON string field.
func (h *CourseHandler) Create(c *gin.Context) {
	var req model.CreateCourseRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	avatar := ""
	if fileHeader, err := c.FormFile("avatar"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
			return
		}
		defer file.Close()

		avatar, err = h.mediaService.SaveAvatar(file, fileHeader)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrFileTooLarge):
				response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			case errors.Is(err, service.ErrUnsupportedFileType):
				response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
			default:
				response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			}
			return
		}
	}

	course, err := h.courseService.Create(c.Request.Context(), &req, avatar)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateCourseName):
			response.Fail(c, http.StatusConflict, response.ErrCourseNameTaken)
		case errors.Is(err, service.ErrInvalidCourseName),
			errors.Is(err, service.ErrInvalidCourseTitle),
			errors.Is(err, service.ErrBadQuestions),
			errors.Is(err, service.ErrTooFewQuestions),
			errors.Is(err, service.ErrBadQuestionCount):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrCourseInvalid, map[string]string{
				"detail": err.Error(),
			})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"course": course.Summary(false),
	})
}

// Delete godoc
// DELETE /api/v1/admin/courses/:id
// Deletes a course along with its results and any running tests.
func (h *CourseHandler) Delete(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), courseID); err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// WipeResults godoc
// DELETE /api/v1/admin/courses/:id/results
// Deletes every result recorded for a course, letting users retake it.
func (h *CourseHandler) WipeResults(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	wiped, err := h.courseService.WipeResults(c.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"wiped": wiped})
}

// ListResults godoc
// GET /api/v1/admin/courses/:id/results
// Lists all finalized attempts on a course, newest first.
func (h *CourseHandler) ListResults(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	results, err := h.courseService.Results(c.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// ExportResults godoc
// GET /api/v1/admin/courses/:id/export/results
// Generates an XLSX workbook of the course results and streams it back.
func (h *CourseHandler) ExportResults(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	path, err := h.exportService.ResultsXLSX(c.Request.Context(), courseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNoResults):
			response.Fail(c, http.StatusNotFound, response.ErrNoResults)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

// ExportQuestions godoc
// GET /api/v1/admin/courses/:id/export/questions
// Dumps the full question bank of a course, answers included, as JSON.
func (h *CourseHandler) ExportQuestions(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	path, err := h.exportService.QuestionsJSON(c.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}
