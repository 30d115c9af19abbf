package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/repository"
	"github.com/01moynul/resell-golang/internal/repository/mocks"
	"github.com/01moynul/resell-golang/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestPersistenceFailureIsSanitized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	units := mocks.NewMockUnitRepository(ctrl)

	cause := errors.New("Error 2006 (HY000): MySQL server has gone away")
	units.EXPECT().GetByID(gomock.Any(), int64(3)).
		Return(nil, apperr.Persistence("load unit", cause)).
		Times(2)

	log, hook := test.NewNullLogger()
	repos := repository.NewMemory()
	repos.Units = units
	h := New(service.New(repos, log), log)

	r := gin.New()
	r.GET("/units/:id", h.GetUnit)

	w := serve(r, http.MethodGet, "/units/3")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"failed to load unit"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "gone away")

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "request failed", last.Message)
	assert.Equal(t, cause, last.Data[logrus.ErrorKey])
	assert.Equal(t, "load unit", last.Data["op"])
}

func TestUnexpectedErrorIsGeneric(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	h := New(nil, log)

	r := gin.New()
	r.GET("/boom", func(c *gin.Context) { h.errorResponse(c, errors.New("nil pointer somewhere")) })

	w := serve(r, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestMissingActorIsUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	h := New(service.New(repository.NewMemory(), log), log)

	// No AuthMiddleware in front of the handler.
	r := gin.New()
	r.DELETE("/units/:id", h.DeleteUnit)

	w := serve(r, http.MethodDelete, "/units/1")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
