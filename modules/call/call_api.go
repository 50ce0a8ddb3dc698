package call

import (
	"errors"
	"net/http"

	"github.com/emicklei/go-restful"
	log "github.com/sirupsen/logrus"

	apperror "github.com/zbxtools/zbxcall/internal/error"
	"github.com/zbxtools/zbxcall/internal/dispatcher"
	"github.com/zbxtools/zbxcall/modules/call/types"
)

// SubjectHeader carries the caller identity set by the fronting proxy
const SubjectHeader = "X-Remote-User"

type resource struct {
	s *Service
}

// Register add handlers for /v1/call endpoint
func Register(prefix string, container *restful.Container, s *Service) {
	r := resource{s: s}

	ws := new(restful.WebService)
	ws.
		Path(prefix + "call").
		Doc("Call the Zabbix API").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.Route(ws.POST("/").To(r.Post).
		Doc("Call one API method").
		Reads(types.CallRequest{}).
		Writes(dispatcher.Outcome{}).
		Operation("CallPost"))

	container.Add(ws)
}

// Post handles POST /v1/call
// sample POST request data
// body : '{ "method": "dashboard.get", "params": { "filter": { "name": "Zabbix server health" } } }'
// body : '{ "method": "host.delete", "params": { "0": "10084" }, "check_mode": true }'
func (r resource) Post(request *restful.Request, response *restful.Response) {
	req := types.CallRequest{}
	if err := request.ReadEntity(&req); err != nil {
		appErr := apperror.NewAppError(http.StatusBadRequest, "Failed to read request correctly. Please check request syntax and data", err)
		log.Errorf("Failed to read request due to: %v", err)
		response.WriteHeaderAndEntity(appErr.Code, dispatcher.Failure(appErr))
		return
	}
	req.Subject = request.HeaderParameter(SubjectHeader)
	req.Transport = types.TransportREST

	out := r.s.Execute(request.Request.Context(), req)
	response.WriteHeaderAndEntity(StatusOf(out), out)
}

// StatusOf maps an outcome to the HTTP status of the REST gateway
func StatusOf(out dispatcher.Outcome) int {
	if !out.Failed {
		return http.StatusOK
	}
	var appErr *apperror.AppError
	switch {
	case errors.As(out.Err, &appErr):
		return appErr.Code
	case errors.Is(out.Err, dispatcher.ErrInvalidMethod):
		return http.StatusBadRequest
	case errors.Is(out.Err, dispatcher.ErrDenied):
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}
