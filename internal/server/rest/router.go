// Package rest exposes the StudyNest services over HTTP using gin.
package rest

import (
	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/logging"
	"github.com/dmitrijs2005/studynest/internal/server/services"
	"github.com/gin-gonic/gin"
)

// envelopeHeadroom is the body allowance on top of the encoded payload
// ceiling for JSON keys, other fields and multipart framing.
const envelopeHeadroom = 1 << 20

type Handler struct {
	users                  *services.UserService
	attachments            *services.AttachmentService
	careerPaths            *services.CareerPathService
	privilegedRegistration bool
	log                    logging.Logger
}

func NewHandler(us *services.UserService, as *services.AttachmentService, cs *services.CareerPathService, privilegedRegistration bool, l logging.Logger) *Handler {
	return &Handler{
		users:                  us,
		attachments:            as,
		careerPaths:            cs,
		privilegedRegistration: privilegedRegistration,
		log:                    l.With("module", "http"),
	}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = h.attachments.MaxEncodedSize()
	r.Use(gin.Recovery(), Logger(h.log), BodyLimit(h.attachments.MaxEncodedSize()+envelopeHeadroom))

	teacherOnly := AccessGate(h.users, common.RoleTeacher)

	r.GET("/health", h.health)

	r.GET("/pages", h.listPages)
	r.POST("/pages", teacherOnly, h.createPage)
	r.DELETE("/pages/:pageName", teacherOnly, h.deletePage)

	r.POST("/pages/:pageName/files", teacherOnly, h.uploadFile)
	r.GET("/pages/:pageName/files", h.listFiles)
	r.GET("/pages/:pageName/files/:fileName", h.downloadFile)
	r.DELETE("/pages/:pageName/files/:fileName", teacherOnly, h.deleteFile)

	r.POST("/career-paths", teacherOnly, h.createCareerPath)
	r.GET("/career-paths", h.listCareerPaths)

	r.POST("/register", h.register)
	r.POST("/login", h.login)

	return r
}
