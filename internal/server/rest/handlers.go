package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/server/services"
	"github.com/gin-gonic/gin"
)

// bindJSON decodes the body into dst. Oversized bodies keep their
// *http.MaxBytesError so they map to the payload error.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: malformed request body", common.ErrorInvalidInput)
	}
	return nil
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listPages(c *gin.Context) {
	pages, err := h.attachments.ListPages(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]pageResponse, 0, len(pages))
	for _, p := range pages {
		resp = append(resp, pageResponse{Name: p.Name, Semester: p.Semester})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createPage(c *gin.Context) {
	var req createPageRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	if _, err := h.attachments.CreatePage(c.Request.Context(), currentUser(c), req.Name, req.Semester); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, messageResponse{Message: "Page created"})
}

func (h *Handler) deletePage(c *gin.Context) {
	if err := h.attachments.DeletePage(c.Request.Context(), currentUser(c), c.Param("pageName")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Page deleted"})
}

func (h *Handler) uploadFile(c *gin.Context) {
	in, err := h.readUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}
	in.PageName = c.Param("pageName")

	if _, err := h.attachments.UploadFile(c.Request.Context(), currentUser(c), in); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, messageResponse{Message: "File uploaded"})
}

// readUpload accepts either a JSON body with base64 fileData or a multipart
// form with a "file" part and optional "name" and "contentType" fields.
func (h *Handler) readUpload(c *gin.Context) (services.UploadInput, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		var req uploadFileRequest
		if err := bindJSON(c, &req); err != nil {
			return services.UploadInput{}, err
		}
		data, err := services.DecodePayload(req.FileData, h.attachments.MaxEncodedSize())
		if err != nil {
			return services.UploadInput{}, err
		}
		return services.UploadInput{Name: req.Name, Data: data, ContentType: req.ContentType}, nil
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return services.UploadInput{}, err
		}
		return services.UploadInput{}, fmt.Errorf("%w: multipart field \"file\" is required", common.ErrorInvalidInput)
	}
	f, err := fh.Open()
	if err != nil {
		return services.UploadInput{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return services.UploadInput{}, fmt.Errorf("read upload: %w", err)
	}

	in := services.UploadInput{
		Name:        c.PostForm("name"),
		Data:        data,
		ContentType: c.PostForm("contentType"),
	}
	if in.Name == "" {
		in.Name = fh.Filename
	}
	if in.ContentType == "" {
		in.ContentType = fh.Header.Get("Content-Type")
	}
	return in, nil
}

func (h *Handler) listFiles(c *gin.Context) {
	files, err := h.attachments.ListFiles(c.Request.Context(), c.Param("pageName"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]fileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, fileResponse{
			Name:        f.Name,
			ContentType: f.ContentType,
			Size:        f.Size,
			UploadedAt:  f.UploadedAt,
			FileData:    f.FileData,
			URL:         f.URL,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) downloadFile(c *gin.Context) {
	data, ct, err := h.attachments.GetFile(c.Request.Context(), c.Param("pageName"), c.Param("fileName"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, ct, data)
}

func (h *Handler) deleteFile(c *gin.Context) {
	err := h.attachments.DeleteFile(c.Request.Context(), currentUser(c), c.Param("pageName"), c.Param("fileName"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "File deleted"})
}

func (h *Handler) createCareerPath(c *gin.Context) {
	var req careerPathRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	_, err := h.careerPaths.Create(c.Request.Context(), currentUser(c), services.CareerPathInput{
		CareerPath:  req.CareerPath,
		PdfData:     req.PdfData,
		ContentType: req.ContentType,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, messageResponse{Message: "Career path PDF uploaded"})
}

func (h *Handler) listCareerPaths(c *gin.Context) {
	cps, err := h.careerPaths.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]careerPathResponse, 0, len(cps))
	for _, cp := range cps {
		resp = append(resp, careerPathResponse{CareerPath: cp.CareerPath, PdfData: cp.PdfData, ContentType: cp.ContentType})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	in := services.RegisterInput{UserName: req.Username, Password: req.Password, Role: req.Role, RollNo: req.RollNo}
	var err error
	if h.privilegedRegistration {
		_, err = h.users.RegisterPrivileged(c.Request.Context(), req.AdminUsername, req.AdminPassword, in)
	} else {
		_, err = h.users.Register(c.Request.Context(), in)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, messageResponse{Message: "User registered successfully"})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	identity := req.Username
	if identity == "" {
		identity = req.RollNo
	}

	res, err := h.users.Login(c.Request.Context(), identity, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		Message:     services.LoginMessage,
		Role:        res.Role,
		Redirect:    res.Redirect,
		AccessToken: res.AccessToken,
	})
}
