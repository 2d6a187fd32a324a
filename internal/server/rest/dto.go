package rest

import "time"

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type createPageRequest struct {
	Name     string `json:"name"`
	Semester int    `json:"semester"`
}

type pageResponse struct {
	Name     string `json:"name"`
	Semester int    `json:"semester"`
}

type uploadFileRequest struct {
	Name        string `json:"name"`
	FileData    string `json:"fileData"`
	ContentType string `json:"contentType"`
}

type fileResponse struct {
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
	FileData    string    `json:"fileData,omitempty"`
	URL         string    `json:"url,omitempty"`
}

type careerPathRequest struct {
	CareerPath  string `json:"careerPath"`
	PdfData     string `json:"pdfData"`
	ContentType string `json:"contentType"`
}

type careerPathResponse struct {
	CareerPath  string `json:"careerPath"`
	PdfData     string `json:"pdfData"`
	ContentType string `json:"contentType"`
}

type registerRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	RollNo        string `json:"rollno"`
	AdminUsername string `json:"adminUsername"`
	AdminPassword string `json:"adminPassword"`
}

// loginRequest accepts rollno from older clients; it is treated as the username.
type loginRequest struct {
	Username string `json:"username"`
	RollNo   string `json:"rollno"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message     string `json:"message"`
	Role        string `json:"role"`
	Redirect    string `json:"redirect"`
	AccessToken string `json:"accessToken"`
}
